// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paperdex/pkg/types"
)

// QueryFile is the on-disk representation of a fused search and its results.
// A search can be saved to a file and reloaded later without re-querying the
// source APIs.
type QueryFile struct {
	Query      QueryParams            `yaml:"query"`
	Config     QueryFileConfig        `yaml:"config"`
	Candidates []types.PaperCandidate `yaml:"candidates"`
	Summary    QuerySummary           `yaml:"summary"`
}

// QueryParams stores the query parameters in a serializable form.
type QueryParams struct {
	FreeText string `yaml:"free_text,omitempty"`
	YearFrom int    `yaml:"year_from,omitempty"`
	YearTo   int    `yaml:"year_to,omitempty"`
}

// QueryFileConfig stores the search configuration that produced the results.
type QueryFileConfig struct {
	MaxResults int      `yaml:"max_results"`
	Adapters   []string `yaml:"adapters,omitempty"`
}

// QuerySummary stores result statistics and a timestamp.
type QuerySummary struct {
	Total             int       `yaml:"total"`
	TotalRaw          int       `yaml:"total_raw"`
	DuplicatesRemoved int       `yaml:"duplicates_removed"`
	AdapterErrors     []string  `yaml:"adapter_errors,omitempty"`
	Timestamp         time.Time `yaml:"timestamp"`
}

// WriteQueryFile saves query parameters and fused results to a YAML file.
func WriteQueryFile(path string, query Query, cfg types.SearchConfig, adapterNames []string, out Output) error {
	qf := QueryFile{
		Query: QueryParams{
			FreeText: query.FreeText,
			YearFrom: query.YearFrom,
			YearTo:   query.YearTo,
		},
		Config: QueryFileConfig{
			MaxResults: cfg.MaxResults,
			Adapters:   adapterNames,
		},
		Candidates: out.Candidates,
		Summary: QuerySummary{
			Total:             len(out.Candidates),
			TotalRaw:          out.TotalRaw,
			DuplicatesRemoved: out.DuplicatesRemoved,
			AdapterErrors:     out.AdapterErrors,
			Timestamp:         time.Now(),
		},
	}

	data, err := yaml.Marshal(&qf)
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadQueryFile loads a previously saved query file from disk.
func ReadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing query file: %w", err)
	}
	return &qf, nil
}

// ToQuery converts stored QueryParams back into a Query struct.
func (p QueryParams) ToQuery() Query {
	return Query{
		FreeText: p.FreeText,
		YearFrom: p.YearFrom,
		YearTo:   p.YearTo,
	}
}
