// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"path/filepath"
	"testing"

	"github.com/pdiddy/paperdex/pkg/types"
)

func TestQueryFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "search.yaml")

	query := Query{FreeText: "diffusion models", YearFrom: 2021, YearTo: 2024}
	out := Output{
		Candidates: []types.PaperCandidate{
			{
				Title:     "Denoising Diffusion Probabilistic Models",
				TitleHash: "abc123",
				Identities: []types.Identity{
					{Source: types.SourceArxiv, ExternalID: "2006.11239"},
				},
				RetrievalScore:   0.0325,
				RetrievalSources: []string{"arxiv", "openalex"},
			},
		},
		TotalRaw:          3,
		DuplicatesRemoved: 2,
		AdapterErrors:     []string{"semantic_scholar: HTTP 429"},
	}

	if err := WriteQueryFile(path, query, testCfg(), []string{"arxiv", "openalex"}, out); err != nil {
		t.Fatalf("WriteQueryFile: %v", err)
	}

	qf, err := ReadQueryFile(path)
	if err != nil {
		t.Fatalf("ReadQueryFile: %v", err)
	}

	if got := qf.Query.ToQuery(); got != query {
		t.Errorf("round-tripped query = %+v, want %+v", got, query)
	}
	if len(qf.Candidates) != 1 {
		t.Fatalf("candidates = %d, want 1", len(qf.Candidates))
	}
	c := qf.Candidates[0]
	if c.Title != "Denoising Diffusion Probabilistic Models" {
		t.Errorf("title = %q", c.Title)
	}
	if len(c.Identities) != 1 || c.Identities[0].ExternalID != "2006.11239" {
		t.Errorf("identities = %v", c.Identities)
	}
	if qf.Summary.TotalRaw != 3 || qf.Summary.DuplicatesRemoved != 2 {
		t.Errorf("summary = %+v", qf.Summary)
	}
	if len(qf.Summary.AdapterErrors) != 1 {
		t.Errorf("adapter errors = %v", qf.Summary.AdapterErrors)
	}
}

func TestReadQueryFileMissing(t *testing.T) {
	_, err := ReadQueryFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
