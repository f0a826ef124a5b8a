// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paperdex/pkg/types"
)

// ExportEntry holds one canonical paper with its identity mappings.
type ExportEntry struct {
	types.CanonicalPaper `yaml:",inline"`
	Identities           []types.Identity `json:"identities,omitempty" yaml:"identities,omitempty"`
}

// ExportYAML writes every canonical paper and its identities to path.
func (s *Store) ExportYAML(ctx context.Context, path string) error {
	entries, err := s.exportEntries(ctx)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ExportJSON writes every canonical paper and its identities to path.
func (s *Store) ExportJSON(ctx context.Context, path string) error {
	entries, err := s.exportEntries(ctx)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *Store) exportEntries(ctx context.Context) ([]ExportEntry, error) {
	papers, err := s.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	entries := make([]ExportEntry, len(papers))
	for i, p := range papers {
		ids, err := s.ListIdentities(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		entries[i] = ExportEntry{CanonicalPaper: p, Identities: ids}
	}
	return entries, nil
}
