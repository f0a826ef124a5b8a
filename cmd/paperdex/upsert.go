// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paperdex/pkg/types"
)

var upsertCmd = &cobra.Command{
	Use:   "upsert",
	Short: "Create or merge canonical paper records",
	Long: `Upsert admits one source's view of a paper into the registry. If the
paper is already known under any of its identifiers (or its title hash) the
record is merged non-destructively; otherwise a new canonical record is
created. Re-running the same upsert never creates a second record.

Provide a single paper via flags, or a batch via --file pointing at a YAML
list of payloads. Batch items fail independently.`,
	RunE: runUpsert,
}

func runUpsert(cmd *cobra.Command, args []string) error {
	payloads, err := upsertPayloads(cmd)
	if err != nil {
		return err
	}
	if len(payloads) == 0 {
		return fmt.Errorf("nothing to upsert: provide --file or --title with an identifier")
	}

	cfg := loadConfig()
	store, reg, err := openRegistry(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	source, _ := cmd.Flags().GetString("source")
	sum := reg.UpsertMany(context.Background(), payloads, source)

	fmt.Printf("%d created, %d updated, %d failed\n", sum.Created, sum.Updated, sum.Failed)
	if sum.Failed > 0 {
		return fmt.Errorf("%d payload(s) failed", sum.Failed)
	}
	return nil
}

func upsertPayloads(cmd *cobra.Command) ([]types.UpsertPayload, error) {
	if file, _ := cmd.Flags().GetString("file"); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading payload file: %w", err)
		}
		var payloads []types.UpsertPayload
		if err := yaml.Unmarshal(data, &payloads); err != nil {
			return nil, fmt.Errorf("parsing payload file %s: %w", file, err)
		}
		return payloads, nil
	}

	title, _ := cmd.Flags().GetString("title")
	if title == "" {
		return nil, nil
	}
	p := types.UpsertPayload{Title: title}
	p.DOI, _ = cmd.Flags().GetString("doi")
	p.ArxivID, _ = cmd.Flags().GetString("arxiv")
	p.URL, _ = cmd.Flags().GetString("url")
	p.Venue, _ = cmd.Flags().GetString("venue")
	p.Year, _ = cmd.Flags().GetInt("year")
	p.Authors, _ = cmd.Flags().GetStringSlice("author")
	return []types.UpsertPayload{p}, nil
}

func init() {
	upsertCmd.Flags().String("file", "", "YAML file containing a list of payloads")
	upsertCmd.Flags().String("source", "manual", "source label recorded for this upsert")
	upsertCmd.Flags().String("title", "", "paper title")
	upsertCmd.Flags().String("doi", "", "DOI in any common form")
	upsertCmd.Flags().String("arxiv", "", "arXiv id or URL in any common form")
	upsertCmd.Flags().String("url", "", "landing page URL")
	upsertCmd.Flags().String("venue", "", "journal or conference name")
	upsertCmd.Flags().Int("year", 0, "publication year")
	upsertCmd.Flags().StringSlice("author", nil, "author name (repeatable)")

	rootCmd.AddCommand(upsertCmd)
}
