// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperdex/internal/fetch"
	"github.com/pdiddy/paperdex/internal/httputil"
	"github.com/pdiddy/paperdex/internal/registry"
	"github.com/pdiddy/paperdex/pkg/types"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <reference>...",
	Short: "Download full-text PDFs for registered papers",
	Long: `Fetch resolves each reference to its canonical record and downloads the
full-text PDF into the fetch directory. The PDF source is the stored PDF URL,
the arXiv endpoint, or an OpenAlex open-access lookup by DOI. Papers whose
PDF already exists on disk are skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFetch,
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if dir, _ := cmd.Flags().GetString("dir"); dir != "" {
		cfg.Fetch.Dir = dir
	}

	store, _, err := openRegistry(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	resolver := registry.NewResolver(store)

	var papers []types.CanonicalPaper
	for _, ref := range args {
		id, err := resolver.Resolve(ctx, ref, registry.Hints{})
		if err != nil {
			return err
		}
		if id == 0 {
			return fmt.Errorf("no canonical paper matches %q", ref)
		}
		paper, err := store.Get(ctx, id)
		if err != nil {
			return err
		}
		papers = append(papers, paper)
	}

	client := httputil.NewClient(cfg.Search.Timeout, cfg.Search.RequestsPerSecond)
	result := fetch.Batch(ctx, client, papers, cfg.Fetch, cfg.Search.UserAgent, os.Stdout)
	if result.Failed > 0 {
		return fmt.Errorf("%d download(s) failed", result.Failed)
	}
	return nil
}

func init() {
	fetchCmd.Flags().String("dir", "", "download directory (default: pdfs or config fetch.dir)")

	rootCmd.AddCommand(fetchCmd)
}
