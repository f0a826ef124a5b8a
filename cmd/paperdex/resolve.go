// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperdex/internal/registry"
	"github.com/pdiddy/paperdex/pkg/types"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <reference>",
	Short: "Resolve any paper reference to its canonical record",
	Long: `Resolve maps a reference of any shape (canonical id, arXiv id or URL,
DOI or doi.org URL, landing page URL, or exact title via --title) to the
canonical paper it denotes, and prints that record. A reference that matches
nothing exits non-zero.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runResolve,
}

func runResolve(cmd *cobra.Command, args []string) error {
	ref := ""
	if len(args) > 0 {
		ref = args[0]
	}
	title, _ := cmd.Flags().GetString("title")
	urls, _ := cmd.Flags().GetStringSlice("url")
	if ref == "" && title == "" && len(urls) == 0 {
		return fmt.Errorf("nothing to resolve: provide a reference, --title, or --url")
	}

	cfg := loadConfig()
	store, _, err := openRegistry(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	resolver := registry.NewResolver(store)
	id, err := resolver.Resolve(ctx, ref, registry.Hints{URLs: urls, Title: title})
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

	if flagBool(cmd, "json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(paper)
	}
	printPaper(paper)

	ids, err := store.ListIdentities(ctx, id)
	if err != nil {
		return err
	}
	if len(ids) > 0 {
		pairs := make([]string, 0, len(ids))
		for _, identity := range ids {
			pairs = append(pairs, fmt.Sprintf("%s:%s", identity.Source, identity.ExternalID))
		}
		fmt.Printf("Identities: %s\n", strings.Join(pairs, ", "))
	}
	return nil
}

func printPaper(p types.CanonicalPaper) {
	fmt.Printf("Paper %d: %s\n", p.ID, p.Title)
	if len(p.Authors) > 0 {
		fmt.Printf("Authors:  %s\n", strings.Join(p.Authors, ", "))
	}
	if p.Year != 0 {
		fmt.Printf("Year:     %d\n", p.Year)
	}
	if p.Venue != "" {
		fmt.Printf("Venue:    %s\n", p.Venue)
	}
	if p.CitationCount != 0 {
		fmt.Printf("Cited by: %d\n", p.CitationCount)
	}
	if p.DOI != "" {
		fmt.Printf("DOI:      %s\n", p.DOI)
	}
	if p.ArxivID != "" {
		fmt.Printf("arXiv:    %s\n", p.ArxivID)
	}
	if p.URL != "" {
		fmt.Printf("URL:      %s\n", p.URL)
	}
}

func init() {
	resolveCmd.Flags().String("title", "", "resolve by exact title (case-insensitive)")
	resolveCmd.Flags().StringSlice("url", nil, "candidate URLs to resolve through")
	resolveCmd.Flags().Bool("json", false, "output the record as JSON")

	rootCmd.AddCommand(resolveCmd)
}
