// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperdex/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search academic APIs and fuse the results into one ranking",
	Long: `Search queries the enabled academic APIs (arXiv, Semantic Scholar,
OpenAlex) concurrently, deduplicates papers reported by more than one source,
and ranks the fused list so that cross-source consensus rises to the top.

With --persist every fused result is written into the local registry. With
--save the full query, configuration, and results are written to a YAML file
that can be re-read later.`,
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := searchQueryFromFlags(cmd, args)

	cfg := loadConfig()
	if n, _ := cmd.Flags().GetInt("max-results"); n > 0 {
		cfg.Search.MaxResults = n
	}

	adapters := buildAdapters(cfg.Search)
	defer func() {
		if err := search.CloseAll(adapters); err != nil {
			fmt.Fprintln(os.Stderr, "warning:", err)
		}
	}()

	var persister search.Persister
	persist, _ := cmd.Flags().GetBool("persist")
	if persist {
		store, reg, err := openRegistry(cfg)
		if err != nil {
			return err
		}
		defer store.Close()
		persister = reg
	}

	out, err := search.Fuse(context.Background(), query, adapters, cfg.Search, persister, os.Stderr)
	if err != nil {
		return err
	}

	if save, _ := cmd.Flags().GetString("save"); save != "" {
		names := make([]string, 0, len(adapters))
		for _, a := range adapters {
			names = append(names, a.Name())
		}
		if err := search.WriteQueryFile(save, query, cfg.Search, names, out); err != nil {
			return err
		}
	}

	switch {
	case flagBool(cmd, "json"):
		return search.FormatJSON(out, os.Stdout)
	case flagBool(cmd, "csl"):
		return search.FormatCSL(out, os.Stdout)
	default:
		search.FormatTable(out, os.Stdout)
		return nil
	}
}

func searchQueryFromFlags(cmd *cobra.Command, args []string) search.Query {
	text, _ := cmd.Flags().GetString("query")
	if text == "" && len(args) > 0 {
		text = strings.Join(args, " ")
	}
	from, _ := cmd.Flags().GetInt("from-year")
	to, _ := cmd.Flags().GetInt("to-year")
	return search.Query{FreeText: text, YearFrom: from, YearTo: to}
}

func flagBool(cmd *cobra.Command, name string) bool {
	v, _ := cmd.Flags().GetBool(name)
	return v
}

func init() {
	searchCmd.Flags().String("query", "", "free-text research question")
	searchCmd.Flags().Int("from-year", 0, "earliest publication year to include")
	searchCmd.Flags().Int("to-year", 0, "latest publication year to include")
	searchCmd.Flags().Int("max-results", 0, "maximum fused results (0 = use config default)")
	searchCmd.Flags().Bool("persist", false, "write every fused result into the registry")
	searchCmd.Flags().String("save", "", "write query and results to a YAML file")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	searchCmd.Flags().Bool("csl", false, "output results as CSL-YAML bibliography entries")

	rootCmd.AddCommand(searchCmd)
}
