// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/pdiddy/paperdex/internal/httputil"
	"github.com/pdiddy/paperdex/internal/registry"
	"github.com/pdiddy/paperdex/internal/search"
	"github.com/pdiddy/paperdex/pkg/types"
)

// loadConfig builds the runtime configuration from the config file, the
// PAPERDEX_* environment, and the .secrets/ directory, in that precedence.
func loadConfig() types.Config {
	viper.SetDefault("search.timeout", "30s")
	viper.SetDefault("search.user_agent", "paperdex/"+version)
	viper.SetDefault("search.max_results", 20)
	viper.SetDefault("search.enable_arxiv", true)
	viper.SetDefault("search.enable_semantic_scholar", true)
	viper.SetDefault("search.enable_openalex", true)
	viper.SetDefault("search.requests_per_second", 2.0)
	viper.SetDefault("fetch.dir", "pdfs")
	viper.SetDefault("store.db_path", "paperdex.db")

	cfg := types.Config{
		Search: types.SearchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("search.timeout"),
				UserAgent: viper.GetString("search.user_agent"),
			},
			MaxResults:            viper.GetInt("search.max_results"),
			EnableArxiv:           viper.GetBool("search.enable_arxiv"),
			EnableSemanticScholar: viper.GetBool("search.enable_semantic_scholar"),
			EnableOpenAlex:        viper.GetBool("search.enable_openalex"),
			SemanticScholarAPIKey: secretDefault("semantic-scholar-api-key", viper.GetString("search.semantic_scholar_api_key")),
			OpenAlexEmail:         secretDefault("openalex-email", viper.GetString("search.openalex_email")),
			RequestsPerSecond:     viper.GetFloat64("search.requests_per_second"),
		},
		Fetch: types.FetchConfig{
			Dir: viper.GetString("fetch.dir"),
		},
		Store: types.StoreConfig{
			DBPath: viper.GetString("store.db_path"),
		},
	}
	if db, _ := rootCmd.PersistentFlags().GetString("db"); db != "" {
		cfg.Store.DBPath = db
	}
	return cfg
}

// buildAdapters constructs one adapter per enabled source, each with its own
// rate-limited client so one API's budget never starves another.
func buildAdapters(cfg types.SearchConfig) []search.Adapter {
	newClient := func() *httputil.Client {
		return httputil.NewClient(cfg.Timeout, cfg.RequestsPerSecond)
	}

	var adapters []search.Adapter
	if cfg.EnableArxiv {
		adapters = append(adapters, &search.ArxivAdapter{Client: newClient()})
	}
	if cfg.EnableSemanticScholar {
		adapters = append(adapters, &search.SemanticScholarAdapter{
			Client: newClient(),
			APIKey: cfg.SemanticScholarAPIKey,
		})
	}
	if cfg.EnableOpenAlex {
		adapters = append(adapters, &search.OpenAlexAdapter{
			Client: newClient(),
			Email:  cfg.OpenAlexEmail,
		})
	}
	return adapters
}

// openRegistry opens the store and wires the resolver and registry around it.
// The caller owns the store and must Close it.
func openRegistry(cfg types.Config) (*registry.Store, *registry.Registry, error) {
	store, err := registry.Open(cfg.Store)
	if err != nil {
		return nil, nil, fmt.Errorf("opening registry: %w", err)
	}
	reg := registry.New(store, registry.NewResolver(store), os.Stderr)
	return store, reg, nil
}
