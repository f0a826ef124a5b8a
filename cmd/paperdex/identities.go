// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperdex/internal/registry"
	"github.com/pdiddy/paperdex/pkg/types"
)

var identitiesCmd = &cobra.Command{
	Use:   "identities <reference>",
	Short: "List, link, or unlink external identities of a paper",
	Long: `Identities shows every (source, external id) pair mapped to the paper
the reference resolves to. --link adds a mapping and --unlink removes one;
both take the form source:external_id, e.g. arxiv:1706.03762. Linking an
identity that already points at a different paper repoints it and logs the
conflict.`,
	Args: cobra.ExactArgs(1),
	RunE: runIdentities,
}

func runIdentities(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	store, _, err := openRegistry(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	resolver := registry.NewResolver(store)
	id, err := resolver.Resolve(ctx, args[0], registry.Hints{})
	if err != nil {
		return err
	}
	if id == 0 {
		return fmt.Errorf("no canonical paper matches %q", args[0])
	}

	if link, _ := cmd.Flags().GetString("link"); link != "" {
		identity, err := parseIdentity(link)
		if err != nil {
			return err
		}
		created, err := store.UpsertIdentity(ctx, id, identity, os.Stderr)
		if err != nil {
			return err
		}
		if created {
			fmt.Printf("linked %s:%s to paper %d\n", identity.Source, identity.ExternalID, id)
		}
	}

	if unlink, _ := cmd.Flags().GetString("unlink"); unlink != "" {
		identity, err := parseIdentity(unlink)
		if err != nil {
			return err
		}
		if err := store.DeleteIdentity(ctx, identity); err != nil {
			return err
		}
		fmt.Printf("unlinked %s:%s\n", identity.Source, identity.ExternalID)
	}

	ids, err := store.ListIdentities(ctx, id)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Printf("paper %d has no mapped identities\n", id)
		return nil
	}
	for _, identity := range ids {
		fmt.Printf("%s:%s\n", identity.Source, identity.ExternalID)
	}
	return nil
}

func parseIdentity(s string) (types.Identity, error) {
	source, externalID, ok := strings.Cut(s, ":")
	if !ok || source == "" || externalID == "" {
		return types.Identity{}, fmt.Errorf("invalid identity %q: want source:external_id", s)
	}
	return types.Identity{Source: types.Source(source), ExternalID: externalID}, nil
}

func init() {
	identitiesCmd.Flags().String("link", "", "add a source:external_id mapping to the paper")
	identitiesCmd.Flags().String("unlink", "", "remove a source:external_id mapping")

	rootCmd.AddCommand(identitiesCmd)
}
