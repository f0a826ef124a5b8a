// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the registry to YAML or JSON",
	Long: `Export writes every canonical record, including its identity mappings,
to a single file for archival or downstream tooling.`,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	store, _, err := openRegistry(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	format, _ := cmd.Flags().GetString("format")
	out, _ := cmd.Flags().GetString("out")

	ctx := context.Background()
	switch format {
	case "yaml", "":
		if out == "" {
			out = "paperdex-export.yaml"
		}
		if err := store.ExportYAML(ctx, out); err != nil {
			return err
		}
	case "json":
		if out == "" {
			out = "paperdex-export.json"
		}
		if err := store.ExportJSON(ctx, out); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}

	fmt.Println("Exported to", out)
	return nil
}

func init() {
	exportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	exportCmd.Flags().String("out", "", "output path (default: paperdex-export.<format>)")

	rootCmd.AddCommand(exportCmd)
}
