// =============================================================================
// Merchant Feed Ingest - Validate Command
// =============================================================================
//
// This file defines the 'validate' command. It loads every configuration
// file and checks each merchant's column mapping against the canonical schema
// without touching any feed.
//
// COMMAND USAGE:
//   feedingest validate
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ginjaninja78/merchant-feed-ingest/internal/config"
	"github.com/ginjaninja78/merchant-feed-ingest/internal/converter"
	"github.com/ginjaninja78/merchant-feed-ingest/internal/validation"
	"github.com/spf13/cobra"
)

// validateCmd represents the 'validate' command.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check configuration and merchant mappings without processing",
	Long: `The validate command loads the main configuration and every merchant
configuration, resolves each merchant's column mapping (including XLSX mapping
templates) and checks that every mapped canonical field has validation rules.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

// runValidate checks every merchant and reports all problems at once.
func runValidate(out io.Writer) error {
	mainConfig, err := loadMainConfig()
	if err != nil {
		return err
	}

	schema, err := mainConfig.Schema()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Canonical schema: %d field(s), types: %s\n", len(schema), strings.Join(validation.TypeNames(), ", "))

	merchants, err := config.LoadMerchantConfigs(mainConfig.MerchantsDir)
	if err != nil {
		return fmt.Errorf("failed to load merchant configs: %w", err)
	}
	if len(merchants) == 0 {
		return fmt.Errorf("no merchant configurations in %s", mainConfig.MerchantsDir)
	}

	ids := make([]int64, 0, len(merchants))
	for id := range merchants {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	failed := 0
	for _, id := range ids {
		merchant := merchants[id]
		if err := checkMerchant(merchant, mainConfig.TemplatesDir, schema); err != nil {
			failed++
			fmt.Fprintf(out, "  ✗ %d (%s): %v\n", id, merchant.Source(), err)
			continue
		}
		fmt.Fprintf(out, "  ✓ %d (%s)\n", id, merchant.MerchantName)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d merchant configuration(s) invalid", failed, len(ids))
	}
	fmt.Fprintf(out, "All %d merchant configuration(s) valid\n", len(ids))
	return nil
}

// checkMerchant resolves the merchant's mapping and builds a restructurer.
func checkMerchant(merchant *config.MerchantConfig, templatesDir string, schema validation.Schema) error {
	mapping, err := merchant.ResolveMapping(templatesDir)
	if err != nil {
		return err
	}
	_, err = converter.NewRestructurer(mapping, schema, merchant.Statics())
	return err
}
