// =============================================================================
// Merchant Feed Ingest - Main Entry Point
// =============================================================================
//
// USAGE:
//   feedingest process   - Validate one merchant feed and write its artifacts
//   feedingest validate  - Validate configuration files without processing
//   feedingest version   - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Core logic (validation, converter, parsers, writers)
//   - pkg/       : Shared file utilities
//   - merchants/ : Per-merchant YAML configurations
//   - templates/ : Optional XLSX column mapping templates
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/merchant-feed-ingest/cmd"
)

func main() {
	cmd.Execute()
}
