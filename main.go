// =============================================================================
// AR Export - Main Entry Point
// =============================================================================
//
// This is the main entry point for the AR Export CLI application. It
// initializes the Cobra CLI framework and delegates command execution to
// the cmd package.
//
// USAGE:
//   arexport run       - Run the full export pipeline for one entity
//   arexport convert   - Convert exported flat text files offline
//   arexport version   - Display the application version
//
// ARCHITECTURE:
//   This application follows a modular design where:
//   - cmd/           : Contains all CLI command definitions (Cobra)
//   - internal/      : Contains core business logic (not for external import)
//   - pkg/           : Contains shared utilities
//   - rules/         : Contains per-entity YAML processing rules
//
// =============================================================================

package main

import (
	"github.com/pgaborik/arexport/cmd"
)

// main is the entry point of the application.
// It simply calls the Execute function from the cmd package, which
// initializes and runs the Cobra CLI.
func main() {
	cmd.Execute()
}
