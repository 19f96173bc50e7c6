// Package cli is the cobra-based collaborator surface over pkg/vault; it
// is a consumer of the core, not part of it (§1), mirroring how the
// teacher's cmd package sits outside pkg/obsidian.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var vaultRoot string

var rootCmd = &cobra.Command{
	Use:     "vaultcli",
	Short:   "vaultcli - browse, search and sync a vault's cached index",
	Version: "v0.1.0",
	Long:    "vaultcli - CLI to open, index, browse, search, and journal a note vault",
}

// Execute runs the CLI, exiting the process with status 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "vaultcli: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&vaultRoot, "vault", "v", ".", "path to the vault root")
}
