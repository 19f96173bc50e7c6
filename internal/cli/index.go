package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kimun-go/vaultcore/pkg/vault"
)

var (
	indexFull    bool
	indexRebuild bool
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Synchronize the cache with the vault's files on disk",
	Long: `Walks the vault and reconciles the cached index against disk.

By default this runs a Fast pass (trusting size+mtime). --full forces every
note to be re-read and re-hashed, catching external edits that preserve
mtime. --rebuild drops the cache entirely and rebuilds it from scratch.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		v, err := vault.Open(ctx, vaultRoot, vault.Options{})
		if err != nil {
			return err
		}
		defer v.Close()

		var report vault.IndexReport
		switch {
		case indexRebuild:
			report, err = v.RecreateIndex(ctx)
		case indexFull:
			report, err = v.IndexNotes(ctx, vault.ModeFull)
		default:
			report, err = v.IndexNotes(ctx, vault.ModeFast)
		}
		if err != nil {
			return err
		}
		fmt.Println(report.String())
		for _, nc := range report.NonCritical {
			fmt.Printf("warning: %v\n", nc)
		}
		return nil
	},
}

func init() {
	indexCmd.Flags().BoolVar(&indexFull, "full", false, "re-read and re-hash every note")
	indexCmd.Flags().BoolVar(&indexRebuild, "rebuild", false, "drop and rebuild the entire index")
	rootCmd.AddCommand(indexCmd)
}
