package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kimun-go/vaultcore/pkg/vault"
)

var journalCmd = &cobra.Command{
	Use:     "journal",
	Aliases: []string{"daily"},
	Short:   "Open (creating if absent) today's journal note",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		v, err := vault.Open(ctx, vaultRoot, vault.Options{})
		if err != nil {
			return err
		}
		defer v.Close()

		path, text, err := v.JournalEntry(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%s\n\n%s", path.Display(), text)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(journalCmd)
}
