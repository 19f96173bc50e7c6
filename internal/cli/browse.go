package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kimun-go/vaultcore/pkg/browse"
	"github.com/kimun-go/vaultcore/pkg/vault"
	"github.com/kimun-go/vaultcore/pkg/vaultpath"
)

var browseRecursive bool

var browseCmd = &cobra.Command{
	Use:   "browse [path]",
	Short: "Stream notes and directories under path as the walk proceeds",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		v, err := vault.Open(ctx, vaultRoot, vault.Options{})
		if err != nil {
			return err
		}
		defer v.Close()

		start := vaultpath.Root()
		if len(args) == 1 {
			start, err = vaultpath.FromString(args[0])
			if err != nil {
				return err
			}
		}

		receiver := make(chan browse.SearchResult, 32)
		errCh := make(chan error, 1)
		go func() {
			errCh <- v.BrowseVault(ctx, vault.BrowseOptions{
				Path: start, Recursive: browseRecursive,
				ValidationMode: vault.ModeFast, Receiver: receiver,
			})
		}()

		for r := range receiver {
			switch r.Kind {
			case browse.ResultNote:
				fmt.Printf("note  %s\t%s\n", r.Path.Display(), r.Note.Title)
			case browse.ResultDirectory:
				fmt.Printf("dir   %s/\n", r.Path.Display())
			case browse.ResultAttachment:
				fmt.Printf("file  %s\n", r.Path.Display())
			}
		}
		return <-errCh
	},
}

func init() {
	browseCmd.Flags().BoolVarP(&browseRecursive, "recursive", "r", false, "descend into subdirectories")
	rootCmd.AddCommand(browseCmd)
}
