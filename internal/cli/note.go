package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kimun-go/vaultcore/pkg/vault"
	"github.com/kimun-go/vaultcore/pkg/vaultpath"
)

var loadCmd = &cobra.Command{
	Use:   "load <path>",
	Short: "Print a note's raw text to stdout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		v, err := vault.Open(ctx, vaultRoot, vault.Options{})
		if err != nil {
			return err
		}
		defer v.Close()

		p, err := vaultpath.FromString(args[0])
		if err != nil {
			return err
		}
		text, err := v.LoadNote(ctx, p.WithExtensionIfMissing(".md"))
		if err != nil {
			return err
		}
		fmt.Print(text)
		return nil
	},
}

var saveCmd = &cobra.Command{
	Use:   "save <path>",
	Short: "Overwrite a note's text with stdin and re-index it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeNote(args[0], false)
	},
}

var createCmd = &cobra.Command{
	Use:   "create <path>",
	Short: "Create a new note from stdin, failing if it already exists",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeNote(args[0], true)
	},
}

func writeNote(arg string, create bool) error {
	ctx := context.Background()
	v, err := vault.Open(ctx, vaultRoot, vault.Options{})
	if err != nil {
		return err
	}
	defer v.Close()

	p, err := vaultpath.FromString(arg)
	if err != nil {
		return err
	}
	p = p.WithExtensionIfMissing(".md")

	raw, err := io.ReadAll(os.Stdin)
	if err != nil {
		return err
	}

	if create {
		return v.CreateNote(ctx, p, string(raw))
	}
	return v.SaveNote(ctx, p, string(raw))
}

func init() {
	rootCmd.AddCommand(loadCmd, saveCmd, createCmd)
}
