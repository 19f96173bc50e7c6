package cli

import (
	"context"
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/skratchdot/open-golang/open"
	"github.com/spf13/cobra"

	"github.com/kimun-go/vaultcore/pkg/browse"
	"github.com/kimun-go/vaultcore/pkg/store"
	"github.com/kimun-go/vaultcore/pkg/vault"
	"github.com/kimun-go/vaultcore/pkg/vaultpath"
)

var (
	searchOpenResult bool
	searchCopyPath   bool
)

var searchCmd = &cobra.Command{
	Use:     "search [query]",
	Aliases: []string{"s"},
	Short:   "Search the cached index, ranked by title/path match",
	Long: `Runs a ranked search over the cache: exact title match first, then
title-prefix, then substring, then fuzzy match. With no query it opens an
interactive fuzzy finder over every cached note.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		v, err := vault.Open(ctx, vaultRoot, vault.Options{})
		if err != nil {
			return err
		}
		defer v.Close()

		query := ""
		if len(args) == 1 {
			query = args[0]
		}

		var results []store.SearchResult
		if query != "" {
			results, err = v.SearchNotes(ctx, query)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Println("no matches")
				return nil
			}
		} else {
			results, err = allNotes(ctx, v)
			if err != nil {
				return err
			}
		}

		idx, err := pickResult(results)
		if err != nil {
			return err
		}
		chosen := results[idx]

		if searchCopyPath {
			return clipboard.WriteAll(chosen.Note.Path)
		}
		if searchOpenResult {
			return open.Run(v.Root() + "/" + chosen.Note.Path)
		}
		fmt.Println(chosen.Note.Path)
		return nil
	},
}

// allNotes browses the whole vault (no query filtering) so the interactive
// fuzzy finder has something to page through when invoked with no query.
func allNotes(ctx context.Context, v *vault.NoteVault) ([]store.SearchResult, error) {
	receiver := make(chan browse.SearchResult, 32)
	errCh := make(chan error, 1)
	go func() {
		errCh <- v.BrowseVault(ctx, vault.BrowseOptions{
			Path: vaultpath.Root(), Recursive: true,
			ValidationMode: vault.ModeNone, Receiver: receiver,
		})
	}()

	var out []store.SearchResult
	for r := range receiver {
		if r.Kind != browse.ResultNote {
			continue
		}
		out = append(out, store.SearchResult{
			Note:    store.NoteRow{Path: r.Path.Display(), Size: r.Size, Modified: r.Modified, Title: r.Note.Title, Hash: r.Note.Hash},
			Content: r.Note,
		})
	}
	return out, <-errCh
}

func pickResult(results []store.SearchResult) (int, error) {
	if len(results) == 1 {
		return 0, nil
	}
	return fuzzyfinder.Find(results, func(i int) string {
		r := results[i]
		if r.Content.Title != "" {
			return fmt.Sprintf("%s (%s)", r.Content.Title, r.Note.Path)
		}
		return r.Note.Path
	})
}

func init() {
	searchCmd.Flags().BoolVarP(&searchOpenResult, "open", "o", false, "open the selected note with the OS default handler")
	searchCmd.Flags().BoolVarP(&searchCopyPath, "copy", "c", false, "copy the selected note's path to the clipboard")
	rootCmd.AddCommand(searchCmd)
}
