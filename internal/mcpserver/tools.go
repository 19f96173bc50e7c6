package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kimun-go/vaultcore/pkg/browse"
	"github.com/kimun-go/vaultcore/pkg/vault"
	"github.com/kimun-go/vaultcore/pkg/vaultpath"
)

type browseEntry struct {
	Kind     string `json:"kind"`
	Path     string `json:"path"`
	Title    string `json:"title,omitempty"`
	Size     int64  `json:"size,omitempty"`
	Modified int64  `json:"modified,omitempty"`
}

type browseResponse struct {
	Entries []browseEntry `json:"entries"`
}

// BrowseTool implements the browse tool: stream the cache under a path.
func BrowseTool(config Config) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		pathArg, _ := args["path"].(string)
		recursive, _ := args["recursive"].(bool)

		start := vaultpath.Root()
		if pathArg != "" {
			p, err := vaultpath.FromString(pathArg)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("invalid path: %s", err)), nil
			}
			start = p
		}

		receiver := make(chan browse.SearchResult, 32)
		errCh := make(chan error, 1)
		go func() {
			errCh <- config.Vault.BrowseVault(ctx, vault.BrowseOptions{
				Path: start, Recursive: recursive,
				ValidationMode: vault.ModeFast, Receiver: receiver,
			})
		}()

		var payload browseResponse
		for r := range receiver {
			entry := browseEntry{Path: r.Path.Display(), Size: r.Size, Modified: r.Modified}
			switch r.Kind {
			case browse.ResultNote:
				entry.Kind = "note"
				entry.Title = r.Note.Title
			case browse.ResultDirectory:
				entry.Kind = "directory"
			case browse.ResultAttachment:
				entry.Kind = "attachment"
			}
			payload.Entries = append(payload.Entries, entry)
		}
		if err := <-errCh; err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("browse failed: %s", err)), nil
		}

		encoded, err := json.Marshal(payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("error marshaling browse result: %s", err)), nil
		}
		return mcp.NewToolResultText(string(encoded)), nil
	}
}

type searchHit struct {
	Path  string `json:"path"`
	Title string `json:"title,omitempty"`
}

type searchResponse struct {
	Query string      `json:"query"`
	Hits  []searchHit `json:"hits"`
}

// SearchTool implements the search tool: ranked title/path lookup.
func SearchTool(config Config) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		query, _ := args["query"].(string)
		if query == "" {
			return mcp.NewToolResultError("query must not be empty"), nil
		}

		results, err := config.Vault.SearchNotes(ctx, query)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search failed: %s", err)), nil
		}

		payload := searchResponse{Query: query}
		for _, r := range results {
			payload.Hits = append(payload.Hits, searchHit{Path: r.Note.Path, Title: r.Content.Title})
		}

		encoded, err := json.Marshal(payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("error marshaling search result: %s", err)), nil
		}
		return mcp.NewToolResultText(string(encoded)), nil
	}
}

type noteResponse struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// LoadNoteTool implements the load_note tool: return a note's raw text.
func LoadNoteTool(config Config) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		pathArg, _ := args["path"].(string)
		if pathArg == "" {
			return mcp.NewToolResultError("path must not be empty"), nil
		}

		p, err := vaultpath.FromString(pathArg)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid path: %s", err)), nil
		}
		p = p.WithExtensionIfMissing(".md")

		text, err := config.Vault.LoadNote(ctx, p)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("load_note failed: %s", err)), nil
		}

		encoded, err := json.Marshal(noteResponse{Path: p.Display(), Content: text})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("error marshaling note: %s", err)), nil
		}
		return mcp.NewToolResultText(string(encoded)), nil
	}
}

// SaveNoteTool implements the save_note tool: overwrite a note and re-index it.
// Only registered when the server is started with --read-write.
func SaveNoteTool(config Config) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if !config.ReadWrite {
			return mcp.NewToolResultError("save_note requires the server to be started with --read-write"), nil
		}
		args := request.GetArguments()
		pathArg, _ := args["path"].(string)
		content, _ := args["content"].(string)
		create, _ := args["create"].(bool)
		if pathArg == "" {
			return mcp.NewToolResultError("path must not be empty"), nil
		}

		p, err := vaultpath.FromString(pathArg)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid path: %s", err)), nil
		}
		p = p.WithExtensionIfMissing(".md")

		if create {
			err = config.Vault.CreateNote(ctx, p, content)
		} else {
			err = config.Vault.SaveNote(ctx, p, content)
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("save_note failed: %s", err)), nil
		}

		encoded, _ := json.Marshal(noteResponse{Path: p.Display(), Content: content})
		return mcp.NewToolResultText(string(encoded)), nil
	}
}

type journalResponse struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// JournalTool implements the journal tool: load or create today's entry.
func JournalTool(config Config) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, text, err := config.Vault.JournalEntry(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("journal failed: %s", err)), nil
		}

		encoded, err := json.Marshal(journalResponse{Path: path.Display(), Content: text})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("error marshaling journal entry: %s", err)), nil
		}
		return mcp.NewToolResultText(string(encoded)), nil
	}
}

type indexResponse struct {
	Added       int `json:"added"`
	Updated     int `json:"updated"`
	Deleted     int `json:"deleted"`
	NonCritical int `json:"nonCritical"`
}

// IndexTool implements the reindex tool: run a validation pass over the cache.
func IndexTool(config Config) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		full, _ := args["full"].(bool)

		mode := vault.ModeFast
		if full {
			mode = vault.ModeFull
		}
		report, err := config.Vault.IndexNotes(ctx, mode)
		if err != nil && !errors.Is(err, context.Canceled) {
			return mcp.NewToolResultError(fmt.Sprintf("reindex failed: %s", err)), nil
		}

		encoded, err := json.Marshal(indexResponse{
			Added:       report.Added,
			Updated:     report.Updated,
			Deleted:     report.Deleted,
			NonCritical: len(report.NonCritical),
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("error marshaling report: %s", err)), nil
		}
		return mcp.NewToolResultText(string(encoded)), nil
	}
}
