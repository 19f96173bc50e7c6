package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterAll registers the browse, search, load_note, journal and reindex
// tools, plus save_note when config.ReadWrite is set. journal creates
// today's entry when it is missing, whether or not ReadWrite is set.
func RegisterAll(s *server.MCPServer, config Config) {
	browseTool := mcp.NewTool("browse",
		mcp.WithDescription("Stream the cached index under a path. Response: {entries:[{kind,path,title?,size?,modified?}]}"),
		mcp.WithString("path", mcp.Description("Vault-relative path to browse (default: vault root)")),
		mcp.WithBoolean("recursive", mcp.Description("Descend into subdirectories (default false)")),
	)
	s.AddTool(browseTool, BrowseTool(config))

	searchTool := mcp.NewTool("search",
		mcp.WithDescription("Ranked search over the cache: exact title, title-prefix, substring, then fuzzy. Response: {query,hits:[{path,title}]}"),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search text; an empty query is rejected with an error")),
	)
	s.AddTool(searchTool, SearchTool(config))

	loadTool := mcp.NewTool("load_note",
		mcp.WithDescription("Read a note's raw text. Response: {path,content}"),
		mcp.WithString("path", mcp.Required(), mcp.Description("Vault-relative note path (.md assumed if the extension is omitted)")),
	)
	s.AddTool(loadTool, LoadNoteTool(config))

	journalTool := mcp.NewTool("journal",
		mcp.WithDescription("Load today's journal entry, creating it with a title heading if it doesn't exist. Response: {path,content}"),
	)
	s.AddTool(journalTool, JournalTool(config))

	reindexTool := mcp.NewTool("reindex",
		mcp.WithDescription("Run a validation pass over the cache, picking up filesystem changes. Response: {added,updated,deleted,nonCritical}"),
		mcp.WithBoolean("full", mcp.Description("Re-read and re-hash every note instead of trusting size/mtime (default false)")),
	)
	s.AddTool(reindexTool, IndexTool(config))

	if !config.ReadWrite {
		return
	}

	saveTool := mcp.NewTool("save_note",
		mcp.WithDescription("Write a note's text and re-index it. With create=true, fails if the note already exists. Response: {path,content}"),
		mcp.WithString("path", mcp.Required(), mcp.Description("Vault-relative note path (.md assumed if the extension is omitted)")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Full replacement text for the note")),
		mcp.WithBoolean("create", mcp.Description("Fail instead of overwriting if the note already exists")),
	)
	s.AddTool(saveTool, SaveNoteTool(config))
}
