package mcpserver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kimun-go/vaultcore/pkg/vault"
	"github.com/kimun-go/vaultcore/pkg/vaultpath"
)

func openTestVault(t *testing.T) *vault.NoteVault {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.md"), []byte("# Hello\n\nbody"), 0o644))
	v, err := vault.Open(context.Background(), root, vault.Options{PoolSize: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = v.Close() })
	return v
}

func textContent(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, result.Content, 1)
	tc, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestRegisterAllReadOnly(t *testing.T) {
	s := server.NewMCPServer("test-vaultcore", "v0.0.0", server.WithToolCapabilities(false))
	v := openTestVault(t)
	RegisterAll(s, Config{Vault: v, ReadWrite: false})
}

func TestSearchToolReturnsHit(t *testing.T) {
	v := openTestVault(t)
	tool := SearchTool(Config{Vault: v})

	req := mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: map[string]any{"query": "hello"}}}
	resp, err := tool(context.Background(), req)
	require.NoError(t, err)

	var payload searchResponse
	require.NoError(t, json.Unmarshal([]byte(textContent(t, resp)), &payload))
	require.Len(t, payload.Hits, 1)
	assert.Equal(t, "a.md", payload.Hits[0].Path)
}

func TestSearchToolRejectsEmptyQuery(t *testing.T) {
	v := openTestVault(t)
	tool := SearchTool(Config{Vault: v})

	req := mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: map[string]any{}}}
	resp, err := tool(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, resp.IsError)
}

func TestLoadNoteToolReturnsContent(t *testing.T) {
	v := openTestVault(t)
	tool := LoadNoteTool(Config{Vault: v})

	req := mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: map[string]any{"path": "a.md"}}}
	resp, err := tool(context.Background(), req)
	require.NoError(t, err)

	var payload noteResponse
	require.NoError(t, json.Unmarshal([]byte(textContent(t, resp)), &payload))
	assert.Contains(t, payload.Content, "Hello")
}

func TestSaveNoteToolRequiresReadWrite(t *testing.T) {
	v := openTestVault(t)
	tool := SaveNoteTool(Config{Vault: v, ReadWrite: false})

	req := mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: map[string]any{
		"path": "a.md", "content": "# Replaced\n",
	}}}
	resp, err := tool(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, resp.IsError)
}

func TestSaveNoteToolWritesWhenReadWriteEnabled(t *testing.T) {
	v := openTestVault(t)
	tool := SaveNoteTool(Config{Vault: v, ReadWrite: true})

	req := mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: map[string]any{
		"path": "a.md", "content": "# Replaced\n",
	}}}
	resp, err := tool(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, resp.IsError)

	p, err := vaultpath.FromString("a.md")
	require.NoError(t, err)
	loaded, err := v.LoadNote(context.Background(), p)
	require.NoError(t, err)
	assert.Contains(t, loaded, "Replaced")
}

func TestJournalToolCreatesEntry(t *testing.T) {
	v := openTestVault(t)
	tool := JournalTool(Config{Vault: v})

	resp, err := tool(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)

	var payload journalResponse
	require.NoError(t, json.Unmarshal([]byte(textContent(t, resp)), &payload))
	assert.Contains(t, payload.Path, "daily/")
}
