// Package mcpserver exposes pkg/vault operations as Model Context Protocol
// tools, mirroring the teacher's pkg/mcp: one exported constructor per tool,
// a Config carrying shared dependencies, and a RegisterAll entry point.
package mcpserver

import "github.com/kimun-go/vaultcore/pkg/vault"

// Config carries the dependencies every tool handler closes over.
type Config struct {
	Vault     *vault.NoteVault
	ReadWrite bool
}
