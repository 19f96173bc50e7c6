// Command vault-mcp runs a Model Context Protocol server exposing pkg/vault
// as tools over stdio, mirroring the teacher's cmd/mcp.go.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/mark3labs/mcp-go/server"

	"github.com/kimun-go/vaultcore/internal/mcpserver"
	"github.com/kimun-go/vaultcore/pkg/vault"
)

func main() {
	vaultRoot := flag.String("vault", ".", "path to the vault root")
	readWrite := flag.Bool("read-write", false, "enable the save_note tool")
	flag.Parse()

	ctx := context.Background()
	v, err := vault.Open(ctx, *vaultRoot, vault.Options{})
	if err != nil {
		log.Fatalf("failed to open vault: %v", err)
	}
	defer v.Close()

	s := server.NewMCPServer(
		"vaultcore",
		"v0.1.0",
		server.WithToolCapabilities(false),
		server.WithInstructions("Tools for browsing, searching, reading and (with --read-write) writing notes in a cached vault index."),
	)

	mcpserver.RegisterAll(s, mcpserver.Config{Vault: v, ReadWrite: *readWrite})

	if err := server.ServeStdio(s); err != nil {
		log.Fatalf("mcp server error: %v", err)
	}
}
