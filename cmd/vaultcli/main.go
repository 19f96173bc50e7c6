// Command vaultcli is a thin collaborator binary exercising pkg/vault: it
// is not part of the core (§1), the same way the teacher's cmd/ package
// sits outside pkg/obsidian.
package main

import "github.com/kimun-go/vaultcore/internal/cli"

func main() {
	cli.Execute()
}
