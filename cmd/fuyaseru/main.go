package main

import (
	"os"

	"github.com/fuyaseru/brain/cmd/fuyaseru/commands"
)

// main is the entry point for the fuyaseru CLI
// ⭐ 統合 CLI: go run ./cmd/fuyaseru [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
