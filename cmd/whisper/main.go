// Package main provides the entry point for the whisper CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/DeanoC/AIWhisperer-sub003/cmd/whisper/commands"
)

func main() {
	// Optional .env for local development; absence is fine.
	_ = godotenv.Load()

	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
