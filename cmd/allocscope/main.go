package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/roach88/allocscope/internal/cli"
)

func main() {
	// ALLOCSCOPE_* overrides may come from a .env file next to the corpus.
	_ = godotenv.Load()

	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "allocscope:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
