package main

import (
	"os"

	"github.com/autoclaude/autoclaude/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
