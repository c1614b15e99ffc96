package main

import (
	"fmt"
	"os"

	"lectern/config"
	"lectern/internal/cli"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	return cli.NewRootCmd(cfg).Execute()
}
