package main

import (
	"log/slog"
	"os"

	"coinsync/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		slog.Error("❌ coinsync failed", slog.Any("error", err))
		os.Exit(1)
	}
}
