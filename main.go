package main

import (
	"log/slog"
	"os"

	"github.com/nstokely/echotube/cmd"
	"github.com/nstokely/echotube/internal/conf"
	"github.com/nstokely/echotube/internal/logging"
)

func main() {
	logging.Init(slog.LevelInfo)

	// Configuration errors are fatal before any measurement can start
	settings, err := conf.Load()
	if err != nil {
		logging.Fatal("invalid configuration", "error", err)
	}

	rootCmd := cmd.RootCommand(settings)
	if err := rootCmd.Execute(); err != nil {
		logging.Error("command failed", "error", err)
		os.Exit(1)
	}
}
