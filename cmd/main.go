package main

import (
	"context"
	"os"

	"cratedex/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("ignoring unreadable config.toml", "err", err)
		}
	}

	runner := NewRunner(RunnerOpts{
		Config: config,
		Logger: logger,
	})

	app := rootCommand(runner)
	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Error("command failed", "err", err)
		os.Exit(1)
	}
}
