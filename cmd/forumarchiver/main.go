// Command forumarchiver runs the forum link archive pipeline: it polls a
// Discourse-style feed, extracts outbound links, and drives a worker pool
// that captures each link's content into the Local Store and Object Store.
//
// Subcommands follow the teacher's internal/*/actions.go shape (one
// ActionFunc per cli.Command) generalized into an assembled urfave/cli/v2
// App, since the teacher itself never wires its actions into one.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "forumarchiver",
		Usage: "archive outbound links posted to a forum feed",
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			backupCommand(),
			resetAuthCommand(),
			statusCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("forumarchiver exited with error", "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLogger builds the shared structured logger, level controlled by the
// LOG_LEVEL configuration value (§6.4).
func newLogger(levelName string) *slog.Logger {
	level := slog.LevelInfo
	switch levelName {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
