package main

import (
	"context"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/okian/momentum/internal/config"
	"github.com/urfave/cli/v3"
)

func newCommand() *cli.Command {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to YAML config file",
		Sources: cli.EnvVars(config.EnvConfigFile),
	}
	return &cli.Command{
		Name:  "momentum",
		Usage: "Behavioral momentum signals: EMA, velocity, streaks, phases and scores",
		Flags: []cli.Flag{configFlag},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP service",
				Action: serve,
			},
			{
				Name:   "evaluate",
				Usage:  "Run the pipeline over a YAML daily history and print the result as JSON",
				Action: evaluate,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to the history file (values, events, task_type)",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "task-type",
						Usage: "Override the task type of the history file",
					},
				},
			},
		},
	}
}

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
