// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.StringFlag{
			Name:  "env-file",
			Usage: "Path to a dotenv file with credentials",
			Value: ".env",
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "Enable debug logging",
		},
	}
}

// targetFlags select the chart and playlist, overriding config.toml.
func targetFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "genre",
			Aliases: []string{"g"},
			Usage:   "Beatport genre id (default: beatport.genre_id)",
		},
		&cli.IntFlag{
			Name:    "top",
			Aliases: []string{"n"},
			Usage:   "Number of chart entries (default: beatport.top_n)",
		},
	}
}

// syncCommand reconciles the playlist with the chart.
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Bring the YouTube playlist in line with the Beatport chart",
		Flags: append(targetFlags(),
			&cli.StringFlag{
				Name:    "playlist",
				Aliases: []string{"p"},
				Usage:   "YouTube playlist id (default: youtube.playlist_id)",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Show what would change without touching the playlist",
			},
			&cli.BoolFlag{
				Name:  "tui",
				Usage: "Show progress in the interactive monitor",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the result as JSON",
			},
		),
		Action: r.Sync,
	}
}

// chartCommand fetches and exports the chart.
func chartCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "chart",
		Usage: "Fetch a Beatport genre chart",
		Flags: append(targetFlags(),
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: txt, csv, md or json",
				Value:   "txt",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write to a file instead of stdout",
			},
			&cli.BoolFlag{
				Name:  "list-genres",
				Usage: "List Beatport genres instead of fetching a chart",
			},
			&cli.StringFlag{
				Name:  "track",
				Usage: "Show one Beatport track with its search query and playlist tag",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output --track as JSON",
			},
		),
		Action: r.Chart,
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:    "youtube",
				Aliases: []string{"yt"},
				Usage:   "Authorize chartsync to manage your YouTube playlists",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the consent URL instead of opening a browser",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for the browser callback",
						Value: authTimeout,
					},
				},
				Action: r.AuthYouTube,
			},
			{
				Name:   "status",
				Usage:  "Show which credentials are configured",
				Action: r.AuthStatus,
			},
		},
	}
}

// setupCommand handles setup operations for configuration and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config.toml template",
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize the run journal database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Revert the most recent migration",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// historyCommand lists journaled runs.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List past sync runs",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of runs to show",
				Value: 20,
			},
			&cli.StringFlag{
				Name:  "run",
				Usage: "Show the item outcomes of one run",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.History,
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Browse the chart and run a sync interactively",
		Flags: append(targetFlags(),
			&cli.StringFlag{
				Name:    "playlist",
				Aliases: []string{"p"},
				Usage:   "YouTube playlist id (default: youtube.playlist_id)",
			},
		),
		Action: r.TUI,
	}
}
