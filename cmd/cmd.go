// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, ingestCommand, statsCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// setupCommand initializes the database and platform credentials
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Initialize database and run migrations",
		Flags:  []cli.Flag{configFlag()},
		Action: r.SetupDatabase,
		Commands: []*cli.Command{
			{
				Name:  "tiktok",
				Usage: "Store the TikTok browser session token from a copied cURL command",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command copied from browser dev tools",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "File containing the copied cURL command",
					},
					&cli.StringFlag{
						Name:  "cookie",
						Usage: "Session cookie name to extract",
						Value: "msToken",
					},
				},
				Action: r.SetupTikTok,
			},
		},
	}
}

// ingestCommand runs platform ingestion
func ingestCommand(r *Runner) *cli.Command {
	runFlags := []cli.Flag{
		configFlag(),
		&cli.IntFlag{
			Name:  "page-size",
			Usage: "Items requested per API page",
		},
		&cli.IntFlag{
			Name:  "max-pages",
			Usage: "Stop after this many pages (0 = unlimited)",
		},
		&cli.FloatFlag{
			Name:  "rate-limit",
			Usage: "Page fetches per second",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output run summary as JSON",
		},
	}

	return &cli.Command{
		Name:  "ingest",
		Usage: "Pull platform metadata into the tracker database",
		Commands: []*cli.Command{
			{
				Name:   "spotify",
				Usage:  "Ingest new release albums and tracks from Spotify",
				Flags:  runFlags,
				Action: r.IngestSpotify,
			},
			{
				Name:   "tiktok",
				Usage:  "Ingest trending videos, sounds, and engagement stats from TikTok",
				Flags:  runFlags,
				Action: r.IngestTikTok,
			},
			{
				Name:   "all",
				Usage:  "Ingest both platforms concurrently",
				Flags:  runFlags,
				Action: r.IngestAll,
			},
		},
	}
}

// statsCommand reports database contents
func statsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Summarize tracked artists, tracks, videos, and snapshots",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: txt, json, csv, markdown",
				Value:   "txt",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write report to a file instead of stdout",
			},
			&cli.IntFlag{
				Name:  "top",
				Usage: "Number of most-used sounds to include",
				Value: 10,
			},
		},
		Action: r.Stats,
	}
}

// tuiCommand launches the interactive dashboard
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Launch the interactive ingestion dashboard",
		Flags:  []cli.Flag{configFlag()},
		Action: r.TUI,
	}
}
