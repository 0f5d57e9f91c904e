package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/colinpmaloney/Track-Tracker-Backend/internal/services"
	"github.com/colinpmaloney/Track-Tracker-Backend/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	var catalogService services.CatalogService
	var videoService services.VideoService

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	if config.Credentials.Spotify.ClientID != "" && config.Credentials.Spotify.ClientSecret != "" {
		if svc, err := services.NewSpotifyService(config.Credentials.Spotify.Map()); err == nil {
			catalogService = svc
		}
	}

	videoService = services.NewTikTokService(config.Credentials.TikTok.ProxyURL, config.Credentials.TikTok.SessionToken)

	runner := NewRunner(RunnerOpts{
		Config:  config,
		Catalog: catalogService,
		Video:   videoService,
		Logger:  logger,
	})

	app := &cli.Command{
		Name:     "trktrk",
		Usage:    "Track song metadata and engagement across Spotify & TikTok",
		Version:  "0.2.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
