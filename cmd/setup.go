package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/colinpmaloney/Track-Tracker-Backend/internal/shared"
)

// loadConfig resolves the config for a command invocation: the --config file
// when present, the runner's config otherwise.
func (r *Runner) loadConfig(cmd *cli.Command) *shared.Config {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err == nil {
		config, err := shared.LoadConfig(configPath)
		if err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			return r.config
		}
		return config
	}

	return r.config
}

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			config = shared.DefaultConfig()
		} else {
			r.logger.Info("config file created", "path", configPath)
			if config, err = shared.LoadConfig(configPath); err != nil {
				r.logger.Warn("failed to load created config, using defaults", "error", err)
				config = shared.DefaultConfig()
			}
		}
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := r.openDB(config)
	if err != nil {
		return err
	}
	defer db.Close()

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	return nil
}

// SetupTikTok stores the TikTok browser session token in the config file.
//
// Accepts a cURL command copied from the browser's dev tools while logged in
// to TikTok, and extracts the session cookie the proxy needs.
func (r *Runner) SetupTikTok(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")
	cookieName := cmd.String("cookie")

	if curlCmd == "" && curlFile == "" {
		return fmt.Errorf("%w: either --curl or --curl-file must be provided", shared.ErrMissingArgument)
	}

	if curlCmd != "" && curlFile != "" {
		return fmt.Errorf("%w: cannot specify both --curl and --curl-file", shared.ErrInvalidArgument)
	}

	r.logger.Info("parsing cURL command for TikTok session cookie")

	var curlHeaders *shared.CurlHeaders
	var err error

	if curlFile != "" {
		curlHeaders, err = shared.ParseCurlFile(curlFile)
		if err != nil {
			return fmt.Errorf("failed to parse cURL file: %w", err)
		}
		r.logger.Info("parsed cURL from file", "file", curlFile)
	} else {
		curlHeaders, err = shared.ParseCurlCommand([]byte(curlCmd))
		if err != nil {
			return fmt.Errorf("failed to parse cURL command: %w", err)
		}
		r.logger.Info("parsed cURL command")
	}

	token := curlHeaders.SessionToken(cookieName)
	if token == "" {
		return fmt.Errorf("%w: cookie %q not found in cURL command", shared.ErrInvalidCredentials, cookieName)
	}

	config := r.loadConfig(cmd)
	config.Credentials.TikTok.SessionToken = token

	if err := shared.SaveConfig(configPath, config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	r.logger.Info("session token saved", "cookie", cookieName, "length", len(token))

	r.writePlain("✓ TikTok session token configured successfully\n")
	r.writePlain("Token saved to: %s\n", configPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Run 'trktrk ingest tiktok' to pull trending videos\n")

	return nil
}
