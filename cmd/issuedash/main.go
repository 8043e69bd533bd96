package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/roeyazroel/issuedash/internal/config"
	"github.com/roeyazroel/issuedash/internal/githubapi"
	"github.com/roeyazroel/issuedash/internal/logger"
	"github.com/roeyazroel/issuedash/internal/tui"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, config.ErrMissingToken) {
			fmt.Fprintf(os.Stderr, "Please set the %s environment variable.\n", config.GitHubTokenEnv)
		}
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("issuedash", pflag.ContinueOnError)
	configPath := flags.StringP("config", "c", "", "path to the YAML config file")
	repo := flags.StringP("repo", "R", "", "repository as owner/name")
	logLevel := flags.String("log-level", "", "debug, info, warning or error")
	showVersion := flags.BoolP("version", "v", false, "print version and exit")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *showVersion {
		fmt.Println(VersionInfo())
		return nil
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if *repo != "" {
		if err := cfg.SetRepo(*repo); err != nil {
			return err
		}
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := logger.Init(cfg.LogFile, logger.ParseLevel(cfg.LogLevel)); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Close()

	logger.Info("Application starting")
	logger.Debug("Configuration: Repo=%s, APIEndpoint=%s, PageSize=%d, Timeout=%s",
		cfg.RepoSlug(), cfg.APIEndpoint, cfg.PageSize, cfg.Timeout)

	client := githubapi.NewClient(githubapi.ClientConfig{
		Token:     cfg.Token,
		Owner:     cfg.Owner,
		Repo:      cfg.Repo,
		Endpoint:  cfg.APIEndpoint,
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := tui.NewApp(client, cfg)
	if err := app.Run(ctx); err != nil {
		logger.ErrorWithErr(err, "Application error")
		return fmt.Errorf("running application: %w", err)
	}

	logger.Info("Application shutdown")
	return nil
}
