package main

import (
	"io"
	"time"

	"github.com/alimgiray/gitprofile/internal/cache"
	"github.com/alimgiray/gitprofile/internal/services"
	"github.com/alimgiray/gitprofile/pkg/config"
	"github.com/alimgiray/gitprofile/pkg/logger"
	"github.com/spf13/cobra"
)

var verbose bool

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:           "gitprofile",
	Short:         "Summarize GitHub profiles and render profile widgets.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		if !verbose {
			logger.SetOutput(io.Discard)
		}
	},
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log API calls to stdout")
	rootCmd.AddCommand(summaryCmd, widgetCmd)
}

// app holds the services a command works with.
type app struct {
	cache    *cache.ResponseCache
	profiles *services.ProfileService
	widgets  *services.WidgetService
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	responseCache, err := cache.New(cfg.Cache)
	if err != nil {
		return nil, err
	}

	github, err := services.NewGitHubService(cfg.GitHub, responseCache)
	if err != nil {
		responseCache.Close()
		return nil, err
	}
	languages := services.NewLanguageService(github, cfg.GitHub.LanguageConcurrency)

	return &app{
		cache:    responseCache,
		profiles: services.NewProfileService(github, languages, services.NewActivityService(time.Now)),
		widgets:  services.NewWidgetService(github, languages),
	}, nil
}

func (a *app) Close() {
	a.cache.Close()
}
