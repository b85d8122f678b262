package commands

import (
	"context"
	"net/http"

	"worklogd/internal/cache"
	"worklogd/internal/config"
	"worklogd/internal/excel"
	"worklogd/internal/jira"
	"worklogd/internal/logging"
	"worklogd/internal/rest"
	"worklogd/internal/worklog"

	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	cfg     *config.AppConfig

	jiraClient jira.Client
)

var rootCmd = &cobra.Command{
	Use:   "worklogd",
	Short: "worklogd is a local Jira time-logging server",
	Long: `A single-user server that fronts a Jira instance: it lists your assigned
issues, logs work in bulk or individually with optional workflow transitions,
and turns free text or an Excel timesheet into a matched issue selection.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(verbose)

		// Load configuration
		var err error
		cfg, err = config.Load()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}

		if cfg.Jira.BaseURL == "" || cfg.Jira.Token == "" {
			log.Fatal().Msg("JIRA_URL and JIRA_TOKEN must be configured")
		}

		// Initialize Jira Client
		jiraClient = jira.NewClient(cfg.Jira)

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Msg("worklogd starting")
	},
	Run: func(cmd *cobra.Command, args []string) {
		if err := serve(); err != nil {
			log.Fatal().Err(err).Msg("Server stopped")
		}
	},
}

func serve() error {
	store, err := cache.NewStore(cfg.CachePath)
	if err != nil {
		return err
	}
	defer store.Close()

	cacheSvc := cache.NewService(store, func(ctx context.Context) ([]jira.Issue, error) {
		return jiraClient.SearchMyIssues(ctx)
	}, cache.WithTTL(cfg.CacheTTL))

	orch := worklog.NewOrchestrator(jiraClient, worklog.WithInvalidate(cacheSvc.MarkStale))
	reader := excel.NewReader(cfg.ExcelPath, cfg.ExcelSheet)

	server := rest.NewServer(jiraClient, cacheSvc, orch, reader, Version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go cacheSvc.RunRefresher(ctx, cfg.CacheTTL)

	if cfg.OpenBrowser {
		uiURL := "http://" + cfg.ListenAddr
		if err := browser.OpenURL(uiURL); err != nil {
			log.Warn().Err(err).Str("url", uiURL).Msg("Failed to open browser")
		}
	}

	log.Info().Str("addr", cfg.ListenAddr).Msg("HTTP server listening")
	return http.ListenAndServe(cfg.ListenAddr, server.Handler())
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}
