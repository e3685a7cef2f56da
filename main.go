// Command sermon-publisher is a single-run batch tool that publishes recorded
// sermons across three platforms. It:
//   - Uploads waiting audio files to the podcast host as episodes.
//   - Reconciles video-host recordings against podcast episodes by title and
//     publishes each matched pair as a sermon post on the content site.
//
// Platforms are enabled by configuration; CLI flags select which strategies
// the invocation runs. Exit status is non-zero only for configuration or
// client-init failures; per-item failures are logged and left for the next
// run.
package main

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/onnwee/sermon-publisher/config"
	"github.com/onnwee/sermon-publisher/podbean"
	"github.com/onnwee/sermon-publisher/sermonwp"
	"github.com/onnwee/sermon-publisher/telemetry"
	"github.com/onnwee/sermon-publisher/workflow"
	"github.com/onnwee/sermon-publisher/youtubeapi"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		runYouTube bool
		runPodbean bool
		runAll     bool
		logLevel   string
	)
	cmd := &cobra.Command{
		Use:           "sermon-publisher",
		Short:         "Publish recorded sermons across the podcast host and content site",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), runYouTube, runPodbean, runAll, logLevel)
		},
	}
	cmd.Flags().BoolVarP(&runYouTube, "youtube", "y", false, "publish matched YouTube sermons to the content site")
	cmd.Flags().BoolVarP(&runPodbean, "podbean", "p", false, "upload unpublished audio files as Podbean episodes")
	cmd.Flags().BoolVarP(&runAll, "all", "a", false, "run all publishing strategies")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	return cmd
}

func run(ctx context.Context, runYouTube, runPodbean, runAll bool, logLevel string) error {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load(".env")

	setupLogging(logLevel)
	slog.Info("starting sermon publisher")

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		return err
	}

	telemetry.Init()
	shutdown, err := telemetry.InitTracing("sermon-publisher", "1.0.0")
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		return err
	}
	defer shutdown()

	if ctx == nil {
		ctx = context.Background()
	}

	var clients workflow.Clients
	var tokenStore *podbean.TokenStore

	if cfg.PodbeanEnabled {
		if err := cfg.ValidatePodbeanReady(); err != nil {
			slog.Error("podbean config invalid", slog.Any("err", err))
			return err
		}
		tokenStore = &podbean.TokenStore{Path: cfg.PodbeanTokenPath}
		clients.Podbean = &podbean.Client{
			BaseURL: cfg.PodbeanAPIURL,
			Tokens: &podbean.TokenSource{
				APIKey:    cfg.PodbeanAPIKey,
				APISecret: cfg.PodbeanAPISecret,
				BaseURL:   cfg.PodbeanAPIURL,
				Store:     tokenStore,
			},
			Content: cfg.EpisodeContent,
			Publish: cfg.PublishAudio,
		}
	}

	if cfg.YouTubeEnabled {
		if err := cfg.ValidateYouTubeReady(); err != nil {
			slog.Error("youtube config invalid", slog.Any("err", err))
			return err
		}
		yc, err := youtubeapi.New(ctx, cfg)
		if err != nil {
			slog.Error("youtube client init failed", slog.Any("err", err))
			return err
		}
		clients.YouTube = yc
	}

	if cfg.SermonSiteEnabled {
		if err := cfg.ValidateSermonSiteReady(); err != nil {
			slog.Error("sermon site config invalid", slog.Any("err", err))
			return err
		}
		clients.Site = sermonwp.New(cfg.SermonSiteURL, cfg.SermonSiteUsername, cfg.SermonSiteAppPassword)
	}

	// Don't leave a long-lived bearer token on disk after the run.
	if tokenStore != nil {
		defer func() {
			if err := tokenStore.Remove(); err != nil {
				slog.Warn("failed to remove credential file", slog.Any("err", err))
			}
		}()
	}

	wf := workflow.New(cfg, clients)
	switch {
	case runAll:
		wf.RunAll(ctx)
	case runYouTube || runPodbean:
		if runYouTube {
			if err := wf.RunSermonSite(ctx); err != nil {
				slog.Error("sermon site strategy failed", slog.Any("err", err))
			}
		}
		if runPodbean {
			if err := wf.RunPodbean(ctx); err != nil {
				slog.Error("podbean strategy failed", slog.Any("err", err))
			}
		}
	default:
		slog.Warn("no strategy selected; pass --youtube, --podbean, or --all")
	}

	slog.Info("sermon publisher finished")
	return nil
}

// setupLogging configures the default slog handler. Level comes from the CLI
// flag, format (text | json) from LOG_FORMAT.
func setupLogging(logLevel string) {
	lvl := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
		// keep default
	default:
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown log level, using info", slog.String("value", logLevel))
	}
	var handler slog.Handler
	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "json") {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))
}
