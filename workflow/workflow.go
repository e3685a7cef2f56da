// Package workflow sequences the platform clients into named publishing
// strategies and runs them with per-strategy failure isolation.
package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/onnwee/sermon-publisher/config"
	"github.com/onnwee/sermon-publisher/podbean"
	"github.com/onnwee/sermon-publisher/sermonwp"
	"github.com/onnwee/sermon-publisher/telemetry"
	"github.com/onnwee/sermon-publisher/youtubeapi"
)

// Strategy is one independent publishing task.
type Strategy interface {
	Name() string
	Execute(ctx context.Context) error
}

// Clients holds the already-constructed platform clients. A nil client means
// the platform is disabled; only strategies whose clients are all present get
// built.
type Clients struct {
	Podbean *podbean.Client
	YouTube *youtubeapi.Client
	Site    *sermonwp.Client
}

// Workflow owns the built strategies for one invocation.
type Workflow struct {
	strategies []Strategy
}

// New builds the applicable strategies from the enabled clients.
func New(cfg *config.Config, cl Clients) *Workflow {
	w := &Workflow{}
	if cl.YouTube != nil && cl.Podbean != nil && cl.Site != nil {
		w.strategies = append(w.strategies, &SermonSiteStrategy{
			YouTube:   cl.YouTube,
			Podbean:   cl.Podbean,
			Site:      cl.Site,
			Playlist:  cfg.VideoPlaylist,
			Overrides: cfg.MatchOverrides,
		})
	}
	if cl.Podbean != nil {
		// Episode content is enriched from the livestream playlist when one is
		// configured, otherwise from the sermon video playlist.
		playlist := cfg.StreamPlaylist
		if playlist == "" {
			playlist = cfg.VideoPlaylist
		}
		w.strategies = append(w.strategies, &PodbeanStrategy{
			Podbean:        cl.Podbean,
			YouTube:        cl.YouTube,
			Playlist:       playlist,
			UnpublishedDir: cfg.UnpublishedAudioDir,
			PublishedDir:   cfg.PublishedAudioDir,
			BaseContent:    cfg.EpisodeContent,
		})
	}
	if len(w.strategies) == 0 {
		slog.Warn("no platforms enabled, nothing to run")
	}
	return w
}

// Strategies returns the built strategies in execution order.
func (w *Workflow) Strategies() []Strategy { return w.strategies }

// RunAll executes every built strategy in sequence. A strategy failure is
// logged and does not abort its siblings.
func (w *Workflow) RunAll(ctx context.Context) {
	ctx = telemetry.WithCorrelation(ctx, uuid.NewString())
	for _, s := range w.strategies {
		if err := w.runStrategy(ctx, s); err != nil {
			telemetry.LoggerWithCorr(ctx).Error("strategy failed", slog.String("strategy", s.Name()), slog.Any("err", err))
		}
	}
}

// RunSermonSite executes only the sermon-site publishing strategy.
func (w *Workflow) RunSermonSite(ctx context.Context) error {
	return w.runNamed(ctx, sermonSiteStrategyName)
}

// RunPodbean executes only the Podbean episode strategy.
func (w *Workflow) RunPodbean(ctx context.Context) error {
	return w.runNamed(ctx, podbeanStrategyName)
}

func (w *Workflow) runNamed(ctx context.Context, name string) error {
	ctx = telemetry.WithCorrelation(ctx, uuid.NewString())
	for _, s := range w.strategies {
		if s.Name() == name {
			return w.runStrategy(ctx, s)
		}
	}
	slog.Warn("strategy not available, check platform configuration", slog.String("strategy", name))
	return fmt.Errorf("strategy %s not built", name)
}

func (w *Workflow) runStrategy(ctx context.Context, s Strategy) error {
	log := telemetry.LoggerWithCorr(ctx).With(slog.String("strategy", s.Name()))
	ctx, span := telemetry.StartSpan(ctx, "workflow", "strategy.execute",
		attribute.String("strategy", s.Name()))
	defer span.End()

	if telemetry.StrategyExecutions != nil {
		telemetry.StrategyExecutions.Inc()
	}
	log.Info("strategy starting")
	var err error
	d := telemetry.TimeFunc(telemetry.StrategyDuration, func() {
		err = s.Execute(ctx)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		if telemetry.StrategyFailures != nil {
			telemetry.StrategyFailures.Inc()
		}
		return err
	}
	log.Info("strategy finished", slog.Duration("took", d))
	return nil
}
