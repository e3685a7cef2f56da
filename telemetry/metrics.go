// Package telemetry provides Prometheus metrics, OpenTelemetry tracing setup,
// and correlation-id aware logging helpers for the publishing pipeline.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	UploadsSucceeded    prometheus.Counter
	UploadsFailed       prometheus.Counter
	SermonsPosted       prometheus.Counter
	SermonsSkipped      prometheus.Counter
	SermonsFailed       prometheus.Counter
	RecordingsMatched   prometheus.Counter
	ParseFailures       prometheus.Counter
	StrategyFailures    prometheus.Counter
	StrategyExecutions  prometheus.Counter

	// Histograms (seconds)
	UploadDuration   prometheus.Observer
	StrategyDuration prometheus.Observer

	// Gauges
	UnpublishedGauge prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		UploadsSucceeded = promauto.NewCounter(prometheus.CounterOpts{Name: "sermon_uploads_succeeded_total", Help: "Number of audio uploads that produced an episode"})
		UploadsFailed = promauto.NewCounter(prometheus.CounterOpts{Name: "sermon_uploads_failed_total", Help: "Number of audio uploads that failed"})
		SermonsPosted = promauto.NewCounter(prometheus.CounterOpts{Name: "sermon_posts_created_total", Help: "Number of sermon posts created on the content site"})
		SermonsSkipped = promauto.NewCounter(prometheus.CounterOpts{Name: "sermon_posts_skipped_total", Help: "Number of sermon posts skipped because the slug already existed"})
		SermonsFailed = promauto.NewCounter(prometheus.CounterOpts{Name: "sermon_posts_failed_total", Help: "Number of sermon posts that failed"})
		RecordingsMatched = promauto.NewCounter(prometheus.CounterOpts{Name: "sermon_recordings_matched_total", Help: "Number of recording/episode pairs produced by the matcher"})
		ParseFailures = promauto.NewCounter(prometheus.CounterOpts{Name: "sermon_parse_failures_total", Help: "Number of recording descriptions that failed metadata parsing"})
		StrategyFailures = promauto.NewCounter(prometheus.CounterOpts{Name: "sermon_strategy_failures_total", Help: "Number of strategies that ended with an error"})
		StrategyExecutions = promauto.NewCounter(prometheus.CounterOpts{Name: "sermon_strategy_executions_total", Help: "Number of strategy executions"})
		UploadDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "sermon_upload_duration_seconds", Help: "Audio upload duration seconds", Buckets: prometheus.DefBuckets})
		StrategyDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "sermon_strategy_duration_seconds", Help: "Strategy execution duration seconds", Buckets: prometheus.DefBuckets})
		UnpublishedGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "sermon_unpublished_files", Help: "Number of audio files awaiting upload"})
	})
}

// Counter helpers are nil-safe so library code can record without caring
// whether Init ran (tests, selective runs).

func IncUploadSucceeded() { inc(UploadsSucceeded) }
func IncUploadFailed()    { inc(UploadsFailed) }
func IncSermonPosted()    { inc(SermonsPosted) }
func IncSermonSkipped()   { inc(SermonsSkipped) }
func IncSermonFailed()    { inc(SermonsFailed) }
func IncMatched()         { inc(RecordingsMatched) }
func IncParseFailure()    { inc(ParseFailures) }

func inc(c prometheus.Counter) {
	if c != nil {
		c.Inc()
	}
}

// SetUnpublishedDepth records the current count of files awaiting upload.
func SetUnpublishedDepth(n int) {
	if UnpublishedGauge != nil {
		UnpublishedGauge.Set(float64(n))
	}
}

// TimeFunc measures the duration of fn and records it in obs if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------

type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding the correlation id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns the correlation id or an empty string.
func GetCorrelation(ctx context.Context) string {
	if s, ok := ctx.Value(corrKey).(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger carrying the corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
