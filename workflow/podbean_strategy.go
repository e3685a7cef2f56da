package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/onnwee/sermon-publisher/podbean"
	"github.com/onnwee/sermon-publisher/telemetry"
	"github.com/onnwee/sermon-publisher/youtubeapi"
)

const podbeanStrategyName = "publish-podbean-episodes"

// PodbeanStrategy uploads every audio file waiting in the unpublished
// directory as a Podbean episode, moving each to the published directory on
// success. When the video platform is enabled, the latest video description is
// appended to the episode content.
type PodbeanStrategy struct {
	Podbean *podbean.Client
	YouTube *youtubeapi.Client // optional

	Playlist       string
	UnpublishedDir string
	PublishedDir   string
	BaseContent    string
}

func (s *PodbeanStrategy) Name() string { return podbeanStrategyName }

func (s *PodbeanStrategy) Execute(ctx context.Context) error {
	log := telemetry.LoggerWithCorr(ctx)

	s.Podbean.Content = s.episodeContent(ctx, log)

	if entries, err := os.ReadDir(s.UnpublishedDir); err == nil {
		n := 0
		for _, e := range entries {
			if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ".mp3") {
				n++
			}
		}
		telemetry.SetUnpublishedDepth(n)
	}

	res, err := s.Podbean.ProcessUnpublishedDirectory(ctx, s.UnpublishedDir, s.PublishedDir)
	if err != nil {
		return err
	}
	log.Info("podbean pass complete",
		slog.Int("succeeded", len(res.Succeeded)),
		slog.Int("failed", len(res.Failed)))
	if len(res.Failed) > 0 {
		log.Warn("some uploads failed and remain for retry", slog.Any("files", res.Failed))
	}
	return nil
}

// episodeContent enriches the configured episode content with the latest
// video description when the video platform is available.
func (s *PodbeanStrategy) episodeContent(ctx context.Context, log *slog.Logger) string {
	content := s.BaseContent
	if s.YouTube == nil || s.Playlist == "" {
		return content
	}
	latest, err := s.YouTube.LatestVideo(ctx, s.Playlist)
	if err != nil {
		log.Warn("could not fetch latest video for episode content", slog.Any("err", err))
		return content
	}
	desc, err := s.YouTube.VideoDescription(ctx, latest.ID)
	if err != nil {
		log.Warn("could not fetch latest video description, using playlist snippet", slog.Any("err", err))
		desc = latest.Description
	}
	desc = strings.ReplaceAll(desc, "\n", "<br/>")
	return content + fmt.Sprintf("<p>%s</p>", desc)
}
