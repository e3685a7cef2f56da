package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/onnwee/sermon-publisher/podbean"
	"github.com/onnwee/sermon-publisher/sermon"
	"github.com/onnwee/sermon-publisher/sermonwp"
	"github.com/onnwee/sermon-publisher/telemetry"
	"github.com/onnwee/sermon-publisher/youtubeapi"
)

const sermonSiteStrategyName = "publish-matched-sermons"

// episodeListLimit bounds the candidate pool; the back catalog is well under
// this.
const episodeListLimit = 1000

// SermonSiteStrategy reconciles playlist recordings against existing podcast
// episodes and publishes each matched pair as a sermon post. Per-recording
// failures (unparseable descriptions, post errors) are logged and skipped;
// only a failure to list either side aborts the strategy.
type SermonSiteStrategy struct {
	YouTube *youtubeapi.Client
	Podbean *podbean.Client
	Site    *sermonwp.Client

	Playlist  string
	Overrides []string
}

func (s *SermonSiteStrategy) Name() string { return sermonSiteStrategyName }

func (s *SermonSiteStrategy) Execute(ctx context.Context) error {
	log := telemetry.LoggerWithCorr(ctx)

	recordings, err := s.YouTube.GetAllVideos(ctx, s.Playlist)
	if err != nil {
		return fmt.Errorf("list recordings: %w", err)
	}
	episodes, err := s.Podbean.ListEpisodes(ctx, episodeListLimit)
	if err != nil {
		return fmt.Errorf("list episodes: %w", err)
	}
	log.Info("reconciling", slog.Int("recordings", len(recordings)), slog.Int("episodes", len(episodes)))

	// The sermon title lives on the first description line, not in the video
	// title, so parse first and match on the parsed title.
	metaByID := make(map[string]sermon.Metadata, len(recordings))
	candidates := make([]youtubeapi.Recording, 0, len(recordings))
	for _, rec := range recordings {
		md, err := sermon.ParseDescription(rec.Description)
		if err != nil {
			log.Warn("skipping recording with malformed description",
				slog.String("video", rec.Title), slog.Any("err", err))
			telemetry.IncParseFailure()
			continue
		}
		md.YouTubeURL = rec.MediaURL
		md.ImageURL = rec.ThumbnailURL
		metaByID[rec.ID] = md

		rec.Title = md.Title
		candidates = append(candidates, rec)
	}

	pairs := sermon.Match(candidates, episodes, s.Overrides)
	log.Info("matched recordings to episodes", slog.Int("pairs", len(pairs)))

	for _, pair := range pairs {
		telemetry.IncMatched()
		md := metaByID[pair.Recording.ID]
		embed := podbean.BuildEmbed(pair.Episode.PlayerURL, pair.Episode.Title)
		if err := s.Site.PostSermon(ctx, md, embed); err != nil {
			log.Warn("sermon post failed",
				slog.String("slug", md.Slug), slog.Any("err", err))
			telemetry.IncSermonFailed()
		}
	}
	return nil
}
