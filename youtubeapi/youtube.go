// Package youtubeapi wraps the YouTube Data API v3 for listing a channel's
// playlist videos. Only the listing boundary lives here; downloading media is
// someone else's job.
package youtubeapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"github.com/onnwee/sermon-publisher/config"
)

var (
	// ErrPlaylistNotFound is returned when the named playlist is not among the
	// channel's playlists.
	ErrPlaylistNotFound = errors.New("playlist not found")
	// ErrEmptyPage is returned when a page cursor yields zero items while more
	// were expected.
	ErrEmptyPage = errors.New("playlist page returned no items")
)

// Recording is one video-host item representing a recorded sermon/stream.
// Read-only downstream; one recording maps to at most one episode and at most
// one sermon post.
type Recording struct {
	ID           string
	Title        string
	Description  string
	MediaURL     string
	ThumbnailURL string
}

// Client lists channel playlist videos using API-key auth.
type Client struct {
	svc       *yt.Service
	channelID string
}

// New builds a client and resolves the channel id, either from config or via a
// one-time channel search. Extra options are mainly for tests
// (option.WithEndpoint against a mock server).
func New(ctx context.Context, cfg *config.Config, opts ...option.ClientOption) (*Client, error) {
	all := append([]option.ClientOption{option.WithAPIKey(cfg.YouTubeAPIKey)}, opts...)
	svc, err := yt.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	c := &Client{svc: svc, channelID: cfg.YouTubeChannelID}
	if c.channelID == "" {
		id, err := c.resolveChannelID(ctx, cfg.YouTubeChannel)
		if err != nil {
			return nil, err
		}
		c.channelID = id
		slog.Info("resolved youtube channel id", slog.String("channel", cfg.YouTubeChannel), slog.String("id", id))
	}
	return c, nil
}

func (c *Client) resolveChannelID(ctx context.Context, channel string) (string, error) {
	resp, err := c.svc.Search.List([]string{"snippet"}).Q(channel).Type("channel").MaxResults(1).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("channel search %q: %w", channel, err)
	}
	if len(resp.Items) == 0 {
		return "", fmt.Errorf("channel %q not found", channel)
	}
	return resp.Items[0].Snippet.ChannelId, nil
}

// PlaylistID resolves a playlist name to its id by exact title match against
// the channel's playlists.
func (c *Client) PlaylistID(ctx context.Context, name string) (string, error) {
	resp, err := c.svc.Playlists.List([]string{"snippet"}).ChannelId(c.channelID).MaxResults(25).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("list playlists: %w", err)
	}
	for _, p := range resp.Items {
		if p.Snippet.Title == name {
			return p.Id, nil
		}
	}
	return "", fmt.Errorf("%q: %w", name, ErrPlaylistNotFound)
}

// GetAllVideos pages through the named playlist to exhaustion and returns one
// Recording per item.
func (c *Client) GetAllVideos(ctx context.Context, playlistName string) ([]Recording, error) {
	id, err := c.PlaylistID(ctx, playlistName)
	if err != nil {
		return nil, err
	}

	var out []Recording
	pageToken := ""
	for {
		call := c.svc.PlaylistItems.List([]string{"snippet"}).PlaylistId(id).MaxResults(50).Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("list playlist items: %w", err)
		}
		if len(resp.Items) == 0 {
			return nil, fmt.Errorf("playlist %q: %w", playlistName, ErrEmptyPage)
		}
		for _, item := range resp.Items {
			out = append(out, recordingFromItem(item))
		}
		if resp.NextPageToken == "" {
			return out, nil
		}
		pageToken = resp.NextPageToken
	}
}

// LatestVideo returns the first item of the named playlist.
func (c *Client) LatestVideo(ctx context.Context, playlistName string) (Recording, error) {
	id, err := c.PlaylistID(ctx, playlistName)
	if err != nil {
		return Recording{}, err
	}
	resp, err := c.svc.PlaylistItems.List([]string{"snippet"}).PlaylistId(id).MaxResults(1).Context(ctx).Do()
	if err != nil {
		return Recording{}, fmt.Errorf("list playlist items: %w", err)
	}
	if len(resp.Items) == 0 {
		return Recording{}, fmt.Errorf("playlist %q: %w", playlistName, ErrEmptyPage)
	}
	return recordingFromItem(resp.Items[0]), nil
}

// VideoDescription fetches the description of a single video by id.
func (c *Client) VideoDescription(ctx context.Context, videoID string) (string, error) {
	resp, err := c.svc.Videos.List([]string{"snippet"}).Id(videoID).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("get video %s: %w", videoID, err)
	}
	if len(resp.Items) == 0 {
		return "", fmt.Errorf("video %s not found", videoID)
	}
	return resp.Items[0].Snippet.Description, nil
}

func recordingFromItem(item *yt.PlaylistItem) Recording {
	rec := Recording{
		Title:       item.Snippet.Title,
		Description: item.Snippet.Description,
	}
	if item.Snippet.ResourceId != nil {
		rec.ID = item.Snippet.ResourceId.VideoId
		rec.MediaURL = "https://www.youtube.com/watch?v=" + rec.ID
	}
	if t := item.Snippet.Thumbnails; t != nil {
		switch {
		case t.Maxres != nil:
			rec.ThumbnailURL = t.Maxres.Url
		case t.High != nil:
			rec.ThumbnailURL = t.High.Url
		case t.Default != nil:
			rec.ThumbnailURL = t.Default.Url
		}
	}
	return rec
}
