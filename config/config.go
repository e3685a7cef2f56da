// Package config loads environment variables and provides a typed Config used across the tool.
// It applies sensible defaults so the binary can run locally with minimal setup.
// Per-platform required fields are checked with the Validate*Ready helpers.
package config

import (
	"fmt"
	"os"
	"strings"
)

type Config struct {
	// Podbean
	PodbeanAPIKey    string
	PodbeanAPISecret string
	PodbeanAPIURL    string
	PodbeanTokenPath string

	// Audio handling
	UnpublishedAudioDir string
	PublishedAudioDir   string
	EpisodeContent      string
	PublishAudio        bool

	// YouTube
	YouTubeAPIKey    string
	YouTubeChannel   string
	YouTubeChannelID string
	VideoPlaylist    string
	StreamPlaylist   string

	// Sermon site (WordPress + Advanced Sermons)
	SermonSiteURL         string
	SermonSiteUsername    string
	SermonSiteAppPassword string

	// Matcher override allowlist: a recording and an episode match when both
	// normalized titles contain one of these substrings.
	MatchOverrides []string

	// Platform enablement
	PodbeanEnabled    bool
	YouTubeEnabled    bool
	SermonSiteEnabled bool
}

// Load reads environment variables and applies defaults. It doesn't fail if platform
// credentials are missing; use the Validate*Ready helpers once you know which
// platforms the run needs. Missing optional variables disable features.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.PodbeanAPIKey = os.Getenv("PODBEAN_API_KEY")
	cfg.PodbeanAPISecret = os.Getenv("PODBEAN_API_SECRET")
	cfg.PodbeanAPIURL = strings.TrimRight(os.Getenv("PODBEAN_API_URL"), "/")
	if cfg.PodbeanAPIURL == "" {
		cfg.PodbeanAPIURL = "https://api.podbean.com/v1"
	}
	cfg.PodbeanTokenPath = os.Getenv("PODBEAN_TOKEN_PATH")
	if cfg.PodbeanTokenPath == "" {
		cfg.PodbeanTokenPath = "token.json"
	}

	cfg.UnpublishedAudioDir = os.Getenv("UNPUBLISHED_AUDIO_DIR")
	cfg.PublishedAudioDir = os.Getenv("PUBLISHED_AUDIO_DIR")
	cfg.EpisodeContent = os.Getenv("EPISODE_CONTENT")
	cfg.PublishAudio = boolEnv("PUBLISH_AUDIO")

	cfg.YouTubeAPIKey = os.Getenv("YOUTUBE_API_KEY")
	cfg.YouTubeChannel = os.Getenv("YOUTUBE_CHANNEL")
	cfg.YouTubeChannelID = os.Getenv("YOUTUBE_CHANNEL_ID")
	cfg.VideoPlaylist = os.Getenv("VIDEO_PLAYLIST")
	cfg.StreamPlaylist = os.Getenv("STREAM_PLAYLIST")

	cfg.SermonSiteURL = strings.TrimRight(os.Getenv("SERMON_SITE_URL"), "/")
	cfg.SermonSiteUsername = os.Getenv("SERMON_SITE_USERNAME")
	cfg.SermonSiteAppPassword = os.Getenv("SERMON_SITE_APP_PASSWORD")

	if v := os.Getenv("MATCH_OVERRIDES"); v != "" {
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				cfg.MatchOverrides = append(cfg.MatchOverrides, strings.ToLower(s))
			}
		}
	} else {
		// Recurring series whose published episode titles diverge textually
		// from the recording titles.
		cfg.MatchOverrides = []string{"living and lif", "how to be rem"}
	}

	cfg.PodbeanEnabled = boolEnv("PODBEAN_ENABLED")
	cfg.YouTubeEnabled = boolEnv("YOUTUBE_ENABLED")
	cfg.SermonSiteEnabled = boolEnv("SERMON_SITE_ENABLED")

	return cfg, nil
}

func boolEnv(key string) bool {
	v := os.Getenv(key)
	return v == "1" || strings.EqualFold(v, "true")
}

// ValidatePodbeanReady checks required fields when the Podbean platform is enabled.
func (c *Config) ValidatePodbeanReady() error {
	if c.PodbeanAPIKey == "" || c.PodbeanAPISecret == "" {
		return fmt.Errorf("missing podbean env: require PODBEAN_API_KEY, PODBEAN_API_SECRET")
	}
	if c.PodbeanAPIURL == "" {
		return fmt.Errorf("missing podbean env: require PODBEAN_API_URL")
	}
	return nil
}

// ValidateYouTubeReady checks required fields when the YouTube platform is enabled.
func (c *Config) ValidateYouTubeReady() error {
	if c.YouTubeAPIKey == "" {
		return fmt.Errorf("missing youtube env: require YOUTUBE_API_KEY")
	}
	if c.YouTubeChannel == "" && c.YouTubeChannelID == "" {
		return fmt.Errorf("missing youtube env: require YOUTUBE_CHANNEL or YOUTUBE_CHANNEL_ID")
	}
	return nil
}

// ValidateSermonSiteReady checks required fields when the sermon site platform is enabled.
func (c *Config) ValidateSermonSiteReady() error {
	if c.SermonSiteURL == "" || c.SermonSiteUsername == "" || c.SermonSiteAppPassword == "" {
		return fmt.Errorf("missing sermon site env: require SERMON_SITE_URL, SERMON_SITE_USERNAME, SERMON_SITE_APP_PASSWORD")
	}
	return nil
}
