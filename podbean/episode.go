package podbean

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/onnwee/sermon-publisher/telemetry"
)

// Episode is a podcast-host entry. Episodes are never mutated after creation
// in this workflow; a later run matches them, it does not re-create them.
type Episode struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	PlayerURL string `json:"player_url"`
	Status    string `json:"status"`
}

// Client talks to the Podbean episode endpoints using a TokenSource for auth.
type Client struct {
	BaseURL    string
	Tokens     *TokenSource
	HTTPClient *http.Client

	// Content is appended to every created episode; Publish selects
	// status publish vs draft.
	Content string
	Publish bool
}

func (c *Client) http() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// Result reports the outcome of a directory pass. Files in Succeeded have been
// moved to the published directory; files in Failed remain in place for retry.
type Result struct {
	Succeeded []string
	Failed    []string
}

// ProcessUnpublishedDirectory uploads every .mp3 in srcDir, one file at a time,
// moving each to dstDir on success. The move is the durability marker that
// prevents re-upload on the next run; there is no separate ledger.
func (c *Client) ProcessUnpublishedDirectory(ctx context.Context, srcDir, dstDir string) (Result, error) {
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return Result{}, fmt.Errorf("list unpublished dir %s: %w", srcDir, err)
	}

	var res Result
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".mp3") {
			continue
		}
		name := e.Name()
		var ep Episode
		telemetry.TimeFunc(telemetry.UploadDuration, func() {
			ep, err = c.UploadAudio(ctx, filepath.Join(srcDir, name))
		})
		if err != nil {
			slog.Warn("episode upload failed", slog.String("file", name), slog.Any("err", err))
			telemetry.IncUploadFailed()
			res.Failed = append(res.Failed, name)
			continue
		}
		if err := os.Rename(filepath.Join(srcDir, name), filepath.Join(dstDir, name)); err != nil {
			// The episode exists remotely but the marker move failed; leave the
			// file for the operator rather than re-uploading silently.
			slog.Error("uploaded but failed to move file", slog.String("file", name), slog.Any("err", err))
			res.Failed = append(res.Failed, name)
			continue
		}
		slog.Info("episode published", slog.String("file", name), slog.String("title", ep.Title), slog.String("status", ep.Status))
		telemetry.IncUploadSucceeded()
		res.Succeeded = append(res.Succeeded, name)
	}
	return res, nil
}

// UploadAudio performs the three-step publish for one audio file: request a
// presigned upload target, stream the file to it, then create the episode.
// Each step is a hard stop; no partial episode is created on failure.
func (c *Client) UploadAudio(ctx context.Context, path string) (Episode, error) {
	cred, err := c.Tokens.Get(ctx)
	if err != nil {
		return Episode{}, err
	}

	fi, err := os.Stat(path)
	if err != nil {
		return Episode{}, fmt.Errorf("stat %s: %w", path, err)
	}
	filename := filepath.Base(path)

	presigned, fileKey, err := c.authorizeUpload(ctx, cred.AccessToken, filename, fi.Size())
	if err != nil {
		return Episode{}, err
	}

	if err := c.transfer(ctx, presigned, path, fi.Size()); err != nil {
		return Episode{}, err
	}

	return c.createEpisode(ctx, cred.AccessToken, TitleFromFilename(filename), fileKey)
}

// TitleFromFilename derives the episode title: extension stripped, underscores
// replaced with colons (colons are not valid in filenames).
func TitleFromFilename(filename string) string {
	title := strings.TrimSuffix(filename, filepath.Ext(filename))
	return strings.ReplaceAll(title, "_", ":")
}

func (c *Client) authorizeUpload(ctx context.Context, token, filename string, size int64) (presignedURL, fileKey string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/files/uploadAuthorize", nil)
	if err != nil {
		return "", "", &Error{Kind: KindUploadAuth, Err: err}
	}
	q := req.URL.Query()
	q.Set("access_token", token)
	q.Set("filename", filename)
	q.Set("filesize", strconv.FormatInt(size, 10))
	q.Set("content_type", "audio/mpeg")
	req.URL.RawQuery = q.Encode()

	resp, err := c.http().Do(req)
	if err != nil {
		return "", "", &Error{Kind: KindUploadAuth, Err: err}
	}
	defer closeBody(resp)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", "", &Error{Kind: KindUploadAuth, Status: resp.StatusCode}
	}
	var body struct {
		PresignedURL string `json:"presigned_url"`
		FileKey      string `json:"file_key"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", "", &Error{Kind: KindUploadAuth, Err: err}
	}
	if body.PresignedURL == "" || body.FileKey == "" {
		return "", "", &Error{Kind: KindUploadAuth, Err: fmt.Errorf("missing presigned_url/file_key in response")}
	}
	return body.PresignedURL, body.FileKey, nil
}

func (c *Client) transfer(ctx context.Context, presignedURL, path string, size int64) error {
	f, err := os.Open(path)
	if err != nil {
		return &Error{Kind: KindTransfer, Err: err}
	}
	defer f.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, presignedURL, f)
	if err != nil {
		return &Error{Kind: KindTransfer, Err: err}
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", "audio/mpeg")

	resp, err := c.http().Do(req)
	if err != nil {
		return &Error{Kind: KindTransfer, Err: err}
	}
	defer closeBody(resp)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{Kind: KindTransfer, Status: resp.StatusCode}
	}
	return nil
}

func (c *Client) createEpisode(ctx context.Context, token, title, fileKey string) (Episode, error) {
	status := "draft"
	if c.Publish {
		status = "publish"
	}
	form := url.Values{}
	form.Set("access_token", token)
	form.Set("title", title)
	form.Set("content", c.Content)
	form.Set("status", status)
	form.Set("type", "public")
	form.Set("media_key", fileKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/episodes", strings.NewReader(form.Encode()))
	if err != nil {
		return Episode{}, &Error{Kind: KindEpisodeCreate, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http().Do(req)
	if err != nil {
		return Episode{}, &Error{Kind: KindEpisodeCreate, Err: err}
	}
	defer closeBody(resp)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return Episode{}, &Error{Kind: KindEpisodeCreate, Status: resp.StatusCode, Body: string(b)}
	}
	var body struct {
		Episode Episode `json:"episode"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Episode{}, &Error{Kind: KindEpisodeCreate, Err: err}
	}
	if body.Episode.Title == "" {
		body.Episode.Title = title
	}
	return body.Episode, nil
}

// ListEpisodes returns up to limit existing episodes.
func (c *Client) ListEpisodes(ctx context.Context, limit int) ([]Episode, error) {
	cred, err := c.Tokens.Get(ctx)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/episodes", nil)
	if err != nil {
		return nil, err
	}
	q := req.URL.Query()
	q.Set("access_token", cred.AccessToken)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	req.URL.RawQuery = q.Encode()

	resp, err := c.http().Do(req)
	if err != nil {
		return nil, err
	}
	defer closeBody(resp)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("podbean list episodes: status %d: %s", resp.StatusCode, string(b))
	}
	var body struct {
		Episodes []Episode `json:"episodes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	return body.Episodes, nil
}

// GetPodcastID returns the podcast id for the authenticated account.
func (c *Client) GetPodcastID(ctx context.Context) (string, error) {
	cred, err := c.Tokens.Get(ctx)
	if err != nil {
		return "", err
	}
	form := url.Values{}
	form.Set("access_token", cred.AccessToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/podcast", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http().Do(req)
	if err != nil {
		return "", err
	}
	defer closeBody(resp)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("podbean podcast info: status %d", resp.StatusCode)
	}
	var body struct {
		Podcast struct {
			ID string `json:"id"`
		} `json:"podcast"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	return body.Podcast.ID, nil
}

func closeBody(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		slog.Warn("failed to close response body", slog.Any("err", err))
	}
}
