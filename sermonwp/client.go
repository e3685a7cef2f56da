// Package sermonwp is a client for the content site's WordPress REST API with
// the Advanced Sermons plugin: taxonomy lookup-or-create, media search and
// upload, and idempotent sermon post creation.
package sermonwp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/onnwee/sermon-publisher/sermon"
	"github.com/onnwee/sermon-publisher/telemetry"
)

// Client talks to the content site over HTTP basic auth. termCache holds
// taxonomy resolutions for the lifetime of one run, so a series or speaker
// seen twice in the same invocation is never created twice. There is no
// cross-process locking; the tool assumes a single writer.
type Client struct {
	BaseURL     string
	Username    string
	AppPassword string
	HTTPClient  *http.Client

	termCache map[string]map[string]int
}

// New builds a client for the given site.
func New(baseURL, username, appPassword string) *Client {
	return &Client{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		Username:    username,
		AppPassword: appPassword,
		termCache:   make(map[string]map[string]int),
	}
}

func (c *Client) http() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(c.Username, c.AppPassword)
	return c.http().Do(req)
}

type term struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// GetOrCreateTerm resolves a taxonomy term id by case-insensitive exact name
// match across all search result pages (100 per page, ordered by name), and
// creates the term on a miss.
func (c *Client) GetOrCreateTerm(ctx context.Context, taxonomy, name string) (int, error) {
	if id, ok := c.cachedTerm(taxonomy, name); ok {
		return id, nil
	}

	id, found, err := c.findTerm(ctx, taxonomy, name)
	if err != nil {
		return 0, err
	}
	if !found {
		id, err = c.createTerm(ctx, taxonomy, name)
		if err != nil {
			return 0, err
		}
		slog.Info("created taxonomy term", slog.String("taxonomy", taxonomy), slog.String("name", name), slog.Int("id", id))
	}
	c.cacheTerm(taxonomy, name, id)
	return id, nil
}

// LookupBook resolves a scripture book term id. Books are a fixed vocabulary
// on the site, so there is no create-on-miss.
func (c *Client) LookupBook(ctx context.Context, name string) (int, bool, error) {
	if id, ok := c.cachedTerm("sermon_book", name); ok {
		return id, true, nil
	}
	id, found, err := c.findTerm(ctx, "sermon_book", name)
	if err != nil {
		return 0, false, err
	}
	if found {
		c.cacheTerm("sermon_book", name, id)
	}
	return id, found, nil
}

func (c *Client) cachedTerm(taxonomy, name string) (int, bool) {
	id, ok := c.termCache[taxonomy][strings.ToLower(name)]
	return id, ok
}

func (c *Client) cacheTerm(taxonomy, name string, id int) {
	if c.termCache[taxonomy] == nil {
		c.termCache[taxonomy] = make(map[string]int)
	}
	c.termCache[taxonomy][strings.ToLower(name)] = id
}

func (c *Client) findTerm(ctx context.Context, taxonomy, name string) (int, bool, error) {
	page := 1
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/"+taxonomy, nil)
		if err != nil {
			return 0, false, &Error{Kind: KindTaxonomy, Err: err}
		}
		q := req.URL.Query()
		q.Set("search", name)
		q.Set("per_page", "100")
		q.Set("page", strconv.Itoa(page))
		q.Set("orderby", "name")
		q.Set("order", "asc")
		req.URL.RawQuery = q.Encode()

		resp, err := c.do(req)
		if err != nil {
			return 0, false, &Error{Kind: KindTaxonomy, Err: err}
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			closeBody(resp)
			return 0, false, &Error{Kind: KindTaxonomy, Status: resp.StatusCode, Err: fmt.Errorf("search %s", taxonomy)}
		}
		var terms []term
		err = json.NewDecoder(resp.Body).Decode(&terms)
		totalPages := totalPagesHeader(resp)
		closeBody(resp)
		if err != nil {
			return 0, false, &Error{Kind: KindTaxonomy, Err: err}
		}

		for _, t := range terms {
			if strings.EqualFold(t.Name, name) {
				return t.ID, true, nil
			}
		}
		if page >= totalPages {
			return 0, false, nil
		}
		page++
	}
}

func (c *Client) createTerm(ctx context.Context, taxonomy, name string) (int, error) {
	payload, _ := json.Marshal(map[string]string{
		"name": name,
		"slug": sermon.Slugify(name),
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/"+taxonomy, bytes.NewReader(payload))
	if err != nil {
		return 0, &Error{Kind: KindTaxonomy, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return 0, &Error{Kind: KindTaxonomy, Err: err}
	}
	defer closeBody(resp)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, &Error{Kind: KindTaxonomy, Status: resp.StatusCode, Err: fmt.Errorf("create %s %q", taxonomy, name)}
	}
	var created term
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return 0, &Error{Kind: KindTaxonomy, Err: err}
	}
	return created.ID, nil
}

// MediaExists searches the media library and returns the id of the first image
// whose slug contains the hyphenated filename.
func (c *Client) MediaExists(ctx context.Context, filename string) (int, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/media", nil)
	if err != nil {
		return 0, false, err
	}
	q := req.URL.Query()
	q.Set("search", filename)
	q.Set("per_page", "100")
	q.Set("media_type", "image")
	req.URL.RawQuery = q.Encode()

	resp, err := c.do(req)
	if err != nil {
		return 0, false, err
	}
	defer closeBody(resp)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, false, fmt.Errorf("media search: status %d", resp.StatusCode)
	}
	var items []struct {
		ID   int    `json:"id"`
		Slug string `json:"slug"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return 0, false, err
	}
	needle := sermon.Slugify(filename)
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Slug), needle) {
			return item.ID, true, nil
		}
	}
	return 0, false, nil
}

// UploadImage uploads image bytes as <filename>.jpg and returns the media id.
// Content type is fixed to image/jpeg; thumbnails arrive as JPEG from the
// video host.
func (c *Client) UploadImage(ctx context.Context, content []byte, filename string) (int, error) {
	if len(content) == 0 {
		return 0, &Error{Kind: KindMediaUpload, Err: fmt.Errorf("no image content")}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/media", bytes.NewReader(content))
	if err != nil {
		return 0, &Error{Kind: KindMediaUpload, Err: err}
	}
	req.Header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.jpg", filename))
	req.Header.Set("Content-Type", "image/jpeg")

	resp, err := c.do(req)
	if err != nil {
		return 0, &Error{Kind: KindMediaUpload, Err: err}
	}
	defer closeBody(resp)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return 0, &Error{Kind: KindMediaUpload, Status: resp.StatusCode, Err: fmt.Errorf("%s", strings.TrimSpace(string(b)))}
	}
	var created struct {
		ID int `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return 0, &Error{Kind: KindMediaUpload, Err: err}
	}
	slog.Info("uploaded media", slog.String("filename", filename+".jpg"), slog.Int("id", created.ID))
	return created.ID, nil
}

// DownloadImage fetches an image and rejects responses that are not images.
func (c *Client) DownloadImage(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http().Do(req)
	if err != nil {
		return nil, err
	}
	defer closeBody(resp)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("download image: status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "image/") {
		return nil, fmt.Errorf("download image: content type %q is not an image", ct)
	}
	return io.ReadAll(resp.Body)
}

// SermonExists reports whether a sermon post with the given slug exists.
func (c *Client) SermonExists(ctx context.Context, slug string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/sermons?slug="+slug, nil)
	if err != nil {
		return false, err
	}
	resp, err := c.do(req)
	if err != nil {
		return false, err
	}
	defer closeBody(resp)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, fmt.Errorf("sermon lookup: status %d", resp.StatusCode)
	}
	var posts []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&posts); err != nil {
		return false, err
	}
	return len(posts) > 0, nil
}

type sermonPayload struct {
	Title         string            `json:"title"`
	Slug          string            `json:"slug"`
	Status        string            `json:"status"`
	Meta          map[string]string `json:"meta"`
	SermonSeries  int               `json:"sermon_series"`
	SermonSpeaker int               `json:"sermon_speaker"`
	SermonBook    int               `json:"sermon_book,omitempty"`
	Date          string            `json:"date"`
	FeaturedMedia int               `json:"featured_media"`
}

// PostSermon creates the sermon post for md, resolving taxonomy terms and the
// featured image first. A post whose slug already exists is skipped (logged,
// nil error) so re-runs never duplicate sermons.
func (c *Client) PostSermon(ctx context.Context, md sermon.Metadata, embedHTML string) error {
	exists, err := c.SermonExists(ctx, md.Slug)
	if err != nil {
		return &Error{Kind: KindPost, Err: err}
	}
	if exists {
		slog.Info("sermon already exists, skipping", slog.String("slug", md.Slug))
		telemetry.IncSermonSkipped()
		return nil
	}

	seriesID, err := c.GetOrCreateTerm(ctx, "sermon_series", md.SeriesName)
	if err != nil {
		return err
	}
	speakerID, err := c.GetOrCreateTerm(ctx, "sermon_speaker", md.SpeakerName)
	if err != nil {
		return err
	}
	bookID, found, err := c.LookupBook(ctx, md.BookName)
	if err != nil {
		return err
	}
	if !found {
		slog.Warn("scripture book not found on site", slog.String("book", md.BookName), slog.String("slug", md.Slug))
	}

	mediaID, err := c.resolveFeaturedImage(ctx, md)
	if err != nil {
		return err
	}

	payload := sermonPayload{
		Title:  md.Title,
		Slug:   md.Slug,
		Status: "publish",
		Meta: map[string]string{
			"asp_sermon_video_type_select": "youtube",
			"asp_sermon_youtube":           md.YouTubeURL,
			"asp_sermon_audio_embed":       embedHTML,
			"asp_sermon_bible_passage":     md.BiblePassage,
		},
		SermonSeries:  seriesID,
		SermonSpeaker: speakerID,
		SermonBook:    bookID,
		Date:          md.SermonDate,
		FeaturedMedia: mediaID,
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/sermons", bytes.NewReader(body))
	if err != nil {
		return &Error{Kind: KindPost, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return &Error{Kind: KindPost, Err: err}
	}
	defer closeBody(resp)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &Error{Kind: KindPost, Status: resp.StatusCode, Err: fmt.Errorf("create sermon %q: %s", md.Slug, strings.TrimSpace(string(b)))}
	}
	slog.Info("sermon posted", slog.String("slug", md.Slug), slog.String("title", md.Title))
	telemetry.IncSermonPosted()
	return nil
}

// resolveFeaturedImage finds an already-uploaded series image or uploads the
// recording thumbnail under the series name.
func (c *Client) resolveFeaturedImage(ctx context.Context, md sermon.Metadata) (int, error) {
	id, found, err := c.MediaExists(ctx, md.SeriesName)
	if err != nil {
		return 0, &Error{Kind: KindMediaUpload, Err: err}
	}
	if found {
		return id, nil
	}
	content, err := c.DownloadImage(ctx, md.ImageURL)
	if err != nil {
		return 0, &Error{Kind: KindMediaUpload, Err: err}
	}
	return c.UploadImage(ctx, content, md.SeriesName)
}

func totalPagesHeader(resp *http.Response) int {
	n, err := strconv.Atoi(resp.Header.Get("X-WP-TotalPages"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func closeBody(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		slog.Warn("failed to close response body", slog.Any("err", err))
	}
}
