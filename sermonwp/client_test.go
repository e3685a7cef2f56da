package sermonwp

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/onnwee/sermon-publisher/sermon"
	"github.com/onnwee/sermon-publisher/testutil"
)

func TestGetOrCreateTerm_Found(t *testing.T) {
	server := testutil.NewMockWordPressServer(t)
	server.MockTaxonomy("sermon_series", []map[string]interface{}{
		{"id": 7, "name": "Hope Eternal", "slug": "hope-eternal"},
	}, 0)

	c := New(server.URL, "user", "pass")
	id, err := c.GetOrCreateTerm(context.Background(), "sermon_series", "Hope Eternal")
	if err != nil {
		t.Fatalf("GetOrCreateTerm() error = %v", err)
	}
	if id != 7 {
		t.Errorf("GetOrCreateTerm() = %d, want 7", id)
	}
}

func TestGetOrCreateTerm_CaseInsensitive(t *testing.T) {
	server := testutil.NewMockWordPressServer(t)
	server.MockTaxonomy("sermon_speaker", []map[string]interface{}{
		{"id": 3, "name": "John Smith", "slug": "john-smith"},
	}, 0)

	c := New(server.URL, "user", "pass")
	id, err := c.GetOrCreateTerm(context.Background(), "sermon_speaker", "JOHN SMITH")
	if err != nil {
		t.Fatalf("GetOrCreateTerm() error = %v", err)
	}
	if id != 3 {
		t.Errorf("GetOrCreateTerm() = %d, want 3", id)
	}
}

func TestGetOrCreateTerm_CreatesOnMiss(t *testing.T) {
	server := testutil.NewMockWordPressServer(t)
	created := 0
	server.MockTaxonomy("sermon_series", nil, 42)
	base := server.Handlers["/sermon_series"]
	server.Handlers["/sermon_series"] = func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			created++
		}
		base(w, r)
	}

	c := New(server.URL, "user", "pass")
	id, err := c.GetOrCreateTerm(context.Background(), "sermon_series", "New Series")
	if err != nil {
		t.Fatalf("GetOrCreateTerm() error = %v", err)
	}
	if id != 42 {
		t.Errorf("GetOrCreateTerm() = %d, want 42", id)
	}
	if created != 1 {
		t.Errorf("expected 1 create call, got %d", created)
	}

	// Second resolution must come from the run cache, not another create.
	id2, err := c.GetOrCreateTerm(context.Background(), "sermon_series", "New Series")
	if err != nil {
		t.Fatalf("GetOrCreateTerm() cached error = %v", err)
	}
	if id2 != 42 || created != 1 {
		t.Errorf("cached lookup = %d (creates %d), want 42 with 1 create", id2, created)
	}
}

func TestGetOrCreateTerm_PagesThroughResults(t *testing.T) {
	server := testutil.NewMockWordPressServer(t)
	server.Handlers["/sermon_series"] = func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		w.Header().Set("X-WP-TotalPages", "2")
		w.Header().Set("Content-Type", "application/json")
		if page >= 2 {
			json.NewEncoder(w).Encode([]map[string]interface{}{
				{"id": 9, "name": "Hope Eternal", "slug": "hope-eternal"},
			})
			return
		}
		json.NewEncoder(w).Encode([]map[string]interface{}{
			{"id": 1, "name": "Hope Deferred", "slug": "hope-deferred"},
		})
	}

	c := New(server.URL, "user", "pass")
	id, err := c.GetOrCreateTerm(context.Background(), "sermon_series", "Hope Eternal")
	if err != nil {
		t.Fatalf("GetOrCreateTerm() error = %v", err)
	}
	if id != 9 {
		t.Errorf("GetOrCreateTerm() = %d, want 9 from page 2", id)
	}
}

func TestLookupBook_NoCreateOnMiss(t *testing.T) {
	server := testutil.NewMockWordPressServer(t)
	server.Handlers["/sermon_book"] = func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			t.Error("LookupBook must never create terms")
		}
		w.Header().Set("X-WP-TotalPages", "1")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]map[string]interface{}{})
	}

	c := New(server.URL, "user", "pass")
	_, found, err := c.LookupBook(context.Background(), "Obadiah")
	if err != nil {
		t.Fatalf("LookupBook() error = %v", err)
	}
	if found {
		t.Error("LookupBook() found = true, want false")
	}
}

func TestMediaExists(t *testing.T) {
	server := testutil.NewMockWordPressServer(t)
	server.MockMediaSearch([]map[string]interface{}{
		{"id": 11, "slug": "banner-hope-eternal-2"},
		{"id": 12, "slug": "something-else"},
	})

	c := New(server.URL, "user", "pass")
	id, found, err := c.MediaExists(context.Background(), "Hope Eternal")
	if err != nil {
		t.Fatalf("MediaExists() error = %v", err)
	}
	if !found || id != 11 {
		t.Errorf("MediaExists() = %d/%v, want 11/true", id, found)
	}
}

func TestMediaExists_Miss(t *testing.T) {
	server := testutil.NewMockWordPressServer(t)
	server.MockMediaSearch([]map[string]interface{}{
		{"id": 12, "slug": "something-else"},
	})

	c := New(server.URL, "user", "pass")
	_, found, err := c.MediaExists(context.Background(), "Hope Eternal")
	if err != nil {
		t.Fatalf("MediaExists() error = %v", err)
	}
	if found {
		t.Error("MediaExists() found = true, want false")
	}
}

func TestUploadImage(t *testing.T) {
	server := testutil.NewMockWordPressServer(t)
	server.Handlers["/media"] = func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if got := r.Header.Get("Content-Disposition"); got != "attachment; filename=Hope Eternal.jpg" {
			t.Errorf("Content-Disposition = %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "image/jpeg" {
			t.Errorf("Content-Type = %q, want image/jpeg", got)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "user" || pass != "app-pass" {
			t.Errorf("basic auth = %s/%s/%v", user, pass, ok)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"id": 55})
	}

	c := New(server.URL, "user", "app-pass")
	id, err := c.UploadImage(context.Background(), []byte("jpeg bytes"), "Hope Eternal")
	if err != nil {
		t.Fatalf("UploadImage() error = %v", err)
	}
	if id != 55 {
		t.Errorf("UploadImage() = %d, want 55", id)
	}
}

func TestUploadImage_EmptyContent(t *testing.T) {
	c := New("http://unused.invalid", "user", "pass")
	_, err := c.UploadImage(context.Background(), nil, "x")
	if !IsKind(err, KindMediaUpload) {
		t.Errorf("UploadImage() error = %v, want KindMediaUpload", err)
	}
}

func TestDownloadImage_RejectsNonImage(t *testing.T) {
	server := testutil.NewMockWordPressServer(t)
	server.Handlers["/thumb.jpg"] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>not found</html>"))
	}

	c := New(server.URL, "user", "pass")
	_, err := c.DownloadImage(context.Background(), server.URL+"/thumb.jpg")
	if err == nil || !strings.Contains(err.Error(), "not an image") {
		t.Errorf("DownloadImage() error = %v, want non-image rejection", err)
	}
}

func testMetadata() sermon.Metadata {
	return sermon.Metadata{
		Title:        "A Living Hope",
		Slug:         "a-living-hope",
		BiblePassage: " 1 Peter 1:3-9",
		SeriesName:   "Hope Eternal",
		SpeakerName:  "John Smith",
		BookName:     "1 Peter",
		SermonDate:   "2024-10-06T00:00:00",
		YouTubeURL:   "https://www.youtube.com/watch?v=v1",
		ImageURL:     "http://img.example/thumb.jpg",
	}
}

func TestPostSermon_SkipsExisting(t *testing.T) {
	server := testutil.NewMockWordPressServer(t)
	server.Handlers["/sermons"] = func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			t.Error("PostSermon must not create when the slug exists")
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]map[string]interface{}{{"id": 1, "slug": "a-living-hope"}})
	}

	c := New(server.URL, "user", "pass")
	if err := c.PostSermon(context.Background(), testMetadata(), "<iframe></iframe>"); err != nil {
		t.Fatalf("PostSermon() on existing slug error = %v, want nil skip", err)
	}
}

func TestPostSermon_CreatesPost(t *testing.T) {
	server := testutil.NewMockWordPressServer(t)
	server.MockTaxonomy("sermon_series", []map[string]interface{}{
		{"id": 7, "name": "Hope Eternal", "slug": "hope-eternal"},
	}, 0)
	server.MockTaxonomy("sermon_speaker", nil, 21)
	server.MockTaxonomy("sermon_book", []map[string]interface{}{
		{"id": 66, "name": "1 Peter", "slug": "1-peter"},
	}, 0)
	server.MockMediaSearch([]map[string]interface{}{
		{"id": 11, "slug": "hope-eternal-banner"},
	})

	var posted sermonPayload
	server.Handlers["/sermons"] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodGet {
			json.NewEncoder(w).Encode([]map[string]interface{}{})
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&posted); err != nil {
			t.Fatalf("decode sermon payload: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{"id": 101})
	}

	c := New(server.URL, "user", "pass")
	if err := c.PostSermon(context.Background(), testMetadata(), "<iframe>embed</iframe>"); err != nil {
		t.Fatalf("PostSermon() error = %v", err)
	}

	if posted.Slug != "a-living-hope" || posted.Status != "publish" {
		t.Errorf("posted slug/status = %s/%s", posted.Slug, posted.Status)
	}
	if posted.SermonSeries != 7 || posted.SermonSpeaker != 21 || posted.SermonBook != 66 {
		t.Errorf("posted terms = series %d, speaker %d, book %d", posted.SermonSeries, posted.SermonSpeaker, posted.SermonBook)
	}
	if posted.FeaturedMedia != 11 {
		t.Errorf("posted featured_media = %d, want the existing series image 11", posted.FeaturedMedia)
	}
	if posted.Date != "2024-10-06T00:00:00" {
		t.Errorf("posted date = %s", posted.Date)
	}
	if posted.Meta["asp_sermon_video_type_select"] != "youtube" {
		t.Errorf("meta video type = %s", posted.Meta["asp_sermon_video_type_select"])
	}
	if posted.Meta["asp_sermon_youtube"] != "https://www.youtube.com/watch?v=v1" {
		t.Errorf("meta youtube url = %s", posted.Meta["asp_sermon_youtube"])
	}
	if posted.Meta["asp_sermon_audio_embed"] != "<iframe>embed</iframe>" {
		t.Errorf("meta audio embed = %s", posted.Meta["asp_sermon_audio_embed"])
	}
	if posted.Meta["asp_sermon_bible_passage"] != " 1 Peter 1:3-9" {
		t.Errorf("meta bible passage = %q", posted.Meta["asp_sermon_bible_passage"])
	}
}

func TestPostSermon_UploadsThumbnailWhenNoSeriesImage(t *testing.T) {
	server := testutil.NewMockWordPressServer(t)
	server.MockTaxonomy("sermon_series", nil, 7)
	server.MockTaxonomy("sermon_speaker", nil, 21)
	server.MockTaxonomy("sermon_book", nil, 0)
	server.Handlers["/thumb.jpg"] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpeg bytes"))
	}

	uploaded := false
	server.Handlers["/media"] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodPost {
			uploaded = true
			json.NewEncoder(w).Encode(map[string]interface{}{"id": 77})
			return
		}
		json.NewEncoder(w).Encode([]map[string]interface{}{})
	}

	var posted sermonPayload
	server.Handlers["/sermons"] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodGet {
			json.NewEncoder(w).Encode([]map[string]interface{}{})
			return
		}
		json.NewDecoder(r.Body).Decode(&posted)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{"id": 102})
	}

	md := testMetadata()
	md.ImageURL = server.URL + "/thumb.jpg"

	c := New(server.URL, "user", "pass")
	if err := c.PostSermon(context.Background(), md, "<iframe></iframe>"); err != nil {
		t.Fatalf("PostSermon() error = %v", err)
	}
	if !uploaded {
		t.Error("thumbnail should have been uploaded when no series image exists")
	}
	if posted.FeaturedMedia != 77 {
		t.Errorf("posted featured_media = %d, want the uploaded image 77", posted.FeaturedMedia)
	}
}
