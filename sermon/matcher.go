package sermon

import (
	"strings"

	"github.com/onnwee/sermon-publisher/podbean"
	"github.com/onnwee/sermon-publisher/youtubeapi"
)

// MatchedPair joins a recording with the podcast episode produced from the
// same sermon. Each pair is consumed exactly once downstream.
type MatchedPair struct {
	Recording youtubeapi.Recording
	Episode   podbean.Episode
}

// Match reconciles recordings against episodes by normalized title. On the
// first match the episode leaves the candidate pool, so one episode can never
// satisfy two recordings. Unmatched items on either side are simply omitted.
//
// overrides is a substring allowlist for recurring series whose published
// episode titles diverge textually from the recording titles: both normalized
// titles containing the same override substring counts as a match even when
// the titles are not otherwise equal.
func Match(recordings []youtubeapi.Recording, episodes []podbean.Episode, overrides []string) []MatchedPair {
	pool := make([]podbean.Episode, len(episodes))
	copy(pool, episodes)

	var pairs []MatchedPair
	for _, rec := range recordings {
		recTitle := NormalizeRecordingTitle(rec.Title)
		for i, ep := range pool {
			if !titlesMatch(recTitle, NormalizeEpisodeTitle(ep.Title), overrides) {
				continue
			}
			pairs = append(pairs, MatchedPair{Recording: rec, Episode: ep})
			pool = append(pool[:i], pool[i+1:]...)
			break
		}
	}
	return pairs
}

func titlesMatch(recTitle, epTitle string, overrides []string) bool {
	for _, sub := range overrides {
		if strings.Contains(recTitle, sub) && strings.Contains(epTitle, sub) {
			return true
		}
	}
	return recTitle == epTitle
}

// NormalizeRecordingTitle lowercases and maps the typographic right single
// quote to an ASCII apostrophe.
func NormalizeRecordingTitle(title string) string {
	return strings.ReplaceAll(strings.ToLower(title), "’", "'")
}

// NormalizeEpisodeTitle lowercases, truncates at the first hyphen or em-dash
// (episode titles carry a " - Speaker" style suffix the recordings lack), and
// maps the right single quote to an ASCII apostrophe.
func NormalizeEpisodeTitle(title string) string {
	t := strings.ToLower(title)
	if i := strings.IndexAny(t, "-–—"); i >= 0 {
		t = strings.TrimRight(t[:i], " ")
	}
	return strings.ReplaceAll(t, "’", "'")
}
