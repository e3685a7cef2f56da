// Package sermon holds the domain logic of the pipeline: parsing sermon
// metadata out of recording descriptions and matching recordings to podcast
// episodes by normalized title.
package sermon

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Metadata is the structured form of a human-authored recording description.
// The description format is strictly positional:
//
//	line 0: sermon title
//	line 1: bible passage
//	line 2: "<label>: <series name>"
//	line 3: speaker
//	line 4: date, e.g. "October 6th, 2024"
type Metadata struct {
	Title        string
	Slug         string
	BiblePassage string
	SeriesName   string
	SpeakerName  string
	BookName     string
	SermonDate   string // 2006-01-02T15:04:05
	YouTubeURL   string
	ImageURL     string
}

// ParseError reports a malformed description line.
type ParseError struct {
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("description line %d: %s", e.Line, e.Reason)
}

// DateParseError reports a date line that survived ordinal stripping but does
// not match the expected "Month Day, Year" pattern.
type DateParseError struct {
	Input string
	Err   error
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("unparseable sermon date %q: %v", e.Input, e.Err)
}

func (e *DateParseError) Unwrap() error { return e.Err }

const dateLayout = "January 2, 2006"

var ordinalPattern = regexp.MustCompile(`(\d{1,2})(st|nd|rd|th)`)

// ParseDescription extracts sermon metadata from a raw multi-line description.
// Parsing is line-indexed on purpose; a description that does not follow the
// five-line format is an error, never silently defaulted.
func ParseDescription(description string) (Metadata, error) {
	lines := strings.Split(description, "\n")
	if len(lines) < 5 {
		return Metadata{}, &ParseError{Line: len(lines), Reason: fmt.Sprintf("need 5 lines, got %d", len(lines))}
	}

	title := lines[0]
	if strings.TrimSpace(title) == "" {
		return Metadata{}, &ParseError{Line: 0, Reason: "empty title"}
	}

	passage := lines[1]
	book, err := bookFromPassage(passage)
	if err != nil {
		return Metadata{}, err
	}

	series, err := seriesFromLine(lines[2])
	if err != nil {
		return Metadata{}, err
	}

	speaker := lines[3]
	if strings.TrimSpace(speaker) == "" {
		return Metadata{}, &ParseError{Line: 3, Reason: "empty speaker"}
	}

	date, err := ConvertToISO(strings.TrimSpace(lines[4]))
	if err != nil {
		return Metadata{}, err
	}

	return Metadata{
		Title:        title,
		Slug:         Slugify(title),
		BiblePassage: passage,
		SeriesName:   series,
		SpeakerName:  speaker,
		BookName:     book,
		SermonDate:   date,
	}, nil
}

// bookFromPassage extracts the scripture book name from the passage line.
// A leading space is a known double-space artifact of the description editor;
// in that case multi-word book names ("1 Corinthians") take the first two
// tokens, single-word ones the first.
func bookFromPassage(passage string) (string, error) {
	tokens := strings.Fields(passage)
	if len(tokens) == 0 {
		return "", &ParseError{Line: 1, Reason: "empty bible passage"}
	}
	if strings.HasPrefix(passage, " ") && len(tokens) > 1 {
		return tokens[0] + " " + tokens[1], nil
	}
	return tokens[0], nil
}

func seriesFromLine(line string) (string, error) {
	_, after, found := strings.Cut(line, ":")
	if !found {
		return "", &ParseError{Line: 2, Reason: "series line missing ':'"}
	}
	series := strings.TrimSpace(after)
	if series == "" {
		return "", &ParseError{Line: 2, Reason: "empty series name"}
	}
	return series, nil
}

// RemoveOrdinalSuffix strips day-number ordinal suffixes from a date string,
// e.g. "October 6th, 2024" -> "October 6, 2024".
func RemoveOrdinalSuffix(dateStr string) string {
	return ordinalPattern.ReplaceAllString(dateStr, "$1")
}

// ConvertToISO parses a "Month Day, Year" date (ordinal suffixes allowed) and
// returns it formatted as 2006-01-02T15:04:05.
func ConvertToISO(dateStr string) (string, error) {
	clean := RemoveOrdinalSuffix(dateStr)
	t, err := time.Parse(dateLayout, clean)
	if err != nil {
		return "", &DateParseError{Input: dateStr, Err: err}
	}
	return t.Format("2006-01-02T15:04:05"), nil
}

// Slugify lowercases and hyphenates a title for use as a post slug.
func Slugify(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), " ", "-")
}
