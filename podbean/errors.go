package podbean

import (
	"errors"
	"fmt"
)

// Kind tags which stage of the Podbean flow an error came from, so callers can
// record per-file failures without string matching.
type Kind int

const (
	// KindAuth indicates the client-credentials token exchange failed.
	KindAuth Kind = iota
	// KindUploadAuth indicates the host rejected the upload-authorize request.
	KindUploadAuth
	// KindTransfer indicates the presigned upload itself failed.
	KindTransfer
	// KindEpisodeCreate indicates the episode-create call failed.
	KindEpisodeCreate
)

// String returns a human-readable name for the error kind.
func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindUploadAuth:
		return "upload_auth"
	case KindTransfer:
		return "transfer"
	case KindEpisodeCreate:
		return "episode_create"
	default:
		return "unknown"
	}
}

// Error is a tagged Podbean failure. Status is the remote HTTP status when one
// was received; Body carries the response body for episode-create failures.
type Error struct {
	Kind   Kind
	Status int
	Body   string
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("podbean %s failed", e.Kind)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s: status %d", msg, e.Status)
	}
	if e.Body != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Body)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is a Podbean *Error of the given kind.
func IsKind(err error, k Kind) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == k
}
