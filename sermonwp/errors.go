package sermonwp

import (
	"errors"
	"fmt"
)

// Kind tags which content-site operation failed.
type Kind int

const (
	// KindTaxonomy indicates a term search or create failed.
	KindTaxonomy Kind = iota
	// KindMediaUpload indicates an image upload failed.
	KindMediaUpload
	// KindPost indicates a sermon post step failed.
	KindPost
)

func (k Kind) String() string {
	switch k {
	case KindTaxonomy:
		return "taxonomy"
	case KindMediaUpload:
		return "media_upload"
	case KindPost:
		return "post"
	default:
		return "unknown"
	}
}

// Error is a tagged content-site failure.
type Error struct {
	Kind   Kind
	Status int
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("sermon site %s failed", e.Kind)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s: status %d", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is a sermon-site *Error of the given kind.
func IsKind(err error, k Kind) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == k
}
