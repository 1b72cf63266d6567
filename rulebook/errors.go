package rulebook

import (
	"context"
	"errors"
	"fmt"

	"github.com/awantoch/promptgate/blob"
	"github.com/awantoch/promptgate/storage"
)

// ErrEmptyContent is reported when the source returns an empty rulebook.
// An empty result never replaces cached content.
var ErrEmptyContent = errors.New("rulebook source returned empty content")

// UpstreamFetchError means the rulebook could not be fetched and no earlier
// copy was available to fall back to.
type UpstreamFetchError struct {
	Source string
	Cause  error
}

func (e *UpstreamFetchError) Error() string {
	return fmt.Sprintf("rulebook fetch from %s failed: %v", e.Source, e.Cause)
}

func (e *UpstreamFetchError) Unwrap() error {
	return e.Cause
}

// Timeout reports whether the fetch hit its deadline.
func (e *UpstreamFetchError) Timeout() bool {
	return errors.Is(e.Cause, context.DeadlineExceeded)
}

// Retryable reports whether trying again later may succeed. A rulebook that
// does not exist at the source will not appear by retrying.
func (e *UpstreamFetchError) Retryable() bool {
	return !errors.Is(e.Cause, storage.ErrNotFound) &&
		!errors.Is(e.Cause, blob.ErrNotFound) &&
		!errors.Is(e.Cause, ErrEmptyContent)
}
