package ctdf

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoData means the backend answered but did not describe a usable train.
var ErrNoData = errors.New("no usable train found")

// UpstreamError is a logical error reported by the backend or a payload of
// an unknown shape.
type UpstreamError struct {
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream error: %s", e.Message)
}

// TransportError wraps network failures, including cancellation of a
// superseded request.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Cancelled is true when the request was abandoned by the caller, which
// must not be surfaced to the user.
func (e *TransportError) Cancelled() bool {
	return errors.Is(e.Err, context.Canceled)
}

func IsCancelled(err error) bool {
	var transportError *TransportError
	if errors.As(err, &transportError) {
		return transportError.Cancelled()
	}

	return errors.Is(err, context.Canceled)
}
