package upstream

import (
	"fmt"

	"github.com/meridian-bms/meridian/internal/platform/httpx"
)

// RemoteError is a typed failure from the upstream API: either a transport
// failure (Status 0) or a non-success response. Message is human readable
// and safe to surface to the initiating action.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("upstream unreachable: %s", e.Message)
	}
	return e.Message
}

// Unwrap classifies the error for httpx.RespondError.
func (e *RemoteError) Unwrap() error {
	return httpx.ErrUpstream
}
