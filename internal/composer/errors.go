package composer

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyPost       = errors.New("post content is empty")
	ErrRequestInFlight = errors.New("a score request is already in flight")
	ErrUnknownPlatform = errors.New("unknown platform")
	ErrImagesDisabled  = errors.New("image attachments are disabled")
	ErrNotAnImage      = errors.New("file is not an image")
	ErrImageTooLarge   = errors.New("image exceeds the size limit")
	ErrImageSuperseded = errors.New("image selection was replaced before decoding finished")

	// ErrTransport wraps every failure where no usable reply was obtained.
	ErrTransport = errors.New("scoring service unreachable")
)

// ServerError is a reply from the scoring service that reports failure.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("scoring service returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("scoring service returned status %d: %s", e.StatusCode, e.Message)
}
