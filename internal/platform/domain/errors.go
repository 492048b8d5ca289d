package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	ErrVideoNotFound       = errors.New("video not found")
)

// ProviderError reports an upstream API rejection. Terminal for the run.
type ProviderError struct {
	Platform Platform
	Status   int
	Message  string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s api error: %d %s", e.Platform, e.Status, e.Message)
}
