package extractor

import (
	"errors"
	"strings"
)

var (
	ErrTimeout        = errors.New("extractor timed out")
	ErrOutputTooLarge = errors.New("extractor output exceeded limit")
)

// Error is an extractor run that failed to start or exited unsuccessfully.
// Its message is the extractor's own diagnostic when it wrote one.
type Error struct {
	Stderr string
	Err    error
}

func (e *Error) Error() string {
	if msg := strings.TrimSpace(e.Stderr); msg != "" {
		return msg
	}
	if e.Err == nil {
		return "extractor failed"
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}
