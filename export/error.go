package export

import (
	"errors"
	"fmt"
	"strings"
)

// Stage of export.
type Stage string

const (
	// StageRender is the mix of the timeline.
	StageRender Stage = "render"
	// StageWrite is the encoding of rendered data.
	StageWrite Stage = "write"
)

// Error is returned if export was started, but render or write failed.
type Error struct {
	Stage Stage
	Path  string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("export %s: %s error: %v", e.Path, e.Stage, e.Err)
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// SkipErrors lists clips which didn't make it into the render.
type SkipErrors []error

func (e SkipErrors) Error() string {
	s := []string{}
	for _, se := range e {
		s = append(s, se.Error())
	}
	return strings.Join(s, ",")
}

// Is checks if any of errors match provided sentinel error.
func (e SkipErrors) Is(err error) bool {
	for _, se := range e {
		if errors.Is(se, err) {
			return true
		}
	}
	return false
}
