package service

import (
	"errors"
	"fmt"
)

// ErrInsufficientCredits is returned before any remote call is made; the
// caller sees it as a blocking notice and no state has changed.
var ErrInsufficientCredits = errors.New("insufficient credits")

// ErrSaveFailure marks a pipeline run whose content was generated but could
// not be persisted. The in-memory project is still returned to the caller.
var ErrSaveFailure = errors.New("project save failed")

// Generation error kinds, one per remote operation.
const (
	KindOutline = "outline"
	KindImage   = "image"
	KindVideo   = "video"
	KindAudio   = "audio"
	KindRefine  = "refine"
	KindTimeout = "timeout"
)

// GenerationError wraps a failed or structurally invalid remote generation
// call. Kind identifies which operation failed.
type GenerationError struct {
	Kind string
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation failed: %v", e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func genErr(kind, format string, args ...interface{}) *GenerationError {
	return &GenerationError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// IsGenerationKind reports whether err is a GenerationError of the given kind.
func IsGenerationKind(err error, kind string) bool {
	var ge *GenerationError
	return errors.As(err, &ge) && ge.Kind == kind
}
