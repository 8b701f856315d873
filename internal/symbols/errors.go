package symbols

import (
	"errors"
	"fmt"
)

// ErrArtifactNotFound reports that no search location holds an artifact
// for the symbol.
var ErrArtifactNotFound = errors.New("artifact not found")

// LinkError reports an external symbol that could not be resolved.
type LinkError struct {
	// Symbol is the name as requested by the module.
	Symbol string

	// Artifact is the artifact that failed to load, or the unmangled name
	// when none was found.
	Artifact string

	Err error
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("link @%s: %s: %v", e.Symbol, e.Artifact, e.Err)
}

func (e *LinkError) Unwrap() error {
	return e.Err
}

// IsLinkError returns true if err is or wraps a *LinkError.
func IsLinkError(err error) bool {
	var le *LinkError
	return errors.As(err, &le)
}
