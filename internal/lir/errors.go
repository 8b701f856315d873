package lir

import (
	"errors"
	"fmt"
)

// VerifyError reports a structurally malformed function.
type VerifyError struct {
	Function string
	Instr    int // -1 when the problem is not tied to one instruction
	Message  string
}

func (e *VerifyError) Error() string {
	if e.Instr >= 0 {
		return fmt.Sprintf("verify @%s: %%%d: %s", e.Function, e.Instr, e.Message)
	}
	return fmt.Sprintf("verify @%s: %s", e.Function, e.Message)
}

// LinkError reports two incompatible functions sharing a symbol.
type LinkError struct {
	Symbol  string
	Message string
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("link @%s: %s", e.Symbol, e.Message)
}

// IsVerifyError returns true if err is or wraps a *VerifyError.
func IsVerifyError(err error) bool {
	var ve *VerifyError
	return errors.As(err, &ve)
}

// IsLinkError returns true if err is or wraps a *LinkError.
func IsLinkError(err error) bool {
	var le *LinkError
	return errors.As(err, &le)
}
