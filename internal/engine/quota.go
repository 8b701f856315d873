package engine

import "fmt"

// QuotaEnforcer counts executed instructions for one top-level call and
// enforces a maximum.
//
// The quota spans nested calls into module functions and hosted
// artifacts, so a deep chain of small functions is bounded as a whole.
// It is not safe for concurrent use; a call runs on one goroutine.
type QuotaEnforcer struct {
	maxSteps int
	current  int
}

// NewQuotaEnforcer creates a new quota enforcer with the given limit.
// A limit of zero or less disables the quota.
func NewQuotaEnforcer(maxSteps int) *QuotaEnforcer {
	return &QuotaEnforcer{maxSteps: maxSteps}
}

// Check increments the step counter and validates against the limit.
func (q *QuotaEnforcer) Check(function string) error {
	q.current++
	if q.maxSteps > 0 && q.current > q.maxSteps {
		return &StepsExceededError{
			Function: function,
			Steps:    q.current,
			Limit:    q.maxSteps,
		}
	}
	return nil
}

// Current returns the current step count.
func (q *QuotaEnforcer) Current() int {
	return q.current
}

// StepsExceededError is returned when a call exceeds the max steps quota.
type StepsExceededError struct {
	Function string // function executing when the limit was hit
	Steps    int
	Limit    int
}

// Error implements the error interface.
func (e *StepsExceededError) Error() string {
	return fmt.Sprintf("@%s exceeded max steps quota: %d steps > %d limit",
		e.Function, e.Steps, e.Limit)
}
