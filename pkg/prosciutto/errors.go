package prosciutto

import (
	"errors"
	"fmt"

	"github.com/BrandonKowalski/prosciutto/pkg/prosciutto/router"
)

// ErrAlreadyStarted is returned by a second call to App.Start.
var ErrAlreadyStarted = errors.New("prosciutto: app already started")

// InfrastructureError reports a bootstrap failure: the config would not load,
// a resource bundle was broken, a region could not be created. Navigation
// failures are never InfrastructureErrors; they come back as router.Result.
type InfrastructureError struct {
	Op  string // Operation that failed (e.g., "load_config", "add_region")
	Err error  // Underlying error
}

func (e *InfrastructureError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("prosciutto: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("prosciutto: %s", e.Op)
}

func (e *InfrastructureError) Unwrap() error {
	return e.Err
}

// NewInfrastructureError creates a new infrastructure error.
func NewInfrastructureError(op string, err error) *InfrastructureError {
	return &InfrastructureError{Op: op, Err: err}
}

// IsInfrastructureError checks if an error is an infrastructure error.
func IsInfrastructureError(err error) bool {
	var infraErr *InfrastructureError
	return errors.As(err, &infraErr)
}

// IsCancelled reports whether err is a cancelled navigation.
func IsCancelled(err error) bool {
	return router.KindOf(err) == router.KindCancelled
}
