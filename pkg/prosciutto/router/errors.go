package router

import (
	"errors"
	"fmt"
)

// Sentinel errors for navigation outcomes and misuse.
var (
	// ErrEmptyStack is returned when popping an empty back-stack or going back
	// from a region that is already at its root.
	ErrEmptyStack = errors.New("router: back-stack is empty")

	// ErrSuperseded marks a request that was preempted by a newer request to
	// the same region. It is an outcome, not a failure.
	ErrSuperseded = errors.New("router: request superseded")

	// ErrCancelled indicates the caller cancelled the request before it committed.
	ErrCancelled = errors.New("router: request cancelled")

	// ErrClosed is returned once the controller or its loop has shut down.
	ErrClosed = errors.New("router: closed")

	// ErrOnLoop is returned by blocking calls made from the UI loop itself,
	// which would otherwise deadlock waiting on work only the loop can run.
	ErrOnLoop = errors.New("router: blocking call made on the UI loop")

	// ErrInvalidRegistration is returned for an empty key or a nil view factory.
	ErrInvalidRegistration = errors.New("router: invalid registration")
)

// DuplicateKeyError is returned when a key is registered twice.
type DuplicateKeyError struct {
	Key Key
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("router: key %q already registered", e.Key)
}

// UnknownKeyError is returned when resolving a key that was never registered.
type UnknownKeyError struct {
	Key Key
}

func (e *UnknownKeyError) Error() string {
	return fmt.Sprintf("router: key %q not registered", e.Key)
}

// DuplicateRegionError is returned when adding a region whose name is taken.
type DuplicateRegionError struct {
	Region string
}

func (e *DuplicateRegionError) Error() string {
	return fmt.Sprintf("router: region %q already exists", e.Region)
}

// UnknownRegionError is returned when a request targets a region that was
// never added or has been removed.
type UnknownRegionError struct {
	Region string
}

func (e *UnknownRegionError) Error() string {
	return fmt.Sprintf("router: region %q not found", e.Region)
}

// HookError wraps a failure raised by a view-model lifecycle hook.
type HookError struct {
	Phase string // "activate", "deactivate" or "parameters"
	Key   Key
	Err   error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("router: %s hook for %q: %v", e.Phase, e.Key, e.Err)
}

func (e *HookError) Unwrap() error {
	return e.Err
}

// ErrorKind classifies a failed navigation for events and results.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindUnknownKey
	KindEmptyStack
	KindUnknownRegion
	KindActivation
	KindCancelled
	KindClosed
	KindInternal
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindUnknownKey:
		return "unknown_key"
	case KindEmptyStack:
		return "empty_stack"
	case KindUnknownRegion:
		return "unknown_region"
	case KindActivation:
		return "activation"
	case KindCancelled:
		return "cancelled"
	case KindClosed:
		return "closed"
	default:
		return "internal"
	}
}

// KindOf maps an error to its ErrorKind.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	var unknownKey *UnknownKeyError
	var unknownRegion *UnknownRegionError
	var hookErr *HookError

	switch {
	case errors.As(err, &unknownKey):
		return KindUnknownKey
	case errors.As(err, &unknownRegion):
		return KindUnknownRegion
	case errors.As(err, &hookErr):
		return KindActivation
	case errors.Is(err, ErrEmptyStack):
		return KindEmptyStack
	case errors.Is(err, ErrCancelled):
		return KindCancelled
	case errors.Is(err, ErrClosed):
		return KindClosed
	default:
		return KindInternal
	}
}

// IsUnknownKey reports whether err is (or wraps) an UnknownKeyError.
func IsUnknownKey(err error) bool {
	var target *UnknownKeyError
	return errors.As(err, &target)
}

// IsDuplicateKey reports whether err is (or wraps) a DuplicateKeyError.
func IsDuplicateKey(err error) bool {
	var target *DuplicateKeyError
	return errors.As(err, &target)
}

// IsEmptyStack reports whether err indicates back navigation past the root.
func IsEmptyStack(err error) bool {
	return errors.Is(err, ErrEmptyStack)
}
