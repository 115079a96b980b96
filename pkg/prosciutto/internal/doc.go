// Package internal contains the shared infrastructure of the prosciutto
// library: logging, theming state and UI-loop goroutine identification.
// Types and functions in this package are not part of the public API.
package internal
