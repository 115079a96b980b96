//go:build !sdl

package main

import (
	"context"
	"errors"
	"io"

	"github.com/BrandonKowalski/prosciutto/pkg/prosciutto/config"
)

func runWindowed(context.Context, config.Config, *Script, io.Writer) error {
	return errors.New("built without SDL support; rebuild with -tags sdl")
}
