//go:build !linux

package main

import (
	"errors"

	"expandd/internal/config"
	"expandd/internal/logging"
)

var errUnsupported = errors.New("expandd needs Linux evdev and uinput")

func requireRoot() error { return errUnsupported }

func serve(*config.Config, *logging.Logger) error { return errUnsupported }
