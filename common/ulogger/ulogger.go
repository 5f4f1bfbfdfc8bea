//
// Copyright (c) 2025-2026 Reach3D Labs Inc.
// Please see the LICENSE file for details
//

// Package ulogger constructs the zerolog logger used across the agent.
package ulogger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type settings struct {
	prefix  string
	logfile string
	stdout  bool
	debug   bool
}

// Option is a function that configures the logger
type Option func(*settings) error

// New creates a logger with the provided options. With no options it
// logs JSON to stdout at info level.
func New(options ...Option) (zerolog.Logger, error) {
	s := &settings{stdout: true}

	for _, option := range options {
		if err := option(s); err != nil {
			return zerolog.Nop(), err
		}
	}

	var writers []io.Writer
	if s.stdout {
		writers = append(writers, os.Stdout)
	}
	if s.logfile != "" {
		f, err := os.OpenFile(s.logfile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("unable to open log file: %w", err)
		}
		writers = append(writers, f)
	}
	if len(writers) == 0 {
		writers = append(writers, io.Discard)
	}

	level := zerolog.InfoLevel
	if s.debug {
		level = zerolog.DebugLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339
	ctx := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp()
	if s.prefix != "" {
		ctx = ctx.Str("service", s.prefix)
	}
	return ctx.Logger(), nil
}

// WithPrefix sets a process name or similar short identifier
func WithPrefix(prefix string) Option {
	return func(s *settings) error {
		s.prefix = prefix
		return nil
	}
}

// WithLogFile appends log output to the named file
func WithLogFile(logfile string) Option {
	return func(s *settings) error {
		s.logfile = logfile
		return nil
	}
}

// WithStdout enables or disables logging to stdout
func WithStdout(stdout bool) Option {
	return func(s *settings) error {
		s.stdout = stdout
		return nil
	}
}

// WithDebug enables or disables debug logging
func WithDebug(debug bool) Option {
	return func(s *settings) error {
		s.debug = debug
		return nil
	}
}
