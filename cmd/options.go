// Copyright © 2024 The ELPS authors

package cmd

import (
	"io"
	"os"

	"github.com/luthersystems/corelisp/lisp"
)

// Option configures an exported command factory (KindsCommand,
// DispatchCommand, ProfileCommand).
type Option func(*cmdConfig)

type cmdConfig struct {
	out    io.Writer
	config []lisp.Config
}

// WithOutput directs command output to w instead of stdout.
func WithOutput(w io.Writer) Option {
	return func(c *cmdConfig) { c.out = w }
}

// WithRuntimeConfig adds configuration applied to runtimes created by a
// command, after the configuration derived from flags.
func WithRuntimeConfig(config ...lisp.Config) Option {
	return func(c *cmdConfig) { c.config = append(c.config, config...) }
}

func newCmdConfig(opts []Option) *cmdConfig {
	c := &cmdConfig{out: os.Stdout}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// newRuntime creates a runtime logging at the level selected by the
// log-level setting.
func (c *cmdConfig) newRuntime() (*lisp.Runtime, error) {
	logger, err := newLogger()
	if err != nil {
		return nil, err
	}
	config := append([]lisp.Config{lisp.WithLogger(logger)}, c.config...)
	return lisp.NewRuntime(config...)
}
