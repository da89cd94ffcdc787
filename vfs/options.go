package vfs

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithLogger overrides the logger an Engine reports every operation's
// human-readable outcome to. The default is logrus.StandardLogger().
func WithLogger(log *logrus.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// WithClock overrides the Engine's time source, for deterministic tests of
// log output and DiskInfo timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}
