package store

import (
	"time"

	"go.uber.org/zap"

	"taskhive/pkg/analytics"
)

const (
	DefaultActivityLimit   = 10
	DefaultRefreshInterval = time.Minute
	DefaultWriteTimeout    = 10 * time.Second
)

// Option configures a Store.
type Option func(*Store)

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l.Named("store")
		}
	}
}

// WithClock replaces time.Now for timestamps and time-ago labels.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithRefreshInterval sets how often activity time labels are recomputed. A
// non-positive interval disables the refresher.
func WithRefreshInterval(d time.Duration) Option {
	return func(s *Store) { s.refreshEvery = d }
}

// WithActivityLimit sets how many feed entries are kept.
func WithActivityLimit(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.activityLimit = n
		}
	}
}

// WithWriteTimeout bounds each remote write, including any wait for the
// creation it depends on.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.writeTimeout = d
		}
	}
}

// WithAnalytics sets the event log mutations report to. Defaults to
// analytics.Default().
func WithAnalytics(l *analytics.Log) Option {
	return func(s *Store) { s.analytics = l }
}
