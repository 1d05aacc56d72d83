package dat

import "log/slog"

// Option configures an Archive.
type Option func(*Archive)

// WithLogger sets the logger for archive and item events.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Archive) {
		a.logger = logger
	}
}

// WithMaxEntrySize limits the packed and unpacked size of entries opened
// from the archive. Set limit to 0 to disable the limit.
func WithMaxEntrySize(limit uint64) Option {
	return func(a *Archive) {
		a.maxEntrySize = limit
	}
}

// WithCache keeps the content of up to n recently read entries in memory
// for ReadFile. Values <= 0 disable the cache, which is the default.
func WithCache(n int) Option {
	return func(a *Archive) {
		a.cacheSize = n
	}
}
