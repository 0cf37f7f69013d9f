package resumevec

import (
	"log/slog"
	"time"

	"github.com/hupe1980/resumevec/blobstore"
)

type options struct {
	metricsCollector MetricsCollector
	logger           *Logger
	blobs            blobstore.Store
	maxFileSize      int64
	newID            func() string
	now              func() time.Time
}

// Option configures Service constructor behavior.
type Option func(*options)

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &resumevec.BasicMetricsCollector{}
//	svc, _ := resumevec.New(embedder, extractor, store, resumevec.WithMetricsCollector(metrics))
//	// ... use svc ...
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := resumevec.NewJSONLogger(slog.LevelInfo)
//	svc, _ := resumevec.New(embedder, extractor, store, resumevec.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithBlobStore configures raw document storage. Uploaded files are kept as
// blobs keyed by owner and resume id; the blob location is recorded with
// each resume.
func WithBlobStore(bs blobstore.Store) Option {
	return func(o *options) {
		o.blobs = bs
	}
}

// WithMaxFileSize overrides the upload size ceiling in bytes.
func WithMaxFileSize(size int64) Option {
	return func(o *options) {
		o.maxFileSize = size
	}
}

// WithIDGenerator overrides resume id generation. Mainly useful in tests.
func WithIDGenerator(fn func() string) Option {
	return func(o *options) {
		o.newID = fn
	}
}

// WithClock overrides the timestamp source. Mainly useful in tests.
func WithClock(fn func() time.Time) Option {
	return func(o *options) {
		o.now = fn
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	return o
}
