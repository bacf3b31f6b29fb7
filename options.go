package slichash

import (
	"log/slog"

	"github.com/hupe1980/slichash/colorspace"
	"github.com/hupe1980/slichash/quantization"
	"github.com/hupe1980/slichash/resource"
	"github.com/hupe1980/slichash/segment"
)

type options struct {
	quantization     quantization.Config
	segmenter        segment.Segmenter
	colorSpace       colorspace.Converter
	resources        *resource.Controller
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures a DB.
type Option func(*options)

// WithQuantization configures the bucket layout. Database and query images
// are always quantized with the same configuration.
//
// Example for a database of 640×480 images:
//
//	cfg := quantization.DefaultConfig()
//	cfg.MaxWidth, cfg.MaxHeight = 640, 480
//	db, err := slichash.New(slichash.WithQuantization(cfg))
func WithQuantization(cfg quantization.Config) Option {
	return func(o *options) {
		o.quantization = cfg
	}
}

// WithSegmenter configures the segmenter used by AddImage, QueryImage,
// Build and IndexStore. Add and Query take label maps and never use it.
func WithSegmenter(s segment.Segmenter) Option {
	return func(o *options) {
		o.segmenter = s
	}
}

// WithColorSpace configures the colour space images are converted to before
// segmentation and aggregation. Defaults to colorspace.BGR.
func WithColorSpace(conv colorspace.Converter) Option {
	return func(o *options) {
		if conv == nil {
			conv = colorspace.BGR{}
		}
		o.colorSpace = conv
	}
}

// WithResources bounds concurrency and memory of image processing.
// Pass nil for no limits.
func WithResources(rc *resource.Controller) Option {
	return func(o *options) {
		o.resources = rc
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &slichash.BasicMetricsCollector{}
//	db, _ := slichash.New(slichash.WithMetricsCollector(metrics))
//	// ... use db ...
//	stats := metrics.GetStats()
//	fmt.Printf("Queries: %d, Avg latency: %dns\n", stats.QueryCount, stats.QueryAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := slichash.NewJSONLogger(slog.LevelInfo)
//	db, _ := slichash.New(slichash.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
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

func applyOptions(optFns []Option) options {
	o := options{
		quantization:     quantization.DefaultConfig(),
		colorSpace:       colorspace.BGR{},
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
