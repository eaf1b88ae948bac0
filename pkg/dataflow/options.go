package dataflow

import "time"

// Option configures a pipeline stage.
type Option func(*config)

type config struct {
	workers    int
	maxRetries int
	backoff    func(int) time.Duration
	// errorHandler returns true when the error was handled and the item may
	// be skipped.
	errorHandler func(error) bool
}

func buildConfig(opts []Option) *config {
	cfg := &config{workers: 1}
	for _, o := range opts {
		o(cfg)
	}
	return cfg
}

// WithWorkers runs a stage on n goroutines. Stages are sequential by default.
func WithWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithRetry retries a failing item up to maxRetries times, sleeping
// backoff(attempt) in between.
func WithRetry(maxRetries int, backoff func(attempt int) time.Duration) Option {
	return func(c *config) {
		c.maxRetries = maxRetries
		c.backoff = backoff
	}
}

// WithErrorHandler is called with the final error of an item. Returning true
// marks the error as handled; ForEach then keeps going.
func WithErrorHandler(h func(error) bool) Option {
	return func(c *config) {
		c.errorHandler = h
	}
}
