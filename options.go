package reactor

import "fmt"

// config holds the resolved, recognized Reactor options (spec.md §4.6).
type config struct {
	outQueueSize         int
	maxConnections       int
	timersPerConnection  int
	pollTimeoutMs        int
	metricsEnabled       bool
	logger               Logger
}

// defaults per spec.md §4.6.
const (
	defaultOutQueueSize        = 524288
	defaultMaxConnections      = 10240
	defaultTimersPerConnection = 1
	defaultPollTimeoutMs       = 100
)

// Option configures a Reactor at construction time.
type Option interface {
	apply(*config) error
}

type optionFunc func(*config) error

func (f optionFunc) apply(c *config) error { return f(c) }

// WithOutQueueSize sets the cross-thread notify channel's capacity.
func WithOutQueueSize(n int) Option {
	return optionFunc(func(c *config) error {
		if n <= 0 {
			return &ConfigError{Option: "out_queue_size", Cause: fmt.Errorf("must be positive, got %d", n)}
		}
		c.outQueueSize = n
		return nil
	})
}

// WithMaxConnections sets the upper bound on live connection slots.
func WithMaxConnections(n int) Option {
	return optionFunc(func(c *config) error {
		if n <= 0 {
			return &ConfigError{Option: "max_connections", Cause: fmt.Errorf("must be positive, got %d", n)}
		}
		c.maxConnections = n
		return nil
	})
}

// WithTimersPerConnection sets the multiplier used to size the timer slab.
func WithTimersPerConnection(n int) Option {
	return optionFunc(func(c *config) error {
		if n <= 0 {
			return &ConfigError{Option: "timers_per_connection", Cause: fmt.Errorf("must be positive, got %d", n)}
		}
		c.timersPerConnection = n
		return nil
	})
}

// WithPollTimeout sets the poller's tick upper bound, in milliseconds.
func WithPollTimeout(ms int) Option {
	return optionFunc(func(c *config) error {
		if ms <= 0 {
			return &ConfigError{Option: "poll_timeout_ms", Cause: fmt.Errorf("must be positive, got %d", ms)}
		}
		c.pollTimeoutMs = ms
		return nil
	})
}

// WithMetrics enables the Reactor's lightweight instrumentation,
// retrievable via Reactor.Metrics(). Mirrors the teacher event loop's
// opt-in WithMetrics: disabled by default, in which case the counters
// are not updated.
func WithMetrics(enabled bool) Option {
	return optionFunc(func(c *config) error {
		c.metricsEnabled = enabled
		return nil
	})
}

// WithLogger installs a structured Logger. The default is a no-op
// logger; see logging.go for DefaultLogger and LogifaceLogger.
func WithLogger(logger Logger) Option {
	return optionFunc(func(c *config) error {
		if logger == nil {
			return &ConfigError{Option: "logger", Cause: fmt.Errorf("logger must not be nil")}
		}
		c.logger = logger
		return nil
	})
}

// resolveOptions applies Options over the documented defaults.
func resolveOptions(opts []Option) (*config, error) {
	c := &config{
		outQueueSize:        defaultOutQueueSize,
		maxConnections:      defaultMaxConnections,
		timersPerConnection: defaultTimersPerConnection,
		pollTimeoutMs:       defaultPollTimeoutMs,
		logger:              NewNoOpLogger(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.apply(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}
