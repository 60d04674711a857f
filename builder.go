package authkit

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/greenledger/authkit/store"
	"github.com/greenledger/authkit/transport"
)

// Builder assembles a Controller. Configure with the With* setters, then
// call Build once; construction is allocation-only until Build.
type Builder struct {
	config Config

	transport  transport.Transport
	httpClient *http.Client
	logger     *zap.Logger

	store    store.Store
	redis    redis.UniversalClient
	redisKey string

	auditSink AuditSink

	built bool
}

// New returns a Builder loaded with defaults.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithBaseURL sets the backend API root for the default HTTP transport.
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.config.Transport.BaseURL = baseURL
	return b
}

// WithTransport substitutes the credential transport, mainly for tests.
func (b *Builder) WithTransport(t transport.Transport) *Builder {
	b.transport = t
	return b
}

// WithHTTPClient supplies the HTTP client the default transport wraps. A
// cookie jar is installed if the client has none.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

// WithLogger wires a zap logger into the transport's debug tracing and
// the controller's store-failure warnings.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithStore sets the session snapshot store. No store means no
// persistence: the session lives only as long as the process.
func (b *Builder) WithStore(s store.Store) *Builder {
	b.store = s
	return b
}

// WithRedis backs snapshot persistence with redis, for processes sharing
// one backend session. Ignored when WithStore was also called.
func (b *Builder) WithRedis(client redis.UniversalClient, key string) *Builder {
	b.redis = client
	b.redisKey = key
	return b
}

// WithAuditSink sets the destination for audit events.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the transport latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the controller.
func (b *Builder) Build() (*Controller, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tp := b.transport
	if tp == nil {
		if cfg.Transport.BaseURL == "" {
			return nil, errors.New("transport or base URL required")
		}
		httpTransport, err := transport.NewHTTP(transport.Config{
			BaseURL:   cfg.Transport.BaseURL,
			Timeout:   cfg.Transport.Timeout,
			UserAgent: cfg.Transport.UserAgent,
			Client:    b.httpClient,
			Logger:    b.logger,
		})
		if err != nil {
			return nil, err
		}
		tp = httpTransport
	}

	snapStore := b.store
	if snapStore == nil && b.redis != nil {
		snapStore = store.NewRedis(b.redis, b.redisKey)
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	controller := &Controller{
		config:    cfg,
		transport: tp,
		store:     snapStore,
		audit:     newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:   NewMetrics(cfg.Metrics),
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		logger:    logger,
	}

	b.built = true

	return controller, nil
}
