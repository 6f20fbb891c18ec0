// Package bootstrap wires configuration, transport and the typed client
// together.
package bootstrap

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/artpar/attio/adapters/metrics"
	"github.com/artpar/attio/adapters/remote"
	"github.com/artpar/attio/app"
	"github.com/artpar/attio/config"
	"github.com/artpar/attio/core/registry"
	"github.com/artpar/attio/ports"
)

// App holds everything built from one configuration.
type App struct {
	Logger   zerolog.Logger
	Config   *config.Config
	Registry *registry.Registry
	Metrics  *metrics.Collector // nil unless metrics are enabled
	Remote   *remote.Client
	Client   *app.Client
}

// Options overrides the defaults used while wiring an App.
type Options struct {
	// LogOutput receives log lines. Defaults to stderr.
	LogOutput io.Writer

	// Registerer receives the client metrics. Defaults to
	// prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer

	// Metrics reuses an existing collector instead of registering a new
	// one. It is ignored when metrics are disabled.
	Metrics *metrics.Collector

	HTTPClient     *http.Client
	Clock          ports.Clock
	TracerProvider trace.TracerProvider
}

// New builds an App from cfg. Schema problems are reported all at once.
func New(cfg *config.Config, opts Options) (*App, error) {
	out := opts.LogOutput
	if out == nil {
		out = os.Stderr
	}
	logger := NewLogger(cfg.Logging, out)

	reg, err := registry.Resolve(cfg.Schema)
	if err != nil {
		return nil, fmt.Errorf("resolve schema: %w", err)
	}
	logger.Info().
		Strs("objects", reg.Objects()).
		Strs("lists", reg.Lists()).
		Msg("schema resolved")

	a := &App{
		Logger:   logger,
		Config:   cfg,
		Registry: reg,
	}

	if cfg.Metrics.Enabled {
		a.Metrics = opts.Metrics
		if a.Metrics == nil {
			registerer := opts.Registerer
			if registerer == nil {
				registerer = prometheus.DefaultRegisterer
			}
			a.Metrics = metrics.New(registerer)
		}
		logger.Info().Msg("prometheus metrics enabled")
	}

	rc := remote.ClientConfig{
		BaseURL:           cfg.API.BaseURL,
		APIKey:            cfg.API.Key,
		Timeout:           cfg.API.Timeout,
		DisableRetries:    !cfg.API.Retries(),
		MaxRetries:        cfg.API.MaxRetries,
		RequestsPerSecond: cfg.API.RequestsPerSecond,
		HTTPClient:        opts.HTTPClient,
		Clock:             opts.Clock,
		Logger:            logger.With().Str("component", "remote").Logger(),
	}
	if a.Metrics != nil {
		rc.Metrics = a.Metrics
	}
	a.Remote = remote.NewClient(rc)

	clientOpts := []app.Option{app.WithLogger(logger)}
	if opts.TracerProvider != nil {
		clientOpts = append(clientOpts, app.WithTracer(opts.TracerProvider.Tracer(app.TracerName)))
	}
	a.Client = app.NewClient(reg, a.Remote, clientOpts...)

	return a, nil
}

// NewLogger builds a zerolog logger for cfg. Unknown levels fall back to info.
func NewLogger(cfg config.LoggingConfig, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// Live keeps an App in step with a config.Holder. Each successful reload
// builds a fresh App; a configuration that fails to resolve is logged and
// the previous App keeps serving.
type Live struct {
	mu      sync.RWMutex
	app     *App
	buildMu sync.Mutex
	opts    Options
}

// Watch builds the first App from holder and rebuilds it on every reload.
func Watch(holder *config.Holder, opts Options) (*Live, error) {
	first, err := New(holder.Get(), opts)
	if err != nil {
		return nil, err
	}

	// Collectors register once per registerer.
	opts.Metrics = first.Metrics

	l := &Live{app: first, opts: opts}
	holder.OnChange(l.rebuild)
	return l, nil
}

// App returns the current App.
func (l *Live) App() *App {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.app
}

// Client returns the current client.
func (l *Live) Client() *app.Client {
	return l.App().Client
}

func (l *Live) rebuild(cfg *config.Config) {
	l.buildMu.Lock()
	defer l.buildMu.Unlock()

	next, err := New(cfg, l.opts)
	if err != nil {
		l.App().Logger.Error().Err(err).Msg("rebuild client failed, keeping previous client")
		return
	}
	if l.opts.Metrics == nil {
		l.opts.Metrics = next.Metrics
	}

	l.mu.Lock()
	l.app = next
	l.mu.Unlock()

	next.Logger.Info().Msg("client rebuilt")
}
