package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/redblack/pkg/config"
	"github.com/Sumatoshi-tech/redblack/pkg/observability"
	"github.com/Sumatoshi-tech/redblack/pkg/version"
)

// Global flag names.
const (
	flagConfig     = "config"
	flagDeleteMode = "delete-mode"
	flagIndent     = "indent"
	flagVerbose    = "verbose"
	flagQuiet      = "quiet"
	flagNoColor    = "no-color"

	metricsPath           = "/metrics"
	metricsReadTimeout    = 5 * time.Second
	metricsShutdownWindow = 2 * time.Second
)

// GlobalOptions holds the persistent flags shared by every command.
type GlobalOptions struct {
	ConfigPath string
	DeleteMode string
	Indent     int
	Verbose    bool
	Quiet      bool
	NoColor    bool
}

// Register binds the options to the persistent flags of root.
func (o *GlobalOptions) Register(root *cobra.Command) {
	flags := root.PersistentFlags()

	flags.StringVar(&o.ConfigPath, flagConfig, "", "path to redblack.yaml")
	flags.StringVar(&o.DeleteMode, flagDeleteMode, config.DefaultDeleteMode,
		"deletion strategy: plain or rebalance")
	flags.IntVar(&o.Indent, flagIndent, config.DefaultIndent, "spaces per depth level in the rendering")
	flags.BoolVarP(&o.Verbose, flagVerbose, "v", false, "verbose output")
	flags.BoolVarP(&o.Quiet, flagQuiet, "q", false, "suppress output")
	flags.BoolVar(&o.NoColor, flagNoColor, false, "disable colored status messages")
}

// environment is the configured runtime shared by a single command invocation.
type environment struct {
	cfg       *config.Config
	opts      *GlobalOptions
	providers observability.Providers
	metrics   *observability.TreeMetrics
	server    *http.Server
}

// loadEnvironment reads configuration, applies flag overrides and starts telemetry.
func loadEnvironment(cmd *cobra.Command, opts *GlobalOptions, mode observability.AppMode) (*environment, error) {
	cfg, err := config.LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()

	if flags.Changed(flagDeleteMode) {
		cfg.Tree.DeleteMode = opts.DeleteMode
	}

	if flags.Changed(flagIndent) {
		cfg.Render.Indent = opts.Indent
	}

	err = cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}

	return newEnvironment(cfg, opts, mode)
}

func newEnvironment(cfg *config.Config, opts *GlobalOptions, mode observability.AppMode) (*environment, error) {
	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Mode = mode
	obsCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obsCfg.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	obsCfg.Prometheus = cfg.Telemetry.MetricsAddr != ""
	obsCfg.LogJSON = cfg.Logging.Format == config.LogFormatJSON

	level, err := cfg.Logging.SlogLevel()
	if err != nil {
		return nil, err
	}

	switch {
	case opts.Verbose:
		level = slog.LevelDebug
	case opts.Quiet:
		level = slog.LevelError
	}

	obsCfg.LogLevel = level

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	metrics, err := observability.NewTreeMetrics(providers.Meter)
	if err != nil {
		return nil, errors.Join(err, providers.Shutdown(context.Background()))
	}

	env := &environment{
		cfg:       cfg,
		opts:      opts,
		providers: providers,
		metrics:   metrics,
	}

	if providers.MetricsHandler != nil {
		err = env.serveMetrics(cfg.Telemetry.MetricsAddr)
		if err != nil {
			return nil, errors.Join(err, providers.Shutdown(context.Background()))
		}
	}

	return env, nil
}

func (e *environment) serveMetrics(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle(metricsPath, e.providers.MetricsHandler)

	e.server = &http.Server{Handler: mux, ReadHeaderTimeout: metricsReadTimeout}

	go func() {
		serveErr := e.server.Serve(listener)
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			e.providers.Logger.Error("metrics endpoint stopped", slog.Any("error", serveErr))
		}
	}()

	e.providers.Logger.Info("metrics endpoint listening",
		slog.String("addr", listener.Addr().String()), slog.String("path", metricsPath))

	return nil
}

func (e *environment) newSession() *Session {
	return newSession(sessionConfig{
		treeOptions:          e.cfg.TreeOptions(),
		hibernationThreshold: e.cfg.Tree.HibernationThreshold,
		tracer:               e.providers.Tracer,
		metrics:              e.metrics,
		logger:               e.providers.Logger,
	})
}

func (e *environment) palette() palette {
	return newPalette(e.opts.NoColor)
}

// Close stops the metrics endpoint and flushes telemetry.
func (e *environment) Close(ctx context.Context) error {
	var serverErr error

	if e.server != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, metricsShutdownWindow)
		defer cancel()

		serverErr = e.server.Shutdown(shutdownCtx)
	}

	return errors.Join(serverErr, e.providers.Shutdown(ctx))
}
