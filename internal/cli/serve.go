package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	natsadapter "github.com/giellatekno/fstq-go/adapters/nats"
	promadapter "github.com/giellatekno/fstq-go/adapters/prometheus"
	"github.com/giellatekno/fstq-go/adapters/sqlite"
	"github.com/giellatekno/fstq-go/core/cache"
	"github.com/giellatekno/fstq-go/core/engine"
	"github.com/giellatekno/fstq-go/core/lookup"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	QueueSize     int
	NatsURL       string
	SubjectPrefix string
	MetricsAddr   string
	CacheSize     int
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve <lexicon.db>",
		Short: "Serve lookups over NATS",
		Long: `Load a lexicon, start the lookup queue and answer requests on
<prefix>.lookup over NATS. Prometheus metrics are exposed on --metrics-addr.

Example:
  fstq serve sme.db
  fstq serve --nats-url nats://broker:4222 --metrics-addr :9102 sme.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.QueueSize, "queue-size", 256, "capacity of the lookup queue")
	cmd.Flags().StringVar(&opts.NatsURL, "nats-url", "", "NATS server URL (defaults to $NATS_URL, then localhost)")
	cmd.Flags().StringVar(&opts.SubjectPrefix, "subject-prefix", "fstq", "NATS subject prefix")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", ":9102", "listen address for Prometheus metrics")
	cmd.Flags().IntVar(&opts.CacheSize, "cache-size", 4096, "lookup cache size, 0 disables caching")

	return cmd
}

func runServe(opts *ServeOptions, path string, cmd *cobra.Command) error {
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loadStart := time.Now()
	stream, err := sqlite.Open(path)
	if err != nil {
		return err
	}
	eng, err := engine.One(stream)
	if err != nil {
		_ = stream.Close()
		return err
	}
	_ = stream.Close()
	slog.Info("lexicon loaded", "path", path, "took", time.Since(loadStart))

	reg := prometheus.NewRegistry()
	c, err := lookup.Start(eng, lookup.Options{
		QueueSize: opts.QueueSize,
		Metrics:   promadapter.NewLookupMetrics(reg),
	})
	if err != nil {
		_ = eng.Close()
		return err
	}

	var client natsadapter.LookupClient = c
	if opts.CacheSize > 0 {
		client = lookup.NewCached(c, cache.NewLRU(cache.LRUOpts{Size: opts.CacheSize}))
	}

	connect := natsadapter.ConnectDefault()
	if opts.NatsURL != "" {
		connect = natsadapter.ConnectURL(opts.NatsURL)
	}
	srv, err := natsadapter.NewServer(natsadapter.ServerConfig{
		Connect:       connect,
		SubjectPrefix: opts.SubjectPrefix,
		Client:        client,
	})
	if err != nil {
		return err
	}
	defer srv.Close()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	metricsSrv := &http.Server{Addr: opts.MetricsAddr, Handler: mux}
	go func() {
		slog.Info("metrics listening", "addr", opts.MetricsAddr)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "error", err)
		}
	}()

	slog.Info("serving lookups", "subject", opts.SubjectPrefix+".lookup")
	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = metricsSrv.Shutdown(shutdownCtx)
	_ = srv.Close()

	eng2, err := c.Stop(shutdownCtx)
	if err != nil {
		return err
	}
	if err := eng2.Close(); err != nil {
		return err
	}
	slog.Info("stopped gracefully")
	return nil
}
