package cmd

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nikogura/academic-cv/pkg/config"
	"github.com/nikogura/academic-cv/pkg/cvgen"
	"github.com/nikogura/academic-cv/pkg/ledger"
	"github.com/nikogura/academic-cv/pkg/metrics"
	"github.com/nikogura/academic-cv/pkg/records"
	"github.com/nikogura/academic-cv/pkg/records/pgstore"
	"github.com/nikogura/academic-cv/pkg/server"
	"github.com/nikogura/academic-cv/pkg/storage"
	"github.com/nikogura/academic-cv/pkg/style"
)

const shutdownTimeout = 10 * time.Second

//nolint:gochecknoglobals // Cobra boilerplate
var serveAddr string

//nolint:gochecknoglobals // Cobra boilerplate
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve CV generation over HTTP",
	Long: `Serve CV generation over HTTP.

Records are read from PostgreSQL when records.database_url (or DATABASE_URL) is
set, otherwise from <profile-id>.json files in records.dir. Stored documents go
to the configured storage backend, and are recorded in Firestore when
ledger.project_id (or GOOGLE_CLOUD_PROJECT) is set.

Example:
  academic-cv serve --addr :8080`,
	RunE: runServe,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) (err error) {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	level := slog.LevelInfo
	if getVerbose() {
		level = slog.LevelDebug
	}
	logger := server.NewLogger(os.Stderr, level)

	var cfg config.Config
	cfg, err = config.Load(getConfigFile())
	if err != nil {
		err = errors.Wrap(err, "failed to load config")
		return err
	}

	var catalog *style.Catalog
	catalog, err = loadCatalog(cfg)
	if err != nil {
		return err
	}

	var closers []io.Closer
	defer func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}()

	var provider records.Provider
	provider, closers, err = openProvider(ctx, cfg.Records, closers)
	if err != nil {
		return err
	}

	var store storage.Store
	store, err = storage.New(ctx, cfg.Storage)
	if err != nil {
		err = errors.Wrap(err, "failed to open document storage")
		return err
	}
	if c, ok := store.(io.Closer); ok {
		closers = append(closers, c)
	}

	var l ledger.Ledger
	l, err = ledger.New(ctx, cfg.Ledger)
	if err != nil {
		err = errors.Wrap(err, "failed to open generation ledger")
		return err
	}
	if c, ok := l.(io.Closer); ok {
		closers = append(closers, c)
	}

	gen := cvgen.New(catalog,
		cvgen.WithTemplateFallback(cfg.TemplateFallback),
		cvgen.WithMetrics(metrics.New(prometheus.DefaultRegisterer)),
	)

	handler := server.NewHandler(server.Deps{
		Generator:       gen,
		Provider:        provider,
		Catalog:         catalog,
		Store:           store,
		Ledger:          l,
		Logger:          logger,
		DefaultTemplate: cfg.DefaultTemplate,
	})

	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}
	srv := server.New(addr, server.NewRouter(handler, prometheus.DefaultGatherer))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("listening", "addr", addr, "storage", cfg.Storage.Backend)
		serveErr := srv.ListenAndServe()
		if errors.Is(serveErr, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(serveErr, "http server failed")
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	return err
}

// openProvider prefers PostgreSQL and falls back to a directory of JSON bundles.
func openProvider(ctx context.Context, cfg config.RecordsConfig, closers []io.Closer) (provider records.Provider, out []io.Closer, err error) {
	out = closers

	switch {
	case cfg.DatabaseURL != "":
		store, pool, openErr := pgstore.Open(ctx, cfg.DatabaseURL)
		if openErr != nil {
			err = errors.Wrap(openErr, "failed to open records database")
			return provider, out, err
		}
		out = append(out, closerFunc(func() error {
			pool.Close()
			return nil
		}))
		provider = store
	case cfg.Dir != "":
		provider = records.NewFileProvider(cfg.Dir)
	default:
		err = errors.New("records.dir or records.database_url is required to serve (set in config or DATABASE_URL env var)")
	}

	return provider, out, err
}

type closerFunc func() error

func (f closerFunc) Close() (err error) {
	err = f()
	return err
}
