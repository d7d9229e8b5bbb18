package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/gxianyd/mlir-modifier/internal/server"
	"github.com/gxianyd/mlir-modifier/pkg/cache"
	"github.com/gxianyd/mlir-modifier/pkg/dialect"
	"github.com/gxianyd/mlir-modifier/pkg/pipeline"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr        string        // listen address
	redisURL    string        // Redis cache backend (file cache if empty)
	mongoURL    string        // MongoDB session store (in-memory if empty)
	mongoDB     string        // MongoDB database name
	sessionTTL  time.Duration // idle session lifetime
	dialectFile string        // extra dialect TOML merged over the built-ins
	noCache     bool          // disable result caching
}

// serveCommand creates the serve command for running the HTTP facade.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{
		addr:       ":8080",
		mongoDB:    "mlir_modifier",
		sessionTTL: server.DefaultTTL,
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the view graph API over HTTP",
		Long: `Serve the view graph API over HTTP.

The server holds one navigation session per uploaded snapshot. Clients
POST a snapshot to /sessions, read the computed view from
/sessions/{id}/view, and drive transitions (drill-in, hide, group) with
undo/redo support.

Sessions live in memory by default; point --mongo at a MongoDB instance
to survive restarts. Computed views and artifacts are cached on disk, or
in Redis with --redis.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", opts.addr, "listen address")
	cmd.Flags().StringVar(&opts.redisURL, "redis", "", "Redis URL for the result cache (e.g. redis://localhost:6379/0)")
	cmd.Flags().StringVar(&opts.mongoURL, "mongo", "", "MongoDB URI for the session store (e.g. mongodb://localhost:27017)")
	cmd.Flags().StringVar(&opts.mongoDB, "mongo-db", opts.mongoDB, "MongoDB database name")
	cmd.Flags().DurationVar(&opts.sessionTTL, "session-ttl", opts.sessionTTL, "idle session lifetime")
	cmd.Flags().StringVar(&opts.dialectFile, "dialects", "", "extra dialect TOML merged over the built-ins")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable result caching")

	return cmd
}

// runServe wires the store, cache and registry together and serves until
// the context is cancelled.
func (c *CLI) runServe(ctx context.Context, opts serveOpts) error {
	ctx = withLogger(ctx, c.Logger)
	logger := loggerFromContext(ctx)

	resultCache, err := c.newServeCache(ctx, opts)
	if err != nil {
		return fmt.Errorf("initialize cache: %w", err)
	}

	store, err := newSessionStore(ctx, opts)
	if err != nil {
		return fmt.Errorf("initialize session store: %w", err)
	}
	defer store.Close(context.Background())

	registry := dialect.Builtin()
	if opts.dialectFile != "" {
		registry, err = dialect.LoadFile(opts.dialectFile)
		if err != nil {
			return fmt.Errorf("load dialects %s: %w", opts.dialectFile, err)
		}
	}

	runner := pipeline.NewRunner(resultCache, nil, logger)
	defer runner.Close()

	srv := server.New(server.Config{
		Store:      store,
		Runner:     runner,
		Registry:   registry,
		Logger:     logger,
		SessionTTL: opts.sessionTTL,
	})

	httpSrv := &http.Server{
		Addr:              opts.addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Listening on %s", opts.addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// newServeCache picks the cache backend: Redis when configured, otherwise
// the local file cache shared with the CLI commands.
func (c *CLI) newServeCache(ctx context.Context, opts serveOpts) (cache.Cache, error) {
	if opts.noCache {
		return cache.NewNullCache(), nil
	}
	if opts.redisURL != "" {
		return cache.NewRedisCache(ctx, opts.redisURL)
	}
	return newCache(false)
}

// newSessionStore picks the session store backend.
func newSessionStore(ctx context.Context, opts serveOpts) (server.Store, error) {
	if opts.mongoURL != "" {
		return server.NewMongoStore(ctx, opts.mongoURL, opts.mongoDB)
	}
	return server.NewMemStore(), nil
}
