package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bellavista-care-home/bellavista-carehome-sub000/internal/api"
	"github.com/bellavista-care-home/bellavista-carehome-sub000/internal/cache"
	"github.com/bellavista-care-home/bellavista-carehome-sub000/internal/config"
	"github.com/bellavista-care-home/bellavista-carehome-sub000/internal/content"
	"github.com/bellavista-care-home/bellavista-carehome-sub000/internal/geocode"
	"github.com/bellavista-care-home/bellavista-carehome-sub000/internal/service"
	"github.com/bellavista-care-home/bellavista-carehome-sub000/internal/store"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Port string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Long: `Run the HTTP server.

Redis holds per-session caches; without it sessions are kept in memory.
Postgres caches postcode lookups; set DB_HOST=none to run without it.

Example:
  bellavista-site serve --port 8080
  bellavista-site serve --env-file ./prod.env`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Port, "port", "", "listen port (overrides PORT)")

	return cmd
}

func runServe(ctx context.Context, opts *ServeOptions) error {
	cfg, err := config.Load(opts.EnvFiles...)
	if err != nil {
		return err
	}
	if opts.Port != "" {
		cfg.Port = opts.Port
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	geocoder := geocode.NewClient(cfg.PostcodesURL, nil)
	geocoder.SetLogger(logger)

	checks := map[string]api.HealthCheck{}

	if pgURL := cfg.PostgresURL(); pgURL != "" {
		db, err := openPostgres(ctx, pgURL, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		// ensure tables exist (run migrations)
		if err := store.RunMigrations(db); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		repo := store.NewPgStore(db, cfg.GeocodeTTL)
		geocoder.SetCache(repo)
		checks["postgres"] = repo.Ping
		go purgeGeocodeCache(ctx, repo, logger)
	} else {
		logger.Info("postgres disabled, postcode lookups are not cached")
	}

	var sessions cache.Sessions
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err = rdb.Ping(pingCtx).Err()
	cancel()
	if err != nil {
		logger.Warn("redis ping failed, keeping sessions in memory", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		mem := cache.NewMemorySessions(cfg.SessionTTL)
		sessions = mem
		go purgeIdleSessions(ctx, mem, time.Minute, logger)
	} else {
		sessions = cache.NewRedisSessions(rdb, cfg.SessionTTL)
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	clientOpts := []content.Option{
		content.WithHTTPClient(&http.Client{Timeout: 15 * time.Second}),
		content.WithSiteRoot(cfg.SiteRoot),
		content.WithLogger(logger),
	}
	if cfg.APIToken != "" {
		clientOpts = append(clientOpts, content.WithAuth(content.StaticToken(cfg.APIToken)))
	}
	client := content.New(cfg.APIBaseURL, clientOpts...)

	svc := service.NewService(client, geocoder, logger)
	handler := api.NewHandler(svc, sessions, logger)
	handler.SetSessionCookie(cfg.SessionCookie)
	for name, check := range checks {
		handler.AddHealthCheck(name, check)
	}

	router := gin.New()
	router.Use(gin.Recovery(), api.RequestLogger(logger))
	api.RegisterRoutes(router, handler)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr), zap.String("api", cfg.APIBaseURL))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openPostgres waits for the database, which might still be starting in docker.
func openPostgres(ctx context.Context, url string, logger *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	for i := 0; i < 10; i++ {
		if err = db.PingContext(ctx); err == nil {
			return db, nil
		}
		logger.Info("waiting for db", zap.Int("attempt", i+1), zap.Error(err))
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	_ = db.Close()
	return nil, fmt.Errorf("could not connect to db: %w", err)
}

func purgeGeocodeCache(ctx context.Context, repo *store.PgStore, logger *zap.Logger) {
	t := time.NewTicker(time.Hour)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := repo.PurgeExpired(ctx)
			if err != nil {
				logger.Warn("purge geocode cache", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Info("purged expired postcodes", zap.Int64("rows", n))
			}
		}
	}
}

func purgeIdleSessions(ctx context.Context, sessions *cache.MemorySessions, every time.Duration, logger *zap.Logger) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := sessions.Purge(); n > 0 {
				logger.Debug("purged idle sessions", zap.Int("count", n), zap.Int("remaining", sessions.Len()))
			}
		}
	}
}
