package main

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/soaringjerry/Talentflow/internal/api"
	"github.com/soaringjerry/Talentflow/internal/cache"
	"github.com/soaringjerry/Talentflow/internal/config"
	dbstore "github.com/soaringjerry/Talentflow/internal/db"
	"github.com/soaringjerry/Talentflow/internal/events"
	"github.com/soaringjerry/Talentflow/internal/middleware"
	"github.com/soaringjerry/Talentflow/internal/services"
	"github.com/soaringjerry/Talentflow/internal/telemetry"
)

var _ api.Store = (*dbstore.SQLiteStore)(nil)

func serveCmd(load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return runServer(cfg)
		},
	}
}

func runServer(cfg *config.Config) error {
	app := fx.New(appOptions(cfg)...)

	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sig:
	case <-app.Done():
	}

	stopCtx, cancelStop := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelStop()
	return app.Stop(stopCtx)
}

func appOptions(cfg *config.Config) []fx.Option {
	return []fx.Option{
		fx.Supply(cfg),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		fx.Provide(
			newLogger,
			newDB,
			newStore,
			newAssessmentStore,
			newPublisher,
			newServices,
			newHandler,
			newHTTPServer,
		),
		fx.Invoke(registerTracing, func(*http.Server) {}),
	}
}

func newLogger(cfg *config.Config, lc fx.Lifecycle) (*zap.Logger, error) {
	build := zap.NewProduction
	if cfg.Development() {
		build = zap.NewDevelopment
	}
	log, err := build()
	if err != nil {
		return nil, err
	}
	log = log.With(zap.String("service", telemetry.ServiceName))
	lc.Append(fx.Hook{OnStop: func(context.Context) error {
		_ = log.Sync()
		return nil
	}})
	return log, nil
}

func newDB(cfg *config.Config, lc fx.Lifecycle, log *zap.Logger) (*sql.DB, error) {
	sqlDB, err := dbstore.Open(cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	applied, err := dbstore.RunMigrations(context.Background(), sqlDB, cfg.MigrationsDir)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	if len(applied) > 0 {
		log.Info("applied migrations", zap.Strings("migrations", applied))
	}
	lc.Append(fx.Hook{OnStop: func(context.Context) error { return sqlDB.Close() }})
	return sqlDB, nil
}

func newStore(sqlDB *sql.DB, log *zap.Logger) (*dbstore.SQLiteStore, error) {
	return dbstore.NewSQLiteStore(sqlDB, log)
}

// newAssessmentStore puts the Redis read-through cache in front of SQLite when configured.
func newAssessmentStore(cfg *config.Config, lc fx.Lifecycle, store *dbstore.SQLiteStore, log *zap.Logger) services.AssessmentStore {
	if cfg.RedisAddr == "" {
		return store
	}
	rc := cache.NewRedis(cache.Options{
		DefaultTTL:    cfg.CacheTTL,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
	})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := rc.Ping(ctx); err != nil {
				log.Warn("redis unreachable, assessment reads fall back to sqlite",
					zap.String("addr", cfg.RedisAddr), zap.Error(err))
			}
			return nil
		},
		OnStop: func(context.Context) error { return rc.Close() },
	})
	return cache.NewAssessmentStore(store, rc, cfg.CacheTTL, log)
}

func newPublisher(cfg *config.Config, lc fx.Lifecycle, log *zap.Logger) (services.EventPublisher, error) {
	if cfg.NATSURL == "" {
		return services.NopPublisher{}, nil
	}
	p, err := events.NewNATSPublisher(cfg.NATSURL, cfg.NATSConnTimeout, log)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: func(context.Context) error {
		p.Close()
		return nil
	}})
	return p, nil
}

func newServices(cfg *config.Config, store *dbstore.SQLiteStore, assessments services.AssessmentStore, pub services.EventPublisher) *api.Services {
	return api.NewServices(store, assessments, pub, cfg.StrictSubmit)
}

func newHandler(cfg *config.Config, svcs *api.Services, log *zap.Logger) http.Handler {
	opts := api.HandlerOptions{Auth: middleware.NewAuth(cfg.JWTSecret)}
	if cfg.Chaos.Enabled {
		opts.Chaos = middleware.NewChaos(middleware.ChaosOptions{
			LatencyMin:      cfg.Chaos.LatencyMin,
			LatencyMax:      cfg.Chaos.LatencyMax,
			FailRate:        cfg.Chaos.FailRate,
			ReorderFailRate: cfg.Chaos.ReorderFailRate,
		}, log)
	}
	build := api.BuildInfo{Commit: cfg.Commit, BuildTime: cfg.BuildTime}
	return api.NewRouter(svcs, log, build).Handler(opts)
}

func newHTTPServer(cfg *config.Config, lc fx.Lifecycle, handler http.Handler, log *zap.Logger, shutdowner fx.Shutdowner) *http.Server {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			log.Info("talentflow server listening",
				zap.String("addr", ln.Addr().String()),
				zap.String("env", cfg.Env),
				zap.Bool("auth", cfg.JWTSecret != ""),
				zap.Bool("chaos", cfg.Chaos.Enabled))
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("server error", zap.Error(err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
	return srv
}

func registerTracing(cfg *config.Config, lc fx.Lifecycle, log *zap.Logger) {
	var shutdown func(context.Context) error
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			fn, err := telemetry.InitTracer(ctx, telemetry.ServiceName, cfg.Commit, cfg.OTelEndpoint)
			if err != nil {
				return err
			}
			shutdown = fn
			if cfg.OTelEndpoint != "" {
				log.Info("tracing enabled", zap.String("collector", cfg.OTelEndpoint))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if shutdown == nil {
				return nil
			}
			return shutdown(ctx)
		},
	})
}
