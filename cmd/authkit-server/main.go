package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/authkit"
	"github.com/MrEthical07/authkit/httpapi"
	"github.com/MrEthical07/authkit/internal/config"
	"github.com/MrEthical07/authkit/mailer"
	promexport "github.com/MrEthical07/authkit/metrics/export/prometheus"
	"github.com/MrEthical07/authkit/storage/memory"
	"github.com/MrEthical07/authkit/storage/postgres"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting authkit-server", slog.String("env", cfg.Env))

	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	if err := run(rootCtx, cfg, log); err != nil {
		log.Error("service_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
	log.Info("service_stopped")
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	authCfg, err := cfg.ToAuthConfig()
	if err != nil {
		return err
	}

	users, closeUsers, err := openUserStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeUsers()

	redisOpts, err := redis.ParseURL(cfg.Redis.RedisURL)
	if err != nil {
		return err
	}
	rdb := redis.NewClient(redisOpts)
	defer func() { _ = rdb.Close() }()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return err
	}
	log.Info("redis_connected")

	mail, err := newMailer(cfg, log)
	if err != nil {
		return err
	}

	engine, err := authkit.New().
		WithConfig(authCfg).
		WithRedis(rdb).
		WithUserStore(users).
		WithMailer(mail).
		WithLogger(log).
		Build()
	if err != nil {
		return err
	}

	log.Info("engine_ready", engine.SecurityReportAttr())

	handler := httpapi.NewRouter(engine, httpapi.Options{
		Logger:  log,
		Timeout: cfg.HTTP.RequestTimeout,
		Metrics: promexport.Handler(engine),
	})

	httpAddr := cfg.HTTP.Addr()
	srv := &http.Server{
		Addr:              httpAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", httpAddr)
	if err != nil {
		return err
	}
	log.Info("http_listen_start", slog.String("addr", httpAddr))

	serveErrCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
		}
		close(serveErrCh)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown_requested")
	case err := <-serveErrCh:
		if err != nil {
			log.Error("http_serve_failed", slog.String("err", err.Error()))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http_shutdown_incomplete", slog.String("err", err.Error()))
	} else {
		log.Info("http_stopped")
	}
	return nil
}

func openUserStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (authkit.UserStore, func(), error) {
	if cfg.DB.DatabaseURL == "" {
		log.Warn("user_store_in_memory", slog.String("reason", "DATABASE_URL is empty"))
		return memory.New(), func() {}, nil
	}

	st, err := postgres.New(ctx, cfg.DB.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, nil, err
	}
	log.Info("postgres_ready")
	return st, st.Close, nil
}

func newMailer(cfg *config.Config, log *slog.Logger) (mailer.Sender, error) {
	switch cfg.Mail.Provider {
	case "mailgun":
		return mailer.NewMailgunSender(mailer.MailgunConfig{
			Domain:  cfg.Mail.Mailgun.Domain,
			APIKey:  cfg.Mail.Mailgun.APIKey,
			APIBase: cfg.Mail.Mailgun.APIBase,
			From:    cfg.Mail.From,
		}, log)
	case "", "log":
		if cfg.Env == envProd {
			log.Warn("mail_provider_log_in_prod")
		}
		return mailer.NewLogSender(log), nil
	default:
		return nil, errors.New("unknown mail provider " + cfg.Mail.Provider)
	}
}

func setupLogger(env string) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
