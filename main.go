package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pliu/newsportal/internal/auth"
	"github.com/pliu/newsportal/internal/chat"
	"github.com/pliu/newsportal/internal/comments"
	"github.com/pliu/newsportal/internal/config"
	"github.com/pliu/newsportal/internal/email"
	"github.com/pliu/newsportal/internal/handlers"
	"github.com/pliu/newsportal/internal/kv"
	"github.com/pliu/newsportal/internal/kv/badgerkv"
	"github.com/pliu/newsportal/internal/kv/rediskv"
	"github.com/pliu/newsportal/internal/kv/sqlkv"
	"github.com/pliu/newsportal/internal/logging"
	"github.com/pliu/newsportal/internal/metrics"
	"github.com/pliu/newsportal/internal/news"
	"github.com/pliu/newsportal/internal/session"
	"github.com/pliu/newsportal/internal/store/kvstore"
	"github.com/pliu/newsportal/internal/ws"
	"github.com/rs/zerolog"
)

var (
	configPath = flag.String("config", "config.yaml", "path to the YAML config file")
	staticDir  = flag.String("static", "", "directory with the built frontend, served at /")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logging.New(cfg.Log)
	metrics.Register()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log *zerolog.Logger) error {
	backend, err := openKV(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer backend.Close()
	log.Info().Str("driver", cfg.Storage.Driver).Msg("storage ready")

	signer, err := auth.NewSigner(cfg.Auth.CookieSecret)
	if err != nil {
		return err
	}
	loc, err := time.LoadLocation(cfg.Chat.Timezone)
	if err != nil {
		return err
	}

	profiles := kvstore.Profiles{KV: backend}
	hub := ws.NewHub(log)
	go hub.Run(ctx)

	sessions := session.NewService(profiles, session.Options{
		Latency: cfg.Auth.Latency,
		Mailer:  email.NewSender(cfg.SMTP, log),
	}, log)
	chatService := chat.NewService(profiles, hub, chat.Clock{Location: loc}, log)

	catalog := news.NewCatalog()
	for _, feed := range cfg.News.Feeds {
		added, err := catalog.Import(ctx, feed)
		if err != nil {
			log.Warn().Err(err).Str("feed", feed).Msg("feed import failed")
			continue
		}
		log.Info().Str("feed", feed).Int("articles", len(added)).Msg("feed imported")
	}

	router := handlers.NewRouter(handlers.Deps{
		Signer:    signer,
		Sessions:  sessions,
		Chat:      chatService,
		Hub:       hub,
		Catalog:   catalog,
		Comments:  comments.NewRegistry(),
		Log:       log,
		Feeds:     cfg.News.Feeds,
		StaticDir: *staticDir,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("starting server")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openKV(ctx context.Context, cfg config.StorageConfig) (kv.Store, error) {
	switch cfg.Driver {
	case "memory":
		return kv.NewMemory(), nil
	case "sqlite3", "postgres":
		return sqlkv.New(cfg.Driver, cfg.DSN)
	case "redis":
		return rediskv.New(ctx, rediskv.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	case "badger":
		return badgerkv.Open(cfg.BadgerPath)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
