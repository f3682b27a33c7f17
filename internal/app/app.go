package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/portal/internal/config"
	"github.com/MrSnakeDoc/portal/internal/domain"
	"github.com/MrSnakeDoc/portal/internal/httpserver"
	"github.com/MrSnakeDoc/portal/internal/httpserver/deps"
	"github.com/MrSnakeDoc/portal/internal/logger"
	"github.com/MrSnakeDoc/portal/internal/personal"
	"github.com/MrSnakeDoc/portal/internal/portal"
	"github.com/MrSnakeDoc/portal/internal/scheduler"
	"github.com/MrSnakeDoc/portal/internal/session"
	portalsrc "github.com/MrSnakeDoc/portal/internal/sources/portal"
	"github.com/MrSnakeDoc/portal/internal/store"
	badgerstore "github.com/MrSnakeDoc/portal/internal/store/badger"
	"github.com/MrSnakeDoc/portal/internal/store/memory"
	redisstore "github.com/MrSnakeDoc/portal/internal/store/redis"
	"github.com/MrSnakeDoc/portal/internal/utils"
	"github.com/MrSnakeDoc/portal/internal/version"
)

type App struct {
	cfg    *config.Config
	logger logger.Logger
	server *httpserver.Server
	store  store.Store
	gc     *scheduler.GarbageCollector // nil when the backend expires keys itself
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Directory first - nothing to serve without it
	dir, err := portalsrc.LoadDirectory(cfg.DirectoryFile)
	if err != nil {
		loggerClient.Errorf("Failed to load directory %s: %v", cfg.DirectoryFile, err)
		os.Exit(1)
	}
	loggerClient.Info("directory loaded",
		logger.String("file", cfg.DirectoryFile),
		logger.Int("teams", dir.Count()),
		logger.Int("links", dir.LinkCount()))

	var creds portalsrc.CredentialsFile
	if cfg.PasswordGate {
		creds, err = portalsrc.LoadCredentials(cfg.CredentialsFile)
		if err == nil {
			err = creds.Validate()
		}
		if err != nil {
			loggerClient.Errorf("Failed to load credentials: %v", err)
			os.Exit(1)
		}
		loggerClient.Info("password gate enabled",
			logger.Int("users", len(creds.Users)))
	}

	// Storage - fail fast if unavailable
	kv, err := openStore(cfg, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to open %s store: %v", cfg.Store, err)
		os.Exit(1)
	}
	loggerClient.Info("store initialized successfully", logger.String("store", kv.Name()))

	gate := session.NewGate(
		domain.NewAccessPolicy(cfg.AllowedEmails, cfg.EmailDomain),
		kv,
		session.Options{
			PasswordGate: cfg.PasswordGate,
			Credentials: session.Credentials{
				Users:         creds.Users,
				DomainDefault: creds.DomainDefault,
			},
			TTL: cfg.SessionTTL,
		},
		loggerClient.With(logger.String("component", "session")),
	)

	personalStore := personal.NewStore(kv, personal.Options{
		HistoryCap:   cfg.HistoryCap,
		MaxBlobBytes: cfg.MaxBlobBytes,
	})

	controller := portal.New(dir, gate, personalStore, loggerClient.With(logger.String("component", "portal")))

	gc := scheduler.NewGarbageCollector(kv, loggerClient, cfg.GCInterval)

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:       loggerClient,
		StartTime:    time.Now(),
		Build:        version.Get(),
		AllowedHosts: cfg.AllowedHosts,
		AllowedCIDRS: cfg.AllowedCIDRS,
		TrustProxy:   cfg.TrustProxy,
		Controller:   controller,
		Gate:         gate,
		Store:        kv,
		CookieSecure: cfg.CookieSecure,
		SessionTTL:   cfg.SessionTTL,
		LoginBurst:   cfg.LoginBurst,
		LoginPerMin:  cfg.LoginPerMin,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:    cfg,
		logger: loggerClient,
		server: server,
		store:  kv,
		gc:     gc,
	}
}

func openStore(cfg *config.Config, loggerClient logger.Logger) (store.Store, error) {
	switch cfg.Store {
	case config.StoreBadger:
		if cfg.BadgerDir == "" {
			loggerClient.Warn("PORTAL_BADGER_DIR not set, badger runs in memory and data is lost on restart")
		}
		return badgerstore.Open(cfg.BadgerDir)

	case config.StoreMemory:
		loggerClient.Warn("memory store selected, sessions and personalization are lost on restart")
		return memory.New(memory.WithMaxValueBytes(cfg.MaxBlobBytes)), nil

	default:
		loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		return redisstore.Connect(context.Background(), redisstore.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, loggerClient)
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Portal %s on %s", version.Get(), a.cfg.ListenPort)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start garbage collector
	if a.gc != nil {
		if err := a.gc.Start(ctx); err != nil {
			return fmt.Errorf("failed to start garbage collector: %w", err)
		}
		a.logger.Info("garbage collector started",
			logger.Duration("interval", a.cfg.GCInterval))
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.server.Start(); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})

	// Shutdown on signal, or as soon as the server fails
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("⏳ Shutting down gracefully...")

		if a.gc != nil {
			a.gc.Stop()
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		if err := a.server.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("failed to stop server: %w", err)
		}
		return nil
	})

	err := g.Wait()

	utils.MustClose(a.logger, a.store)
	a.logger.Info("✅ Store closed", logger.String("store", a.store.Name()))

	if err != nil {
		a.logger.Error("portal stopped with error", logger.Error(err))
	} else {
		a.logger.Info("✅ Portal stopped cleanly")
	}
	_ = a.logger.Sync()
	return err
}
