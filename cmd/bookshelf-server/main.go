package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"bookshelf/internal/books"
	"bookshelf/internal/controller"
	"bookshelf/internal/kv"
	"bookshelf/internal/render"
	"bookshelf/internal/storage"
	synchub "bookshelf/internal/sync"
	"bookshelf/internal/web"
	"bookshelf/pkg/database"
	"bookshelf/pkg/logging"
	"bookshelf/pkg/utils"
)

func main() {
	cfg := utils.LoadServerConfig()
	logger, err := logging.New(cfg.LogLevel, cfg.Dev)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(finish(logger, run(cfg, database.DefaultConfig(), logger)))
}

// finish flushes the logger and returns the process exit code. os.Exit skips
// deferred calls, so the flush happens here.
func finish(logger *zap.Logger, err error) int {
	code := 0
	if err != nil {
		logger.Error("server stopped", zap.Error(err))
		code = 1
	}
	_ = logger.Sync()
	return code
}

func run(cfg utils.ServerConfig, dbCfg database.Config, logger *zap.Logger) error {
	db, err := database.Open(dbCfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("db migrate failed: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := synchub.NewHub(logger.Named("sync"))
	adapter := storage.NewAdapter(kv.NewSQLStore(db), logger.Named("storage"))
	store := books.NewStore(ctx, adapter,
		books.WithPublisher(hub),
		books.WithLogger(logger.Named("books")),
	)
	ctl := controller.New(ctx, store, adapter, logger.Named("controller"), controller.WithPublisher(hub))

	html, err := render.NewHTML()
	if err != nil {
		return err
	}

	if !cfg.Dev {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(web.RequestLogger(logger.Named("http")), gin.Recovery())
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return fmt.Errorf("trusted proxies: %w", err)
	}

	web.RegisterHealth(router, db, hub, dbCfg.Path)
	router.GET("/ws", synchub.WSHandler(hub))
	web.NewHandler(ctl, store, html, logger.Named("web")).RegisterRoutes(router)

	// bind the feed first so address errors surface early
	tcpSrv := synchub.NewServer(cfg.SyncAddr, hub, logger.Named("sync"))
	if err := tcpSrv.Listen(); err != nil {
		return fmt.Errorf("tcp change feed: %w", err)
	}

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return hub.Run(gctx) })
	g.Go(tcpSrv.Run)
	// the CLI writes the same database
	g.Go(func() error { return store.Poll(gctx, cfg.PollInterval) })
	g.Go(func() error {
		logger.Info("http server listening", zap.String("addr", cfg.HTTPAddr), zap.Int("books", store.Len()))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down servers")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		var errs []error
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
		if err := tcpSrv.Close(); err != nil {
			errs = append(errs, fmt.Errorf("tcp shutdown: %w", err))
		}
		return errors.Join(errs...)
	})

	err = g.Wait()
	logger.Info("servers stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
