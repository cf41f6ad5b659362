package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"arxivdigest/internal/config"
	"arxivdigest/internal/infrastructure/storage"
	"arxivdigest/internal/logging"
	"arxivdigest/internal/web"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	days := storage.NewDailyFileStore(cfg.Storage.DataDir)

	favorites, err := storage.OpenFavoriteStore(cfg.Storage.FavoritesPath)
	if err != nil {
		logger.Error("open favorites store", "error", err)
		os.Exit(1)
	}
	defer favorites.Close()

	slides := web.NewSlideRenderer(filepath.Join(cfg.Storage.DataDir, "slides"))
	handler := web.New(cfg.Web, days, favorites, slides, logger.With("component", "web"))

	server := &http.Server{Addr: cfg.Web.Addr, Handler: handler}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("web front listening", "addr", cfg.Web.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
