package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ifelsik/livecall/internal"
	"github.com/Ifelsik/livecall/internal/adapter"
	"github.com/Ifelsik/livecall/internal/api"
	"github.com/Ifelsik/livecall/internal/call"
	"github.com/Ifelsik/livecall/internal/config"
	"github.com/Ifelsik/livecall/internal/delivery"
	"github.com/Ifelsik/livecall/internal/livedata"
	"github.com/Ifelsik/livecall/internal/repository"
	"github.com/Ifelsik/livecall/internal/result"
	"github.com/Ifelsik/livecall/internal/usecase"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 5 * time.Second

type remoteAPI struct {
	Fetch func(ctx context.Context, path string) *livedata.LiveData[result.SuccessError[string]] `method:"GET" path:"{path...}"`
}

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		logrus.Fatal(err)
	}
	log := internal.NewLogger(cfg.LogLevel)
	log.Info("Config loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []api.Option{
		api.WithHTTPClient(call.NewHTTPClient(cfg.Timeout)),
		api.WithDecoder(call.Text),
		api.WithCallAdapterFactory(adapter.NewFactory()),
		api.WithLogger(log),
	}

	var history *usecase.HistoryUseCase
	if cfg.HistoryEnabled() {
		dbConn, err := repository.ConnectPGSQL(cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)
		if err != nil {
			log.Fatal(err)
		}
		log.Info("Connected to database")

		repo, err := repository.NewORMrepository(dbConn, log)
		if err != nil {
			log.Fatal(err)
		}
		history = usecase.NewHistoryUseCase(repo, log)
		opts = append(opts, api.WithListener(history))
	}

	client, err := api.NewClient(cfg.BaseURL, opts...)
	if err != nil {
		log.Fatal(err)
	}

	var remote remoteAPI
	if err := client.Create(&remote); err != nil {
		log.Fatal(err)
	}

	log.Infof("Fetching %d paths from %s", len(cfg.Paths), client.BaseURL())
	fetchAll(ctx, log, remote, cfg.Paths)

	if history == nil {
		return
	}
	serveHistory(ctx, log, cfg.HTTPAddr, history)
}

// fetchAll starts every fetch at once and waits for all envelopes.
func fetchAll(ctx context.Context, log *logrus.Logger, remote remoteAPI, paths []string) {
	pending := make([]*livedata.LiveData[result.SuccessError[string]], 0, len(paths))
	for _, path := range paths {
		entry := log.WithField("path", path)
		ld := remote.Fetch(ctx, path)
		ld.ObserveContext(ctx, func(r result.SuccessError[string]) {
			if body, ok := r.Get(); ok {
				entry.Infof("Success: %s", body)
				return
			}
			entry.Warnf("Failure: %s", r.Message)
		})
		pending = append(pending, ld)
	}

	for _, ld := range pending {
		if _, err := ld.Await(ctx); err != nil {
			log.Warnf("Stopped waiting for results: %v", err)
			return
		}
	}
}

func serveHistory(ctx context.Context, log *logrus.Logger, addr string, history usecase.UseCase) {
	handlers := delivery.NewHistoryHandlers(history, log)
	srv := &http.Server{
		Addr:    addr,
		Handler: internal.HandleRoutes(handlers, log),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("History API server is starting on ", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
