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

	"neighborgrid/internal/api"
	"neighborgrid/internal/config"
	"neighborgrid/internal/data"
	"neighborgrid/internal/logger"
	"neighborgrid/internal/metrics"
	"neighborgrid/internal/simulate"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfgPath := flag.String("config", os.Getenv("NG_CONFIG"), "configuration file (YAML or JSON)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.New("api").Errorf("load config: %v", err)
		os.Exit(1)
	}
	logger.SetLevel(cfg.Logging.Level)
	log := logger.New("api")

	if cfg.API.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	rec, err := metrics.NewPromRecorder()
	if err != nil {
		log.Errorf("metrics: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := data.NewRunStore(cfg.API.RunTTL)
	store.StartJanitor(ctx, time.Minute)

	router := api.NewRouter(api.Deps{
		Config:   cfg,
		Service:  simulate.NewService(logger.New("simulate"), rec),
		Store:    store,
		Log:      log,
		Gatherer: prometheus.DefaultGatherer,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.API.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("shutdown: %v", err)
		}
	}()

	log.Infof("starting API server on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Errorf("server: %v", err)
		os.Exit(1)
	}
	log.Infof("server stopped")
}
