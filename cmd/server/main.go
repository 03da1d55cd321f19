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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"dbservice/internal/app"
	calleridhandler "dbservice/internal/callerid/handler"
	lookuphandler "dbservice/internal/lookup/handler"
	"dbservice/internal/platform/config"
	"dbservice/internal/platform/httpserver"
	"dbservice/internal/platform/logger"
	"dbservice/internal/platform/metrics"
	"dbservice/internal/platform/tracing"
	httptransport "dbservice/internal/transport/http"
	"dbservice/internal/version"
	"dbservice/internal/web"
	"dbservice/pkg/platform/middleware/botfilter"
)

const shutdownTimeout = 10 * time.Second

// main wires configuration, observability and the lookup services, then
// serves HTTP until SIGINT or SIGTERM.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing)
	if err != nil {
		log.Error("tracing setup failed", "error", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	services, err := app.New(ctx, cfg, log, m)
	if err != nil {
		log.Error("service wiring failed", "error", err)
		os.Exit(1)
	}

	router := httptransport.NewRouter(httptransport.Config{
		Logger:    log,
		Metrics:   m,
		Gatherer:  reg,
		Lookup:    lookuphandler.New(services.Lookup, log),
		CallerID:  calleridhandler.New(services.CallerID, log),
		Status:    services.Status,
		UI:        web.Handler(web.NewBudget(cfg)),
		BotFilter: []botfilter.Option{botfilter.WithCrawlerBlocking(cfg.BlockCrawlers)},
	})
	srv := httpserver.New(cfg.Addr, router)

	info := version.Get()
	log.Info("starting dbservice",
		"addr", cfg.Addr,
		"version", info.Version,
		"commit", info.Commit,
		"registry_url", cfg.Registry.URL,
		"callerid_backup", cfg.CallerID.BackupURL != "",
		"redis", cfg.Redis.URL != "",
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error("server error", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	if err := services.Close(); err != nil {
		log.Error("closing redis failed", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown failed", "error", err)
	}
	log.Info("dbservice stopped")
}
