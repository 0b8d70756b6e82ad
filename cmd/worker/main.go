// Command worker runs the auto-reply job worker on its own, for deployments
// that set AUTO_REPLY_WORKER_ENABLED=false on the API.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"inkwell/internal/bootstrap"
	"inkwell/internal/config"
	"inkwell/internal/middleware"
	"inkwell/internal/observability"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	shutdownTracing, err := observability.InitTracing(observability.TracingFromConfig(cfg, "inkwell-worker"))
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	db, rdb, err := bootstrap.InitRuntime(cfg, bootstrap.Options{})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	if rdb == nil {
		log.Fatal("the worker needs Redis; check REDIS_URL")
	}
	defer func() { _ = rdb.Close() }()

	worker, err := bootstrap.NewAutoReplyWorker(cfg, db, rdb)
	if err != nil {
		log.Fatalf("Failed to create worker: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	worker.Start(ctx)
	<-ctx.Done()
	worker.Stop()
	middleware.Logger.Info("worker stopped")
}
