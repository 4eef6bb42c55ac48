package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"victim-aid-go/internal/app"
	"victim-aid-go/internal/config"
	"victim-aid-go/pkg/logger"
)

const usage = `usage: victim-aid [command]

commands:
  serve    run the HTTP API (default)
  migrate  apply database migrations and exit
  env      list configuration variables
`

func main() {
	log := logger.NewFromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command := "serve"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	var err error
	switch command {
	case "serve":
		err = serve(ctx, log)
	case "migrate":
		log.Info("app: applying migrations")
		err = app.Migrate(ctx, log)
	case "env":
		var out string
		if out, err = config.Usage(); err == nil {
			fmt.Print(out)
		}
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		log.Critical("app: "+command+" failed", "err", err)
		os.Exit(1)
	}
}

// serve runs the API until a signal arrives or the listener fails, then
// drains in-flight requests and releases connections.
func serve(ctx context.Context, log logger.Logger) error {
	log.Info("app: starting")
	application, err := app.New(log)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	srv := application.HTTPServer()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http: listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("app: shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), application.ShutdownTimeout())
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})

	err = g.Wait()
	if closeErr := application.Close(); closeErr != nil {
		err = errors.Join(err, fmt.Errorf("close: %w", closeErr))
	}
	if err == nil {
		log.Info("app: stopped")
	}
	return err
}
