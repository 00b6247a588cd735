// dimdim converter server
//
// Serves the currency converter page the functional tests drive, plus the
// plain-text /convert endpoint.
//
// Usage:
//
//	go run ./cmd/dimdim                       # :8000, 1:1 rates
//	go run ./cmd/dimdim -config dimdim.yaml   # rates and currencies from YAML
//
// Then run the browser suite against it:
//
//	DIMDIM_BASE_URL=http://localhost:8000 go test -tags=e2e ./e2e/...
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/thesyncim/dimdim/cmd/dimdim/server"
	"github.com/thesyncim/dimdim/internal/logging"
)

// defaultAddr is where the converter listens unless the config file,
// DIMDIM_ADDR or -addr say otherwise.
const defaultAddr = ":8000"

func main() {
	configPath := flag.String("config", "", "YAML config file (rates, currencies, timeouts)")
	addr := flag.String("addr", "", "listen address, overrides the config file and DIMDIM_ADDR")
	logLevel := flag.String("log-level", "", "log level: debug, info, warn, error")
	flag.Parse()

	logCfg := logging.DefaultConfig()
	if *logLevel != "" {
		logCfg.Level = *logLevel
	}
	logger := logging.Init(logCfg)

	base := server.DefaultConfig()
	base.Addr = defaultAddr
	cfg, err := server.LoadConfigOver(base, *configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create server")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if _, err := srv.Start(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-srv.Done():
			return errors.New("server stopped unexpectedly")
		}
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info().Msg("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}
