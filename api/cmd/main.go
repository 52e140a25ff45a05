package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/eprocure-portal/internal/bootstrap"
	"github.com/baechuer/eprocure-portal/internal/logger"
)

const shutdownTimeout = 15 * time.Second

// httpServer is the part of *http.Server that Run drives.
type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
	Close() error
	Addr() string
}

type realServer struct{ *http.Server }

func (r realServer) Addr() string { return r.Server.Addr }

// serverBuilder returns the server and a cleanup that releases backends.
type serverBuilder func() (httpServer, func(), error)

// Run serves until a signal arrives or the listener fails. The cleanup runs
// after shutdown so in-flight event deliveries finish before sinks close.
func Run(build serverBuilder, sigCh <-chan os.Signal, lg zerolog.Logger) int {
	srv, cleanup, err := build()
	if err != nil {
		lg.Error().Err(err).Msg("bootstrap failed")
		return 1
	}
	defer cleanup()

	if err := serve(srv, sigCh, lg); err != nil {
		lg.Error().Err(err).Msg("server crashed")
		return 1
	}
	drain(srv, lg)
	return 0
}

// serve blocks until sigCh fires (nil) or ListenAndServe fails (its error).
func serve(srv httpServer, sigCh <-chan os.Signal, lg zerolog.Logger) error {
	failed := make(chan error, 1)
	go func() {
		lg.Info().Str("addr", srv.Addr()).Msg("portal listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			failed <- err
		}
	}()

	select {
	case sig := <-sigCh:
		lg.Info().Str("signal", sig.String()).Msg("shutdown signal received")
		return nil
	case err := <-failed:
		return err
	}
}

func drain(srv httpServer, lg zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		lg.Error().Err(err).Dur("timeout", shutdownTimeout).Msg("graceful shutdown failed, closing")
		_ = srv.Close()
	}
	lg.Info().Msg("shutdown complete")
}

func buildFromBootstrap() (httpServer, func(), error) {
	srv, cleanup, err := bootstrap.NewServer()
	if err != nil {
		return nil, nil, err
	}
	return realServer{srv}, cleanup, nil
}

func main() {
	logger.Init()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	os.Exit(Run(buildFromBootstrap, sigCh, zlog.Logger))
}
