package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/hexhive/internal/config"
	"github.com/DoyleJ11/hexhive/internal/discovery"
	"github.com/DoyleJ11/hexhive/internal/httpapi"
	"github.com/DoyleJ11/hexhive/internal/hub"
	"github.com/DoyleJ11/hexhive/internal/journal"
)

func main() {
	if err := run(); err != nil {
		os.Stderr.WriteString("hexserver: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run() (err error) {
	if err := config.Load(); err != nil {
		return err
	}
	cfg, err := config.LoadServer()
	if err != nil {
		return err
	}
	log, err := config.NewLogger(cfg.LogLevel, cfg.Dev)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	j, err := journal.Open(cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, j.Close()) }()

	h := hub.NewHub(ctx, j, log)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.SetupRoutes(httpapi.Deps{Hub: h, Moves: j, Log: log}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if cfg.Advertise {
		g.Go(func() error {
			_, portStr, _ := net.SplitHostPort(ln.Addr().String())
			port, _ := strconv.Atoi(portStr)
			adv, err := discovery.Advertise(cfg.ServiceName, port)
			if err != nil {
				// The server still works without LAN discovery.
				log.Warn("mdns advertise failed", zap.Error(err))
				return nil
			}
			log.Info("advertising", zap.String("service", discovery.ServiceType), zap.Int("port", port))
			<-gctx.Done()
			return adv.Shutdown()
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		h.Inbox() <- hub.ShutdownHub{}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
