package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/hexhive/internal/config"
	"github.com/DoyleJ11/hexhive/internal/discovery"
	"github.com/DoyleJ11/hexhive/internal/hex"
	"github.com/DoyleJ11/hexhive/internal/interact"
	"github.com/DoyleJ11/hexhive/internal/render"
	"github.com/DoyleJ11/hexhive/internal/session"
	"github.com/DoyleJ11/hexhive/internal/transport"
)

func main() {
	if err := run(); err != nil {
		os.Stderr.WriteString("hexclient: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run() (err error) {
	if err := config.Load(); err != nil {
		return err
	}
	cfg, err := config.LoadClient()
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

	url := cfg.ServerURL
	if url == "" {
		log.Info("looking for a server on the local network")
		url, err = discovery.Browse(ctx, 3*time.Second)
		if err != nil {
			return err
		}
	}

	assets := render.NewAssets()
	if cfg.AssetDir != "" {
		assets, err = render.LoadAssets(os.DirFS(cfg.AssetDir), ".")
		if err != nil {
			return err
		}
		log.Info("assets loaded", zap.Int("count", assets.Len()))
	}

	conn, err := transport.Dial(ctx, url, cfg.User, log)
	if err != nil {
		return err
	}

	g := newGame(render.New(assets), cfg.Width, cfg.Height)
	sess := session.New(ctx, session.Options{
		Room:          cfg.Room,
		Username:      cfg.User,
		Layout:        hex.Layout{Size: cfg.TileSize},
		Bounds:        interact.Bounds{W: float64(cfg.Width), H: float64(cfg.Height)},
		HoverInterval: cfg.HoverInterval,
		PollInterval:  cfg.PollInterval,
	}, conn, g, log)
	g.sess = sess

	var eg errgroup.Group
	eg.Go(func() error {
		select {
		case <-ctx.Done():
		case <-sess.Done():
		}
		g.quit.Store(true)
		return nil
	})

	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowTitle("hexhive - " + cfg.Room)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	runErr := ebiten.RunGame(g)
	if errors.Is(runErr, ebiten.Termination) {
		runErr = nil
	}
	err = multierr.Append(runErr, sess.Close())
	g.quit.Store(true)
	stop()
	return multierr.Append(err, eg.Wait())
}
