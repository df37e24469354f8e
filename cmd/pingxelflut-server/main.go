// pingxelflut-server — a Pingxelflut canvas server addressed over raw
// ICMP Echo frames.
//
// Usage:
//
//	sudo pingxelflut-server [flags]
//
// Flags:
//
//	--width int              canvas width in pixels (default 1920)
//	--height int              canvas height in pixels (default 1080)
//	--dispatch-workers int    size of the inbound packet worker pool
//	--snapshot-path string    write periodic PNG snapshots here
//	--snapshot-interval dur   interval between snapshots (default 1s)
//	--verbose                 verbose debug logging
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pingxelflut/pingxelflut/internal/config"
	"github.com/pingxelflut/pingxelflut/internal/logging"
	"github.com/pingxelflut/pingxelflut/internal/present"
	"github.com/pingxelflut/pingxelflut/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.ParseServerFlags(os.Args[1:])
	if err != nil {
		return err
	}

	log := logging.New(cfg.Verbose)

	srv := server.New(server.Config{
		Width:           cfg.Width,
		Height:          cfg.Height,
		DispatchWorkers: cfg.DispatchWorkers,
	}, log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.SnapshotPath != "" {
		snap := &present.Snapshotter{
			Canvas:   srv.Canvas(),
			Path:     cfg.SnapshotPath,
			Interval: cfg.SnapshotInterval,
			Logger:   log,
		}
		go snap.Run(ctx)
		log.Info("snapshotting enabled", "path", cfg.SnapshotPath, "interval", cfg.SnapshotInterval)
	}

	log.Info("pingxelflut-server starting", "width", cfg.Width, "height", cfg.Height)
	return srv.Run(ctx)
}
