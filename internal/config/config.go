// Package config parses process configuration from flags and
// environment variables, in the flags-with-env-fallback idiom the
// ambient stack is grounded on.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	flag "github.com/spf13/pflag"
)

func getenv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getenvUint16(key string, def uint16) (uint16, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	i, err := strconv.ParseUint(v, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", key, v, err)
	}
	return uint16(i), nil
}

func getenvBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// ServerConfig holds the pingxelflut-server process configuration
// (spec §6).
type ServerConfig struct {
	Width, Height uint16
	Verbose       bool

	DispatchWorkers int

	SnapshotPath     string
	SnapshotInterval time.Duration
}

// ParseServerFlags parses args (typically os.Args[1:]) into a
// ServerConfig. Width, height, verbosity and snapshot path fall back to
// environment variables when not passed as flags; dispatch-workers and
// snapshot-interval have no environment fallback.
func ParseServerFlags(args []string) (ServerConfig, error) {
	fs := flag.NewFlagSet("pingxelflut-server", flag.ContinueOnError)

	defWidth, err := getenvUint16("PINGXELFLUT_WIDTH", 1920)
	if err != nil {
		return ServerConfig{}, err
	}
	defHeight, err := getenvUint16("PINGXELFLUT_HEIGHT", 1080)
	if err != nil {
		return ServerConfig{}, err
	}

	var cfg ServerConfig
	fs.Uint16Var(&cfg.Width, "width", defWidth, "canvas width in pixels (env: PINGXELFLUT_WIDTH)")
	fs.Uint16Var(&cfg.Height, "height", defHeight, "canvas height in pixels (env: PINGXELFLUT_HEIGHT)")
	fs.BoolVar(&cfg.Verbose, "verbose", getenvBool("PINGXELFLUT_VERBOSE", false), "verbose debug logging (env: PINGXELFLUT_VERBOSE)")
	fs.IntVar(&cfg.DispatchWorkers, "dispatch-workers", 64, "size of the inbound packet worker pool")
	fs.StringVar(&cfg.SnapshotPath, "snapshot-path", getenv("PINGXELFLUT_SNAPSHOT_PATH", ""), "write periodic PNG snapshots to this path (env: PINGXELFLUT_SNAPSHOT_PATH); empty disables snapshotting")
	fs.DurationVar(&cfg.SnapshotInterval, "snapshot-interval", time.Second, "interval between snapshots")

	if err := fs.Parse(args); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

// ClientConfig holds the pingxelflut-client process configuration
// (spec §6 and SPEC_FULL.md's Supplemented Features).
type ClientConfig struct {
	Target string
	Image  string

	OffsetX, OffsetY uint16

	NoQuerySize   bool
	Width, Height uint16

	QueryTimeout time.Duration
	Workers      int
	Verbose      bool
}

// ParseClientFlags parses args into a ClientConfig.
func ParseClientFlags(args []string) (ClientConfig, error) {
	fs := flag.NewFlagSet("pingxelflut-client", flag.ContinueOnError)

	var cfg ClientConfig
	fs.StringVar(&cfg.Target, "target", "", "server hostname or IP address (required)")
	fs.StringVar(&cfg.Image, "image", "", "path to the image to flood (required)")
	fs.Uint16Var(&cfg.OffsetX, "offset-x", 0, "x offset to draw the image at")
	fs.Uint16Var(&cfg.OffsetY, "offset-y", 0, "y offset to draw the image at")
	fs.BoolVar(&cfg.NoQuerySize, "no-query-size", false, "skip querying the server's canvas size; use --width/--height instead")
	fs.Uint16Var(&cfg.Width, "width", 0, "canvas width override, used only with --no-query-size")
	fs.Uint16Var(&cfg.Height, "height", 0, "canvas height override, used only with --no-query-size")
	fs.DurationVar(&cfg.QueryTimeout, "query-timeout", 2*time.Second, "timeout for the size query")
	fs.IntVar(&cfg.Workers, "workers", 256, "size of the pixel-send worker pool")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "verbose debug logging")

	if err := fs.Parse(args); err != nil {
		return ClientConfig{}, err
	}

	if cfg.Target == "" {
		return ClientConfig{}, fmt.Errorf("config: --target is required")
	}
	if cfg.Image == "" {
		return ClientConfig{}, fmt.Errorf("config: --image is required")
	}
	if cfg.NoQuerySize && (cfg.Width == 0 || cfg.Height == 0) {
		return ClientConfig{}, fmt.Errorf("config: --no-query-size requires --width and --height")
	}

	return cfg, nil
}
