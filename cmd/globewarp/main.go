// globewarp projects landmass outlines for a light-source globe display and
// pre-warps raster images for it.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/Faultbox/globewarp/internal/config"
	"github.com/Faultbox/globewarp/internal/logger"
)

func main() {
	// Parse global flags first; the command and its flags follow them.
	config.ParseFlags()
	args := config.Args()

	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]
	if command == "help" || command == "-h" || command == "--help" {
		printUsage()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logging.Level, cfg.Logging.File, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := &app{cfg: cfg, log: log, stdout: os.Stdout}
	if err := app.run(ctx, command, args[1:]); err != nil {
		if errors.Is(err, errUnknownCommand) {
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
			printUsage()
		} else {
			log.Error("command failed", zap.String("command", command), zap.Error(err))
		}
		logger.Sync(log)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`globewarp - light-source globe projection tool

Usage:
  globewarp [global flags] <command> [options]

Commands:
  project [-in src] [-out file] [-set key=value]   Project landmasses to texture rings (GeoJSON)
  mesh [-in src] [-out file] [-2d] [-orbit lon,lat,dist]
                                                   Write rings and camera matrices as a binary mesh
  warp [-out file] [-bulge-only] <image>           Pre-warp an image for the display
  config show|save [path]|path                     Inspect or persist the effective config

Global flags:
  --config path          Config file (default ./globewarp.yaml, then the user config dir)
  --debug                Debug logging
  --light-to-sphere d    Light source to sphere center distance
  --light-to-image d     Light source to image plane distance
  --texture-size n       Texture edge length in pixels
  --radius r             Display sphere radius
  --stretch s            Derive bulge parameters from a display stretch
  --bulge-factor f       Bulge factor (overrides stretch)
  --bulge-exponent e     Bulge exponent (overrides stretch)
  --workers n            Concurrent bulge row bands

Examples:
  globewarp project -in countries.geo.json -out rings.geojson
  globewarp --texture-size 1024 mesh -orbit 0,20,3 -out globe.mesh
  globewarp --stretch 8 warp earth.jpg`)
}
