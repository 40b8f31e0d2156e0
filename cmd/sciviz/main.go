// Command sciviz shows meshes and point clouds in an interactive viewer.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/urfave/cli/v2"

	"sciviz/config"
	"sciviz/logging"
)

var (
	configFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "TOML settings file",
	}
	logLevelFlag = &cli.StringFlag{
		Name:  "log-level",
		Usage: "debug, info, warn or error (overrides the config file)",
	}
	widthFlag = &cli.IntFlag{
		Name:  "width",
		Usage: "window width (overrides the config file)",
	}
	heightFlag = &cli.IntFlag{
		Name:  "height",
		Usage: "window height (overrides the config file)",
	}
	materialFlag = &cli.StringFlag{
		Name:  "material",
		Usage: "default material: clay, wax, flat or metal",
	}
	colormapFlag = &cli.StringFlag{
		Name:  "colormap",
		Usage: "default colormap for scalar quantities",
	}
	matcapFlag = &cli.StringSliceFlag{
		Name:  "matcap",
		Usage: "extra material from an image file, as name=path (repeatable)",
	}
)

func newApp() *cli.App {
	return &cli.App{
		Name:  "sciviz",
		Usage: "3D viewer for meshes and point clouds",
		Flags: []cli.Flag{
			configFlag,
			logLevelFlag,
			widthFlag,
			heightFlag,
			materialFlag,
			colormapFlag,
			matcapFlag,
		},
		Before: setup,
		Commands: []*cli.Command{
			icosphereCommand,
			viewCommand,
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

const configKey = "config"

// setup loads settings, applies flag overrides and installs the logger.
func setup(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	log, err := logging.New(ctx.App.ErrWriter, cfg.Log.Level)
	if err != nil {
		return err
	}
	logging.SetLogger(log)
	if ctx.App.Metadata == nil {
		ctx.App.Metadata = make(map[string]any)
	}
	ctx.App.Metadata[configKey] = cfg
	return nil
}

func loadConfig(ctx *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if path := ctx.String(configFlag.Name); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return cfg, err
		}
	}
	if ctx.IsSet(logLevelFlag.Name) {
		cfg.Log.Level = ctx.String(logLevelFlag.Name)
	}
	if ctx.IsSet(widthFlag.Name) {
		cfg.Window.Width = ctx.Int(widthFlag.Name)
	}
	if ctx.IsSet(heightFlag.Name) {
		cfg.Window.Height = ctx.Int(heightFlag.Name)
	}
	if ctx.IsSet(materialFlag.Name) {
		cfg.Render.Material = ctx.String(materialFlag.Name)
	}
	if ctx.IsSet(colormapFlag.Name) {
		cfg.Render.Colormap = ctx.String(colormapFlag.Name)
	}
	for _, spec := range ctx.StringSlice(matcapFlag.Name) {
		name, path, ok := strings.Cut(spec, "=")
		if !ok || name == "" || path == "" {
			return cfg, fmt.Errorf("--matcap %q: want name=path", spec)
		}
		if cfg.Render.Matcaps == nil {
			cfg.Render.Matcaps = make(map[string]string)
		}
		cfg.Render.Matcaps[name] = path
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// settings returns what setup stored.
func settings(ctx *cli.Context) config.Config {
	if cfg, ok := ctx.App.Metadata[configKey].(config.Config); ok {
		return cfg
	}
	return config.Default()
}

func logger() *slog.Logger { return logging.Logger() }
