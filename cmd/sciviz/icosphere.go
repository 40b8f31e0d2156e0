package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"sciviz/geometry"
	meshio "sciviz/io"
	"sciviz/viewer"
)

var icosphereCommand = &cli.Command{
	Name:  "icosphere",
	Usage: "Generate a subdivided icosahedron and show it",
	Description: `The mesh is generated on a background goroutine while the window
opens; it appears in the viewer as soon as it is ready.`,
	Action: icosphere,
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "splits",
			Usage: "extra points per icosahedron edge",
			Value: 3,
		},
		&cli.BoolFlag{
			Name:  "project",
			Usage: "push vertices onto the unit sphere",
			Value: true,
		},
		&cli.StringFlag{
			Name:  "out",
			Usage: "also write the mesh to this OBJ file",
		},
		&cli.BoolFlag{
			Name:  "headless",
			Usage: "generate (and write) without opening a window",
		},
	},
}

type generated struct {
	mesh    *geometry.Mesh
	elapsed time.Duration
	err     error
}

// generate builds the icosphere off the calling goroutine. The channel
// yields exactly one result.
func generate(ctx context.Context, splits int, project bool) <-chan generated {
	out := make(chan generated, 1)
	go func() {
		start := time.Now()
		m, err := geometry.Icosphere(splits, project)
		res := generated{mesh: m, elapsed: time.Since(start), err: err}
		select {
		case out <- res:
		case <-ctx.Done():
		}
		close(out)
	}()
	return out
}

func icosphere(ctx *cli.Context) error {
	var (
		log      = logger()
		splits   = ctx.Int("splits")
		project  = ctx.Bool("project")
		outPath  = ctx.String("out")
		headless = ctx.Bool("headless")
	)
	if splits < 0 {
		return fmt.Errorf("--splits must be non-negative, got %d", splits)
	}
	results := generate(ctx.Context, splits, project)

	// finish hands the generated mesh on after logging and exporting it.
	finish := func(res generated) (*geometry.Mesh, error) {
		if res.err != nil {
			return nil, res.err
		}
		log.Info("generated icosphere",
			"splits", splits,
			"vertices", len(res.mesh.Positions),
			"faces", len(res.mesh.Faces),
			"elapsed", res.elapsed)
		if outPath != "" {
			if err := meshio.ExportOBJ(outPath, res.mesh); err != nil {
				return nil, err
			}
			log.Info("wrote mesh", "path", outPath)
		}
		return res.mesh, nil
	}

	if headless {
		select {
		case res, ok := <-results:
			if !ok {
				return ctx.Context.Err()
			}
			_, err := finish(res)
			return err
		case <-ctx.Context.Done():
			return ctx.Context.Err()
		}
	}

	cfg := settings(ctx)
	win, e, err := viewer.Open(cfg, log)
	if err != nil {
		return err
	}
	defer viewer.Close(win, e)

	w, h := win.GetFramebufferSize()
	v, err := viewer.New(e, cfg, w, h)
	if err != nil {
		return err
	}
	defer v.Destroy()

	incoming := make(chan *geometry.Mesh, 1)
	errc := make(chan error, 1)
	go func() {
		defer close(incoming)
		res, ok := <-results
		if !ok {
			return
		}
		m, err := finish(res)
		if err != nil {
			errc <- err
			return
		}
		incoming <- m
	}()

	if err := v.Run(ctx.Context, win, incoming); err != nil {
		return err
	}
	select {
	case err := <-errc:
		return err
	default:
		return nil
	}
}
