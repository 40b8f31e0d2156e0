package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	meshio "sciviz/io"
	"sciviz/viewer"
)

var viewCommand = &cli.Command{
	Name:      "view",
	Usage:     "Show mesh files or a scene file",
	ArgsUsage: "[ <mesh.obj|mesh.gltf|mesh.glb> ... ]",
	Action:    view,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "scene",
			Usage: "load structures and camera from a .sciviz.json scene file",
		},
		&cli.BoolFlag{
			Name:  "points",
			Usage: "show mesh vertices as point clouds",
		},
		&cli.StringFlag{
			Name:  "color-by",
			Usage: "color every structure by the x, y or z coordinate",
		},
		&cli.StringFlag{
			Name:  "save-scene",
			Usage: "write the structures given on the command line to a scene file and exit",
		},
	},
}

// sceneFromArgs describes mesh files given on the command line as a scene.
// Structure names come from the file names, made unique with a suffix.
func sceneFromArgs(files []string, points bool, colorBy, colormap string) (*meshio.SceneFile, error) {
	if len(files) == 0 {
		return nil, errors.New("no mesh files given")
	}
	kind := meshio.KindMesh
	if points {
		kind = meshio.KindPoints
	}
	sf := meshio.NewSceneFile("command line")
	used := make(map[string]int)
	for _, f := range files {
		base := strings.TrimSuffix(filepath.Base(f), filepath.Ext(f))
		name := base
		if n := used[base]; n > 0 {
			name = fmt.Sprintf("%s-%d", base, n)
		}
		used[base]++
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, err
		}
		st := meshio.StructureData{Name: name, Kind: kind, File: abs, ColorBy: colorBy}
		if colorBy != "" {
			st.Colormap = colormap
		}
		sf.Structures = append(sf.Structures, st)
	}
	if err := sf.Validate(); err != nil {
		return nil, err
	}
	return sf, nil
}

func view(ctx *cli.Context) error {
	var (
		log = logger()
		cfg = settings(ctx)
		sf  *meshio.SceneFile
		err error
	)
	switch path := ctx.String("scene"); {
	case path != "" && ctx.Args().Present():
		return errors.New("give either --scene or mesh files, not both")
	case path != "":
		if sf, err = meshio.LoadScene(path); err != nil {
			return err
		}
	default:
		sf, err = sceneFromArgs(ctx.Args().Slice(), ctx.Bool("points"), ctx.String("color-by"), cfg.Render.Colormap)
		if err != nil {
			return err
		}
	}

	if out := ctx.String("save-scene"); out != "" {
		if err := meshio.SaveScene(out, sf); err != nil {
			return err
		}
		log.Info("wrote scene", "path", out, "structures", len(sf.Structures))
		return nil
	}

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

	if err := v.AddSceneFile(sf); err != nil {
		return err
	}
	log.Info("loaded scene", "name", sf.Name, "structures", v.Registry().Len())
	return v.Run(ctx.Context, win, nil)
}
