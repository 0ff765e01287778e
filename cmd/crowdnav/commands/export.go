package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/zeusync/crowdnav/internal/core/geometry"
)

var (
	exportBin   string
	exportOut   string
	exportPolys bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Build the navmesh and write it out",
	Long: `Build the navmesh and write it as Wavefront OBJ (to --out, or stdout when
--bin is not set) and/or as a binary *.bin snapshot (--bin) that Load can
read back.

--polygons writes the navmesh polygons as OBJ faces instead of triangles.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportBin, "bin", "", "write a binary snapshot to this *.bin file")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "write OBJ to this file")
	exportCmd.Flags().BoolVar(&exportPolys, "polygons", false, "export polygons instead of triangles")
}

func runExport(cmd *cobra.Command, _ []string) error {
	nm, _, err := buildNavmesh(cmd)
	if err != nil {
		return err
	}
	defer nm.Close()

	if exportBin != "" {
		if !nm.Save(exportBin) {
			return journalError("save navmesh", nm)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", exportBin)
	}
	if exportBin != "" && exportOut == "" {
		return nil
	}

	var w io.Writer = cmd.OutOrStdout()
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if exportPolys {
		verts, indices, sizes := nm.GetPolygonization()
		return geometry.WriteOBJ(w, verts, indices, sizes)
	}
	verts, tris := nm.GetTriangulation()
	return geometry.WriteOBJ(w, verts, tris, nil)
}
