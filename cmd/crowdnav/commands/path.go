package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zeusync/crowdnav/internal/core/navigation"
)

var pathMode string

var pathCmd = &cobra.Command{
	Use:   "path <start> <end>",
	Short: "Find a straight path between two points",
	Long: `Find a straight path between two x,y,z points and print its waypoints.

--mode selects the vertices added between corners: corners adds none,
area adds area crossings and all adds every polygon edge crossing.`,
	Args: cobra.ExactArgs(2),
	RunE: runPath,
}

func init() {
	pathCmd.Flags().StringVar(&pathMode, "mode", "corners", "crossing vertices: corners, area or all")
}

func parsePathMode(s string) (navigation.StraightPathMode, error) {
	switch s {
	case "corners", "":
		return navigation.StraightPathCorners, nil
	case "area":
		return navigation.StraightPathAreaCrossings, nil
	case "all":
		return navigation.StraightPathAllCrossings, nil
	}
	return 0, fmt.Errorf("unknown path mode %q", s)
}

func runPath(cmd *cobra.Command, args []string) error {
	start, err := parseVec(args[0])
	if err != nil {
		return err
	}
	end, err := parseVec(args[1])
	if err != nil {
		return err
	}
	mode, err := parsePathMode(pathMode)
	if err != nil {
		return err
	}

	nm, _, err := buildNavmesh(cmd)
	if err != nil {
		return err
	}
	defer nm.Close()

	pts := nm.FindStraightPath(start, end, int(mode))
	if len(pts) == 0 {
		return journalError("find path", nm)
	}
	out := cmd.OutOrStdout()
	for i := 0; i+2 < len(pts); i += 3 {
		fmt.Fprintln(out, formatVec(pts[i:i+3]))
	}
	if msg := nm.GetLog(); msg != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), msg)
	}
	return nil
}
