// Package commands implements the crowdnav subcommands.
package commands

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zeusync/crowdnav/internal/config"
	"github.com/zeusync/crowdnav/internal/core/events/bus"
	"github.com/zeusync/crowdnav/internal/core/geometry"
	"github.com/zeusync/crowdnav/internal/core/systems/physics"
	"github.com/zeusync/crowdnav/internal/injector"
	"github.com/zeusync/crowdnav/internal/navigator"
)

var (
	configFile string
	objFile    string
	gridSize   int
	gridCell   float32
	events     bool
)

var rootCmd = &cobra.Command{
	Use:   "crowdnav",
	Short: "Navmesh, crowd and formation toolbox",
	Long: `crowdnav builds a navigation mesh from an OBJ file or a generated grid
and runs path queries, crowd simulations and exports over it.

Examples:
  crowdnav path 0,0,0 9,0,9 --grid 10
  crowdnav simulate --obj level.obj --agents 8 --formation wedge --target 20,0,20
  crowdnav export --grid 16 --bin mesh.bin --out mesh.obj`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&objFile, "obj", "", "input OBJ geometry")
	rootCmd.PersistentFlags().IntVar(&gridSize, "grid", 10, "cells per side of the generated grid when --obj is not set")
	rootCmd.PersistentFlags().Float32Var(&gridCell, "cell", 1, "cell size of the generated grid")
	rootCmd.PersistentFlags().BoolVar(&events, "events", false, "trace lifecycle events to stderr")

	rootCmd.AddCommand(pathCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(exportCmd)
}

func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads --config. Without one, the process log is console
// output at warn level.
func loadConfig() (config.Config, error) {
	if configFile == "" {
		cfg := config.Default()
		cfg.Log.Level, cfg.Log.Format = "warn", "console"
		return cfg, nil
	}
	return config.LoadFile(configFile)
}

// buildNavmesh loads the input geometry and builds a navmesh over it. The
// journal is attached to any error.
func buildNavmesh(cmd *cobra.Command) (*navigator.Navmesh, config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, cfg, err
	}
	nm, err := injector.InitializeNavmesh(cfg)
	if err != nil {
		return nil, cfg, err
	}
	if events {
		w := cmd.ErrOrStderr()
		if _, err := nm.Events().Subscribe(bus.Wildcard, func(e bus.Event) error {
			_, err := fmt.Fprintf(w, "event %s source=%s %+v\n", e.Type(), e.Source(), e.Data())
			return err
		}); err != nil {
			return nil, cfg, err
		}
	}

	var ok bool
	if objFile != "" {
		ok = nm.InitByOBJ(objFile)
	} else {
		if gridSize <= 0 {
			return nil, cfg, fmt.Errorf("--grid must be positive, got %d", gridSize)
		}
		ok = nm.InitByGeometry(geometry.Grid(physics.Vec3{}, gridCell, gridSize, gridSize))
	}
	if ok {
		ok = nm.Build()
	}
	if !ok {
		return nil, cfg, journalError("build navmesh", nm)
	}
	return nm, cfg, nil
}

// traceSummary prints per-type event counts when --events is set.
func traceSummary(cmd *cobra.Command, nm *navigator.Navmesh) {
	if !events {
		return
	}
	st := nm.Events().Stats()
	types := make([]string, 0, len(st.ByType))
	for typ := range st.ByType {
		types = append(types, typ)
	}
	slices.Sort(types)
	parts := make([]string, len(types))
	for i, typ := range types {
		parts[i] = fmt.Sprintf("%s=%d", typ, st.ByType[typ])
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "events published=%d failed=%d %s\n", st.Published, st.Failed, strings.Join(parts, " "))
}

func journalError(what string, nm *navigator.Navmesh) error {
	msg := strings.TrimSpace(nm.GetLog())
	if msg == "" {
		return errors.New(what + " failed")
	}
	return fmt.Errorf("%s failed:\n%s", what, msg)
}

// parseVec parses "x,y,z".
func parseVec(s string) ([]float32, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return nil, fmt.Errorf("invalid vector %q: want x,y,z", s)
	}
	v := make([]float32, 3)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("invalid vector %q: %w", s, err)
		}
		v[i] = float32(f)
	}
	return v, nil
}

func formatVec(v []float32) string {
	if len(v) < 3 {
		return "-"
	}
	return fmt.Sprintf("%.3f,%.3f,%.3f", v[0], v[1], v[2])
}
