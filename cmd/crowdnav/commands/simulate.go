package commands

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/zeusync/crowdnav/internal/core/formation"
	"github.com/zeusync/crowdnav/internal/navigator"
)

var (
	simAgents    int
	simSteps     int
	simDT        float32
	simTarget    string
	simSpawn     string
	simFormation string
	simSpacing   float32
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Move a crowd toward a target",
	Long: `Spawn agents around --spawn, send them toward --target and step the
crowd. With --formation the agents are grouped into one formation of the
given shape (line, column, wedge, box or circle) and move to its slots.

Final positions are printed one agent per line.`,
	Args: cobra.NoArgs,
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().IntVarP(&simAgents, "agents", "n", 4, "number of agents")
	simulateCmd.Flags().IntVar(&simSteps, "steps", 100, "number of ticks")
	simulateCmd.Flags().Float32Var(&simDT, "dt", 0.1, "tick length in seconds")
	simulateCmd.Flags().StringVar(&simSpawn, "spawn", "1,0,1", "spawn point x,y,z")
	simulateCmd.Flags().StringVar(&simTarget, "target", "8,0,8", "target point x,y,z")
	simulateCmd.Flags().StringVar(&simFormation, "formation", "", "formation shape, empty for none")
	simulateCmd.Flags().Float32Var(&simSpacing, "spacing", 1, "formation spacing")
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	if simAgents <= 0 || simSteps < 0 {
		return fmt.Errorf("--agents must be positive and --steps must not be negative")
	}
	spawn, err := parseVec(simSpawn)
	if err != nil {
		return err
	}
	target, err := parseVec(simTarget)
	if err != nil {
		return err
	}
	var shape formation.Shape
	if simFormation != "" {
		if shape, err = formation.ParseShape(simFormation); err != nil {
			return err
		}
	}

	nm, cfg, err := buildNavmesh(cmd)
	if err != nil {
		return err
	}
	defer nm.Close()

	if !nm.InitCrowd(cfg.Crowd.MaxAgents, cfg.Crowd.MaxAgentRadius) {
		return journalError("init crowd", nm)
	}
	agents, err := spawnAgents(nm, spawn, cfg.Crowd.Agent)
	if err != nil {
		return err
	}

	if simFormation != "" {
		if err := formUp(nm, shape, agents, spawn, target); err != nil {
			return err
		}
	} else {
		for _, a := range agents {
			if !nm.SetAgentTarget(a, target) {
				return journalError("set agent target", nm)
			}
		}
	}

	for i := 0; i < simSteps; i++ {
		if !nm.Tick(simDT) {
			return journalError(fmt.Sprintf("tick %d", i), nm)
		}
	}

	traceSummary(cmd, nm)
	out := cmd.OutOrStdout()
	for _, a := range agents {
		st := nm.GetAgentState(a)
		fmt.Fprintf(out, "agent %d pos=%s vel=%s state=%v\n",
			a, formatVec(nm.GetAgentPosition(a)), formatVec(nm.GetAgentVelocity(a)), st["state"])
	}
	if msg := nm.GetLog(); msg != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), msg)
	}
	return nil
}

// spawnAgents places the agents on a ring around center.
func spawnAgents(nm *navigator.Navmesh, center []float32, p map[string]float32) ([]int, error) {
	agents := make([]int, 0, simAgents)
	r := float64(simSpacing) * float64(simAgents) / (2 * math.Pi)
	for i := 0; i < simAgents; i++ {
		a := 2 * math.Pi * float64(i) / float64(simAgents)
		pos := []float32{
			center[0] + float32(r*math.Cos(a)),
			center[1],
			center[2] + float32(r*math.Sin(a)),
		}
		idx := nm.AddAgent(pos, p)
		if idx < 0 {
			return nil, journalError(fmt.Sprintf("add agent %d", i), nm)
		}
		agents = append(agents, idx)
	}
	return agents, nil
}

// formUp groups agents into one formation that faces from spawn to target.
func formUp(nm *navigator.Navmesh, shape formation.Shape, agents []int, spawn, target []float32) error {
	id := nm.CreateFormation(int(shape), simSpacing)
	if id < 0 {
		return journalError("create formation", nm)
	}
	for _, a := range agents {
		if !nm.AddAgentToFormation(id, a) {
			return journalError("add agent to formation", nm)
		}
	}
	dir := []float32{target[0] - spawn[0], target[1] - spawn[1], target[2] - spawn[2]}
	if !nm.SetFormationTarget(id, target, dir) {
		return journalError("set formation target", nm)
	}
	return nil
}
