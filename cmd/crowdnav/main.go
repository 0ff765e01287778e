// Package main provides the crowdnav CLI.
//
// Usage:
//
//	crowdnav [flags] <command> [args]
//
// Commands:
//
//	simulate - drive a crowd (optionally in formation) toward a target
//	path     - find a straight path between two points
//	export   - write the built navmesh as *.bin and/or OBJ
//
// Input geometry is an OBJ file (--obj) or a generated flat grid (--grid).
package main

import (
	"fmt"
	"os"

	"github.com/zeusync/crowdnav/cmd/crowdnav/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
