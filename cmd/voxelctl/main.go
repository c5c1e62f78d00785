// Command voxelctl generates, inspects and renders VoxelCraft worlds without a
// graphics stack.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, args []string) error
}

var commands = []command{
	{"gen", "generate chunks around a center and optionally save them", runGen},
	{"info", "describe a save file", runInfo},
	{"list", "list saves in the save directory", runList},
	{"map", "render a top-down PNG map of a world", runMap},
	{"raycast", "cast a ray through a world and report the hit", runRaycast},
	{"sim", "walk an observer through a world headlessly", runSim},
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: voxelctl <command> [flags]")
	fmt.Fprintln(os.Stderr)
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-8s %s\n", c.name, c.usage)
	}
	fmt.Fprintln(os.Stderr, "\nRun voxelctl <command> -h for the flags of a command.")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	name, args := os.Args[1], os.Args[2:]
	if name == "help" || name == "-h" || name == "--help" {
		usage()
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	for _, c := range commands {
		if c.name != name {
			continue
		}
		err := c.run(ctx, args)
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "voxelctl %s: %v\n", name, err)
			os.Exit(1)
		}
		return
	}
	fmt.Fprintf(os.Stderr, "voxelctl: unknown command %q\n\n", name)
	usage()
	os.Exit(2)
}
