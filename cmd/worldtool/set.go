package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/OCharnyshevich/anvilworld/internal/block"
	"github.com/OCharnyshevich/anvilworld/internal/world"
)

// setCommand implements the "set" verb: replace the block state at one
// absolute coordinate and save its region.
type setCommand struct {
	world      string
	configPath string
	name       string
}

func (*setCommand) Name() string     { return "set" }
func (*setCommand) Synopsis() string { return "replace the block state at an absolute coordinate" }
func (*setCommand) Usage() string {
	return `set -world <path> -name <block-name> <x> <y> <z>
  Replace the block state at absolute coordinate (x,y,z) with -name, then
  save the owning region before exiting.

`
}

func (c *setCommand) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.world, "world", "", "path to the world directory (overrides config)")
	f.StringVar(&c.configPath, "config", "", "directory to search for worldtool.yaml")
	f.StringVar(&c.name, "name", "", "block state name to write, e.g. minecraft:stone")
}

func (c *setCommand) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.name == "" {
		fmt.Fprintln(os.Stderr, "set requires -name")
		return subcommands.ExitUsageError
	}

	x, y, z, ok := parseXYZ(f)
	if !ok {
		return subcommands.ExitUsageError
	}

	cfg, log, err := loadConfig(c.configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	path, err := resolveWorldPath(cfg, c.world)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}

	w, err := world.Open(path, cfg.World.Debug, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer w.Close()

	if err := w.SetBlockState(x, y, z, block.NewState(c.name, nil)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if err := w.Save(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	fmt.Printf("(%d,%d,%d) set to %s\n", x, y, z, c.name)
	return subcommands.ExitSuccess
}
