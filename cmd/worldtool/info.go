package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/OCharnyshevich/anvilworld/internal/world"
)

// infoCommand implements the "info" verb: report the chunk coordinate
// and dirty state for a given absolute coordinate, without mutating
// anything.
type infoCommand struct {
	world      string
	configPath string
}

func (*infoCommand) Name() string     { return "info" }
func (*infoCommand) Synopsis() string { return "report chunk and dirty state for a coordinate" }
func (*infoCommand) Usage() string {
	return `info -world <path> <x> <y> <z>
  Report the chunk coordinate and pending-dirty state of the chunk containing
  absolute coordinate (x,y,z).

`
}

func (c *infoCommand) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.world, "world", "", "path to the world directory (overrides config)")
	f.StringVar(&c.configPath, "config", "", "directory to search for worldtool.yaml")
}

func (c *infoCommand) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	cx, cz := int32(x>>4), int32(z>>4)
	chunk, err := w.GetChunk(cx, cz)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	fmt.Printf("(%d,%d,%d) -> chunk (%d,%d): dirty=%v\n", x, y, z, cx, cz, chunk.Dirty())
	return subcommands.ExitSuccess
}
