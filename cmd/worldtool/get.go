package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/OCharnyshevich/anvilworld/internal/anvil"
	"github.com/OCharnyshevich/anvilworld/internal/world"
)

// getCommand implements the "get" verb: print the block state at one
// absolute coordinate.
type getCommand struct {
	world      string
	configPath string
}

func (*getCommand) Name() string     { return "get" }
func (*getCommand) Synopsis() string { return "print the block state at an absolute coordinate" }
func (*getCommand) Usage() string {
	return `get -world <path> <x> <y> <z>
  Print the block state (name and properties) at absolute coordinate (x,y,z).

`
}

func (c *getCommand) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.world, "world", "", "path to the world directory (overrides config)")
	f.StringVar(&c.configPath, "config", "", "directory to search for worldtool.yaml")
}

func (c *getCommand) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	b, err := w.GetBlock(x, y, z)
	if err != nil {
		if errors.Is(err, anvil.ErrChunkUnallocated) || errors.Is(err, world.ErrRegionMissing) {
			fmt.Fprintf(os.Stderr, "(%d,%d,%d): %v\n", x, y, z, err)
			return subcommands.ExitFailure
		}
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	st := b.State()
	fmt.Printf("(%d,%d,%d): %s %v\n", x, y, z, st.Name, st.Props)
	return subcommands.ExitSuccess
}

// parseXYZ parses the three trailing positional arguments shared by
// get/set/info as integers.
func parseXYZ(f *flag.FlagSet) (x, y, z int, ok bool) {
	if f.NArg() != 3 {
		fmt.Fprintln(os.Stderr, "expected exactly three positional arguments: x y z")
		return 0, 0, 0, false
	}
	vals := make([]int, 3)
	for i := 0; i < 3; i++ {
		n, err := parseInt(f.Arg(i))
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid coordinate %q: %v\n", f.Arg(i), err)
			return 0, 0, 0, false
		}
		vals[i] = n
	}
	return vals[0], vals[1], vals[2], true
}

func parseInt(s string) (int, error) {
	var n int
	_, err := fmt.Sscanf(s, "%d", &n)
	return n, err
}
