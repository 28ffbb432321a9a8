package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/OCharnyshevich/anvilworld/internal/world"
)

// findCommand implements the "find" verb: list every block in one
// chunk whose state name contains a substring.
type findCommand struct {
	world      string
	configPath string
}

func (*findCommand) Name() string { return "find" }
func (*findCommand) Synopsis() string {
	return "list blocks in a chunk whose state name contains a substring"
}
func (*findCommand) Usage() string {
	return `find -world <path> <cx> <cz> <substring>
  List every block within chunk (cx,cz) whose state name contains <substring>,
  printing its absolute coordinate.

`
}

func (c *findCommand) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.world, "world", "", "path to the world directory (overrides config)")
	f.StringVar(&c.configPath, "config", "", "directory to search for worldtool.yaml")
}

func (c *findCommand) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 3 {
		fmt.Fprintln(os.Stderr, "expected exactly three positional arguments: cx cz substring")
		return subcommands.ExitUsageError
	}
	cx, err := parseInt(f.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid cx %q: %v\n", f.Arg(0), err)
		return subcommands.ExitUsageError
	}
	cz, err := parseInt(f.Arg(1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid cz %q: %v\n", f.Arg(1), err)
		return subcommands.ExitUsageError
	}
	substr := f.Arg(2)

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

	matches, err := w.FindLike(int32(cx), int32(cz), substr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	for _, m := range matches {
		st := m.Block.State()
		fmt.Printf("(%d,%d,%d): %s %v\n", m.X, m.Y, m.Z, st.Name, st.Props)
	}
	return subcommands.ExitSuccess
}
