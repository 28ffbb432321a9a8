// worldtool is the thin entry-point executable for the anvil storage
// engine: a handful of verbs for inspecting and editing a world
// directory from the command line.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/subcommands"

	"github.com/OCharnyshevich/anvilworld/internal/config"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(&getCommand{}, "")
	subcommands.Register(&setCommand{}, "")
	subcommands.Register(&findCommand{}, "")
	subcommands.Register(&infoCommand{}, "")

	flag.Parse()
	ctx := context.Background()
	os.Exit(int(subcommands.Execute(ctx)))
}

// loadConfig resolves worldtool's config and builds the ambient
// slog.Logger, honoring the --config flag every verb accepts.
func loadConfig(configPath string) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Logging.Level)); err != nil {
		level = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	return cfg, slog.New(handler), nil
}

// resolveWorldPath prefers an explicit -world flag value over
// the config-file/environment default, failing only if neither is set.
func resolveWorldPath(cfg *config.Config, flagVal string) (string, error) {
	if flagVal != "" {
		return flagVal, nil
	}
	if cfg.World.Path != "" {
		return cfg.World.Path, nil
	}
	return "", fmt.Errorf("no world path given: pass --world or set world.path in worldtool.yaml")
}
