// Package cli defines the datame command tree.
package cli

import (
	"context"
	"io"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/koustreak/datame/internal/config"
	"github.com/koustreak/datame/internal/logger"
)

// Env carries the process dependencies commands need, so tests can supply
// their own.
type Env struct {
	Getenv func(string) string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Run executes the command line args. Errors are printed to env.Stderr in
// red and returned so the caller can pick an exit code.
func Run(ctx context.Context, args []string, env Env) error {
	root := NewRootCmd(env)
	root.SetArgs(args)
	root.SetIn(env.Stdin)
	root.SetOut(env.Stdout)
	root.SetErr(env.Stderr)

	err := root.ExecuteContext(ctx)
	if err != nil {
		red := color.New(color.FgRed, color.Bold)
		red.Fprint(env.Stderr, "error: ")
		color.New(color.FgRed).Fprintln(env.Stderr, err.Error())
	}
	return err
}

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	verbose    int
}

// loadConfig reads the config file and environment.
func (g *globalOptions) loadConfig(env Env) (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(env.Getenv)
	return cfg, nil
}

// newLogger builds the run logger. -v flags win over the configured level.
func (g *globalOptions) newLogger(cfg *config.Config, env Env) *logger.Logger {
	lc := logger.DefaultConfig()
	lc.Output = env.Stderr
	if cfg.Log.Format != "" {
		lc.Format = cfg.Log.Format
	}
	lc.Level = cfg.Log.Level
	if g.verbose > 0 || lc.Level == "" {
		lc.Level = logger.LevelFromVerbosity(g.verbose)
	}
	return logger.New(lc).With().Str("run_id", uuid.NewString()).Logger()
}
