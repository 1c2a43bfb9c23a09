// sprout grows triangle meshes by differential growth and writes snapshots
// as STL, OBJ or JSON.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/chazu/sprout/internal/config"
	"github.com/chazu/sprout/internal/logger"
	"github.com/chazu/sprout/pkg/export"
	"github.com/chazu/sprout/pkg/growth"
	"github.com/chazu/sprout/pkg/recipe"
	"go.uber.org/zap"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "run":
		err = cmdRun(args)
	case "recipe":
		err = cmdRecipe(args)
	case "seed":
		err = cmdSeed(args)
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`sprout - differential mesh growth

Usage:
  sprout <command> [options]

Commands:
  run [options]                   Grow the configured seed
  recipe <file.lisp> [options]    Grow the seed described by a recipe
  seed <kind> <out> [options]     Write a seed mesh without growing it

Options may come before or after the arguments. On the recipe command
they override the recipe, which overrides the config file.

Options:
  -config <file>        YAML config (default ./sprout.yaml if present)
  -steps <n>            Number of growth steps
  -snapshot-every <n>   Write a snapshot every n steps
  -out <dir>            Output directory
  -formats <list>       Comma-separated: stl,obj,json
  -seed <kind>          Seed kind for run
  -strategy <name>      brute-force or rtree
  -max-vertices <n>     Vertex limit for edge splitting
  -no-grow              Relax the seed without splitting
  -debug                Log every step

Examples:
  sprout run -seed icosphere -steps 200 -snapshot-every 50
  sprout recipe examples/coral.lisp -formats stl,obj
  sprout seed sdf-sphere sphere.stl`)
}

// invocation is a parsed subcommand line.
type invocation struct {
	cfg   *config.Config
	flags *config.Flags
	args  []string
}

// setup parses flags and loads config for a subcommand, then starts logging.
func setup(name string, args []string) (*invocation, error) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	f := config.RegisterFlags(fs)
	rest, err := config.ParseArgs(fs, args)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(f)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return nil, err
	}
	return &invocation{cfg: cfg, flags: f, args: rest}, nil
}

func cmdRun(args []string) error {
	inv, err := setup("run", args)
	if err != nil {
		return err
	}
	if len(inv.args) > 0 {
		return fmt.Errorf("run takes no arguments, got %q", inv.args)
	}
	return grow(inv.cfg)
}

func cmdRecipe(args []string) error {
	inv, err := setup("recipe", args)
	if err != nil {
		return err
	}
	rest := inv.args
	if len(rest) != 1 {
		return errors.New("usage: sprout recipe <file.lisp> [options]")
	}

	r, evalErrs, err := recipe.NewEvaluator().EvaluateFile(rest[0])
	if err != nil {
		return err
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			logger.Error("recipe error", zap.String("file", rest[0]), zap.Int("line", e.Line), zap.String("msg", e.Message))
		}
		return fmt.Errorf("%s: %d error(s) in recipe", rest[0], len(evalErrs))
	}

	cfg, err := config.LoadRecipe(inv.flags, r)
	if err != nil {
		return err
	}
	if inv.flags.Name == "" && cfg.Run.Name == config.Default().Run.Name {
		cfg.Run.Name = strings.TrimSuffix(filepath.Base(rest[0]), filepath.Ext(rest[0]))
	}
	return grow(cfg)
}

func cmdSeed(args []string) error {
	inv, err := setup("seed", args)
	if err != nil {
		return err
	}
	cfg, rest := inv.cfg, inv.args
	if len(rest) != 2 {
		return errors.New("usage: sprout seed <kind> <out.stl|out.obj|out.json> [options]")
	}
	cfg.Seed.Kind = rest[0]
	out := rest[1]

	m, err := cfg.Seed.Build()
	if err != nil {
		return err
	}
	format := strings.TrimPrefix(filepath.Ext(out), ".")
	if err := export.WriteFile(out, format, m); err != nil {
		return err
	}
	logger.Info("wrote seed",
		zap.String("kind", cfg.Seed.Kind),
		zap.String("path", out),
		zap.Int("vertices", m.VertexCount()),
		zap.Int("faces", m.FaceCount()),
	)
	return nil
}

// grow builds the seed and runs the growth loop, writing snapshots as it
// goes. SIGINT stops the run after the current step; the final mesh is
// still written.
func grow(cfg *config.Config) (err error) {
	log := logger.Named("sprout")

	m, err := cfg.Seed.Build()
	if err != nil {
		return fmt.Errorf("building %s seed: %w", cfg.Seed.Kind, err)
	}
	sys, err := growth.New(m, cfg.Growth, growth.WithLogger(logger.Named("growth")))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.Run.OutputDir, 0755); err != nil {
		return err
	}

	log.Info("growing",
		zap.String("seed", cfg.Seed.Kind),
		zap.Int("vertices", m.VertexCount()),
		zap.Int("faces", m.FaceCount()),
		zap.Int("steps", cfg.Run.Steps),
		zap.Bool("rtree", cfg.Growth.UseRTree),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Degenerate geometry panics inside Step; report it as a failed run.
	defer func() {
		if r := recover(); r != nil {
			perr, ok := r.(error)
			if !ok || !(errors.Is(perr, growth.ErrCoincident) || errors.Is(perr, growth.ErrNonFinite)) {
				panic(r)
			}
			err = fmt.Errorf("growth stopped at step %d: %w", sys.Iteration()+1, perr)
		}
	}()

	start := time.Now()
	var snapErr error
	steps, runErr := sys.Run(ctx, cfg.Run.Steps, func(st growth.StepStats) bool {
		if cfg.Run.SnapshotEvery > 0 && st.Iteration%cfg.Run.SnapshotEvery == 0 {
			snapErr = snapshot(cfg, sys, st.Iteration)
			return snapErr == nil
		}
		return true
	})
	if snapErr != nil {
		return snapErr
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	if runErr != nil {
		log.Warn("interrupted", zap.Int("steps", steps))
	}

	log.Info("done",
		zap.Int("steps", steps),
		zap.Int("vertices", m.VertexCount()),
		zap.Int("faces", m.FaceCount()),
		zap.Duration("elapsed", time.Since(start)),
	)
	if cfg.Run.SnapshotEvery > 0 && steps > 0 && steps%cfg.Run.SnapshotEvery == 0 {
		return nil
	}
	return snapshot(cfg, sys, steps)
}

// snapshot writes the current mesh once per configured format.
func snapshot(cfg *config.Config, sys *growth.System, iteration int) error {
	for _, format := range cfg.Run.Formats {
		path := filepath.Join(cfg.Run.OutputDir, fmt.Sprintf("%s_%05d.%s", cfg.Run.Name, iteration, format))
		if err := export.WriteFile(path, format, sys.Mesh()); err != nil {
			return err
		}
		logger.Debug("snapshot", zap.String("path", path))
	}
	return nil
}
