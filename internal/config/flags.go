package config

import (
	"flag"
	"fmt"
	"strings"

	"github.com/chazu/sprout/pkg/seed"
	"github.com/chazu/sprout/pkg/spatial"
)

// Flags are the command-line overrides shared by the sprout subcommands.
// Zero values mean "not given".
type Flags struct {
	Config        string
	Debug         bool
	LogFile       string
	Steps         int
	SnapshotEvery int
	OutputDir     string
	Name          string
	Formats       string
	Seed          string
	MaxVertices   int
	Strategy      string
	NoGrow        bool
}

// RegisterFlags defines the shared flags on fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.LogFile, "log-file", "", "Also write logs to this file")
	fs.IntVar(&f.Steps, "steps", 0, "Number of growth steps")
	fs.IntVar(&f.SnapshotEvery, "snapshot-every", 0, "Write a snapshot every N steps")
	fs.StringVar(&f.OutputDir, "out", "", "Output directory")
	fs.StringVar(&f.Name, "name", "", "Snapshot file prefix")
	fs.StringVar(&f.Formats, "formats", "", "Comma-separated output formats (stl,obj,json)")
	fs.StringVar(&f.Seed, "seed", "", "Seed kind ("+strings.Join(seed.Kinds, ", ")+")")
	fs.IntVar(&f.MaxVertices, "max-vertices", 0, "Stop splitting edges at this many vertices")
	fs.StringVar(&f.Strategy, "strategy", "", "Collision search: brute-force or rtree")
	fs.BoolVar(&f.NoGrow, "no-grow", false, "Disable edge splitting")
	return f
}

// Apply copies every given flag into cfg, leaving the rest untouched.
func (f *Flags) Apply(cfg *Config) error {
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.LogFile != "" {
		cfg.Logging.LogFile = f.LogFile
	}
	if f.Steps > 0 {
		cfg.Run.Steps = f.Steps
	}
	if f.SnapshotEvery > 0 {
		cfg.Run.SnapshotEvery = f.SnapshotEvery
	}
	if f.OutputDir != "" {
		cfg.Run.OutputDir = f.OutputDir
	}
	if f.Name != "" {
		cfg.Run.Name = f.Name
	}
	if f.Formats != "" {
		cfg.Run.Formats = strings.Split(f.Formats, ",")
	}
	if f.Seed != "" {
		cfg.Seed.Kind = f.Seed
	}
	if f.MaxVertices > 0 {
		cfg.Growth.MaxVertexCount = f.MaxVertices
	}
	switch f.Strategy {
	case "":
	case spatial.RTreeName:
		cfg.Growth.UseRTree = true
	case spatial.BruteForceName:
		cfg.Growth.UseRTree = false
	default:
		return fmt.Errorf("config: unknown strategy %q", f.Strategy)
	}
	if f.NoGrow {
		cfg.Growth.Grow = false
	}
	return nil
}

// ParseArgs parses args with fs and returns the positional arguments. Flags
// may come before, between or after them; everything after "--" is
// positional.
func ParseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var tail []string
	for i, a := range args {
		if a == "--" {
			args, tail = args[:i], args[i+1:]
			break
		}
	}

	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		if fs.NArg() == 0 {
			break
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}
	return append(positional, tail...), nil
}
