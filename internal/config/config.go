// Package config assembles run settings from SNOWFLAKE_* environment
// variables and command-line flags.
package config

import (
	"flag"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"

	"snowgen/internal/core"
	"snowgen/internal/crystal"
	"snowgen/internal/curves"
)

const envPrefix = "SNOWFLAKE_"

// Run holds the settings of one growth run.
type Run struct {
	Name        string  `env:"NAME" envDefault:"snowflake"`
	Dir         string  `env:"DIR" envDefault:"."`
	Size        int     `env:"SIZE" envDefault:"200"`
	Margin      float64 `env:"MARGIN" envDefault:"0.85"`
	MaxSteps    int     `env:"MAX_STEPS" envDefault:"0"`
	SeedOffset  float64 `env:"SEED_OFFSET" envDefault:"1"`
	Seed        int64   `env:"SEED" envDefault:"1"`
	Env         string  `env:"ENV"`
	Curves      string  `env:"CURVES"`
	Randomize   bool    `env:"RANDOMIZE"`
	ReportEvery int     `env:"REPORT_EVERY" envDefault:"50"`

	Scheme     string `env:"SCHEME" envDefault:"grayscale"`
	Unshear    bool   `env:"UNSHEAR" envDefault:"true"`
	CropMargin int    `env:"CROP_MARGIN" envDefault:"15"`
	Replay     bool   `env:"REPLAY" envDefault:"true"`
	Datalog    bool   `env:"DATALOG" envDefault:"true"`
	Movie      bool   `env:"MOVIE"`

	Scale int `env:"SCALE" envDefault:"3"`
	TPS   int `env:"TPS" envDefault:"60"`
}

// Load reads the process environment on top of the defaults.
func Load() (*Run, error) {
	var r Run
	if err := env.ParseWithOptions(&r, env.Options{Prefix: envPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &r, nil
}

// Default returns the defaults, ignoring the process environment.
func Default() *Run {
	r, err := FromMap(nil)
	if err != nil {
		panic(err)
	}
	return r
}

// FromMap builds a Run from lower-case keys such as "size" or "max_steps".
func FromMap(m map[string]string) (*Run, error) {
	vars := make(map[string]string, len(m))
	for k, v := range m {
		vars[envPrefix+strings.ToUpper(k)] = v
	}
	var r Run
	if err := env.ParseWithOptions(&r, env.Options{Prefix: envPrefix, Environment: vars}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &r, nil
}

// Bind attaches the configuration to the provided FlagSet. Flags override
// environment values.
func (r *Run) Bind(fs *flag.FlagSet) {
	fs.StringVar(&r.Name, "name", r.Name, "run name, used for output files")
	fs.StringVar(&r.Dir, "dir", r.Dir, "output directory")
	fs.IntVar(&r.Size, "size", r.Size, "lattice edge length")
	fs.Float64Var(&r.Margin, "margin", r.Margin, "stop when the crystal reaches this fraction of the half-width")
	fs.IntVar(&r.MaxSteps, "max-steps", r.MaxSteps, "stop after this many iterations (0 = unlimited)")
	fs.Float64Var(&r.SeedOffset, "seed-offset", r.SeedOffset, "crystal mass of the seed")
	fs.Int64Var(&r.Seed, "seed", r.Seed, "random seed")
	fs.StringVar(&r.Env, "env", r.Env, "parameter overrides, e.g. beta=1.5,mu=0.1")
	fs.StringVar(&r.Curves, "curves", r.Curves, "parameter keyframes, e.g. beta=0:1.3/5000:2")
	fs.BoolVar(&r.Randomize, "randomize", r.Randomize, "nudge every parameter by a small random amount")
	fs.IntVar(&r.ReportEvery, "report-every", r.ReportEvery, "status interval in iterations")
	fs.StringVar(&r.Scheme, "scheme", r.Scheme, "color scheme: grayscale, bw, bw-boundary, age, state")
	fs.BoolVar(&r.Unshear, "unshear", r.Unshear, "map the hex lattice onto the plane")
	fs.IntVar(&r.CropMargin, "crop-margin", r.CropMargin, "cells kept around the crystal")
	fs.BoolVar(&r.Replay, "replay", r.Replay, "record every iteration to the replay log")
	fs.BoolVar(&r.Datalog, "datalog", r.Datalog, "write the datalog CSV and plot")
	fs.BoolVar(&r.Movie, "movie", r.Movie, "render one image per recorded iteration")
	fs.IntVar(&r.Scale, "scale", r.Scale, "pixel scale multiplier")
	fs.IntVar(&r.TPS, "tps", r.TPS, "ticks per second")
}

// ParseOverrides reads "key=value,key=value" into a map.
func ParseOverrides(s string) (map[string]float64, error) {
	out := map[string]float64{}
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("override %q: want key=value", pair)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("override %q: %w", pair, err)
		}
		out[strings.ToLower(strings.TrimSpace(key))] = v
	}
	return out, nil
}

// Environment builds the crystal environment: defaults, then overrides, then
// the optional random nudge, then keyframes over the result.
func (r *Run) Environment() (crystal.Environment, error) {
	overrides, err := ParseOverrides(r.Env)
	if err != nil {
		return crystal.Environment{}, err
	}
	e, err := crystal.DefaultEnvironment().WithOverrides(overrides)
	if err != nil {
		return crystal.Environment{}, err
	}
	if r.Randomize {
		e = e.Randomize(core.NewRNG(r.Seed))
	}
	if strings.TrimSpace(r.Curves) != "" {
		k, err := curves.ParseKeyframes(r.Curves, e.Params())
		if err != nil {
			return crystal.Environment{}, err
		}
		e = e.WithCurves(k)
	}
	return e, nil
}

// LatticeConfig returns the engine configuration for this run.
func (r *Run) LatticeConfig() (crystal.Config, error) {
	e, err := r.Environment()
	if err != nil {
		return crystal.Config{}, err
	}
	return crystal.Config{
		Size:        r.Size,
		Environment: e,
		SeedOffset:  r.SeedOffset,
		Margin:      r.Margin,
		MaxSteps:    r.MaxSteps,
		Rand:        core.NewRNG(r.Seed),
	}, nil
}

// SnapshotName is the snapshot file, relative to Dir.
func (r *Run) SnapshotName() string { return r.Name + ".cbor" }

// ReplayPath is the replay database path.
func (r *Run) ReplayPath() string { return filepath.Join(r.Dir, r.Name+".db") }

// DatalogPath is the CSV datalog path.
func (r *Run) DatalogPath() string { return filepath.Join(r.Dir, r.Name+"_datalog.csv") }

// PlotPath is the datalog chart path.
func (r *Run) PlotPath() string { return filepath.Join(r.Dir, r.Name+"_datalog.png") }

// ImagePath is the final image path.
func (r *Run) ImagePath() string { return filepath.Join(r.Dir, r.Name+".png") }

// MovieDir holds one image per replayed iteration.
func (r *Run) MovieDir() string { return filepath.Join(r.Dir, r.Name+"_movie") }
