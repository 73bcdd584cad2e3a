// Command snowflake grows a crystal headlessly and writes its snapshot,
// replay log, datalog and image.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/src-d/go-billy.v4/osfs"

	"snowgen/internal/config"
	"snowgen/internal/crystal"
	"snowgen/internal/datalog"
	"snowgen/internal/render"
	"snowgen/internal/replay"
	"snowgen/internal/snapfile"
)

func main() {
	run, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	run.Bind(flag.CommandLine)
	flag.Parse()

	if err := execute(context.Background(), run); err != nil {
		log.Fatal(err)
	}
}

func execute(ctx context.Context, run *config.Run) error {
	scheme, ok := render.ByName(run.Scheme)
	if !ok {
		return fmt.Errorf("unknown scheme %q", run.Scheme)
	}
	if err := os.MkdirAll(run.Dir, 0o755); err != nil {
		return err
	}
	fs := osfs.New(run.Dir)

	l, resumed, err := open(run)
	if err != nil {
		return err
	}
	if resumed {
		log.Printf("resuming %s at step #%d", run.SnapshotName(), l.Iteration())
	}

	var store *replay.Store
	if run.Replay {
		if store, err = replay.Open(ctx, run.ReplayPath()); err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Printf("close replay: %v", err)
			}
		}()
	}

	var dlog datalog.Log
	opts := crystal.GrowOptions{
		ReportEvery: run.ReportEvery,
		Report: func(st crystal.Status) error {
			log.Print(st)
			if store != nil {
				return store.Flush(ctx)
			}
			return nil
		},
		OnStep: func(l *crystal.Lattice) error {
			dlog.Add(l.Status())
			if store != nil {
				return store.RecordLattice(l)
			}
			return nil
		},
	}

	start := time.Now()
	steps, err := l.Grow(opts)
	if err != nil {
		return fmt.Errorf("grow after %d steps: %w", steps, err)
	}
	final := l.Status()
	log.Printf("grew %d steps in %s: %s", steps, time.Since(start).Round(time.Millisecond), final)
	if rows := dlog.Rows(); len(rows) == 0 || rows[len(rows)-1].Iteration != final.Iteration {
		dlog.Add(final)
	}

	if steps > 0 || !resumed {
		if err := snapfile.Save(fs, run.SnapshotName(), l); err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
	}
	if store != nil {
		if err := store.Flush(ctx); err != nil {
			return err
		}
	}
	if run.Datalog {
		if err := writeDatalog(run, &dlog); err != nil {
			return err
		}
	}

	imgOpts := render.Options{Unshear: run.Unshear, Crop: true, CropMargin: run.CropMargin}
	if err := writeImage(run.ImagePath(), l, scheme, imgOpts); err != nil {
		return err
	}
	if run.Movie && store != nil {
		return writeMovie(ctx, run, store, l, scheme, render.Options{Unshear: run.Unshear})
	}
	return nil
}

// open loads the run's snapshot when one exists and builds a new lattice
// otherwise.
func open(run *config.Run) (*crystal.Lattice, bool, error) {
	cfg, err := run.LatticeConfig()
	if err != nil {
		return nil, false, err
	}
	fs := osfs.New(run.Dir)
	ok, err := snapfile.Exists(fs, run.SnapshotName())
	if err != nil {
		return nil, false, err
	}
	if !ok {
		l, err := crystal.New(cfg)
		return l, false, err
	}
	l, err := snapfile.Load(fs, run.SnapshotName(), cfg.Rand)
	if err != nil {
		return nil, false, fmt.Errorf("load snapshot: %w", err)
	}
	if src := cfg.Environment.Curves(); src != nil {
		if err := l.AttachCurves(src); err != nil {
			return nil, false, err
		}
	}
	return l, true, nil
}

func writeDatalog(run *config.Run, dlog *datalog.Log) error {
	f, err := os.Create(run.DatalogPath())
	if err != nil {
		return err
	}
	if err := dlog.WriteCSV(f); err != nil {
		f.Close()
		return fmt.Errorf("write datalog: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	if dlog.Len() < 2 {
		return nil
	}
	p, err := os.Create(run.PlotPath())
	if err != nil {
		return err
	}
	if err := dlog.Plot(p, 800, 400); err != nil {
		p.Close()
		return fmt.Errorf("plot datalog: %w", err)
	}
	return p.Close()
}

func writeImage(path string, l *crystal.Lattice, s render.Scheme, opts render.Options) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render.WritePNG(f, render.Image(l, s, opts)); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// writeMovie renders every recorded iteration. It rewinds l, so it must run
// last.
func writeMovie(ctx context.Context, run *config.Run, store *replay.Store, l *crystal.Lattice, s render.Scheme, opts render.Options) error {
	if err := os.MkdirAll(run.MovieDir(), 0o755); err != nil {
		return err
	}
	its, err := store.Iterations(ctx)
	if err != nil {
		return err
	}
	for _, it := range its {
		if err := store.Restore(ctx, l, it); err != nil {
			return err
		}
		path := filepath.Join(run.MovieDir(), fmt.Sprintf("frame_%06d.png", it))
		if err := writeImage(path, l, s, opts); err != nil {
			return err
		}
	}
	log.Printf("wrote %d movie frames to %s", len(its), run.MovieDir())
	return nil
}
