// Command snowflake-sweep grows one crystal per point of a parameter grid in
// parallel and ranks the results by final radius.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"

	"snowgen/internal/config"
	"snowgen/internal/crystal"
)

type scenario struct {
	overrides string
}

type result struct {
	scenario scenario
	status   crystal.Status
	steps    int
	elapsed  time.Duration
}

func main() {
	grid := flag.String("grid", "beta=1.3,1.6,2.0;gamma=0.4,0.5,0.6", "parameter grid: key=v1,v2;key=v1,v2")
	size := flag.Int("size", 101, "lattice edge length")
	maxSteps := flag.Int("max-steps", 2000, "step cap per scenario (0 = unlimited)")
	margin := flag.Float64("margin", crystal.DefaultMargin, "termination margin")
	seed := flag.Int64("seed", 1, "random seed shared by all scenarios")
	workers := flag.Int("workers", runtime.NumCPU(), "number of scenarios grown at once")
	flag.Parse()

	scenarios, err := expandGrid(*grid)
	if err != nil {
		log.Fatal(err)
	}
	base := map[string]string{
		"size":      strconv.Itoa(*size),
		"max_steps": strconv.Itoa(*maxSteps),
		"margin":    strconv.FormatFloat(*margin, 'g', -1, 64),
		"seed":      strconv.FormatInt(*seed, 10),
	}

	fmt.Printf("Sweeping %d scenarios (%d workers, size %d)\n", len(scenarios), *workers, *size)
	start := time.Now()
	results, err := sweep(context.Background(), base, scenarios, *workers)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("\nResults (elapsed %s):\n", time.Since(start).Round(time.Millisecond))
	printResults(os.Stdout, results)
}

// expandGrid returns the cartesian product of the grid's values, with keys in
// sorted order.
func expandGrid(s string) ([]scenario, error) {
	axes := map[string][]string{}
	for _, axis := range strings.Split(s, ";") {
		axis = strings.TrimSpace(axis)
		if axis == "" {
			continue
		}
		key, values, ok := strings.Cut(axis, "=")
		if !ok {
			return nil, fmt.Errorf("grid axis %q: want key=v1,v2", axis)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		for _, v := range strings.Split(values, ",") {
			v = strings.TrimSpace(v)
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				return nil, fmt.Errorf("grid axis %s: %w", key, err)
			}
			axes[key] = append(axes[key], v)
		}
	}
	if len(axes) == 0 {
		return []scenario{{}}, nil
	}
	keys := make([]string, 0, len(axes))
	for k := range axes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	combos := [][]string{nil}
	for _, key := range keys {
		var next [][]string
		for _, prefix := range combos {
			for _, v := range axes[key] {
				pair := append(append([]string(nil), prefix...), key+"="+v)
				next = append(next, pair)
			}
		}
		combos = next
	}
	out := make([]scenario, len(combos))
	for i, c := range combos {
		out[i] = scenario{overrides: strings.Join(c, ",")}
	}
	return out, nil
}

// sweep grows every scenario with at most workers running at once. The first
// failure cancels the rest.
func sweep(ctx context.Context, base map[string]string, scenarios []scenario, workers int) ([]result, error) {
	results := make([]result, len(scenarios))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for i, sc := range scenarios {
		g.Go(func() error {
			res, err := runScenario(ctx, base, sc)
			if err != nil {
				return fmt.Errorf("scenario %q: %w", sc.overrides, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].status.Radius > results[j].status.Radius
	})
	return results, nil
}

func runScenario(ctx context.Context, base map[string]string, sc scenario) (result, error) {
	settings := make(map[string]string, len(base)+1)
	for k, v := range base {
		settings[k] = v
	}
	settings["env"] = sc.overrides
	run, err := config.FromMap(settings)
	if err != nil {
		return result{}, err
	}
	cfg, err := run.LatticeConfig()
	if err != nil {
		return result{}, err
	}
	l, err := crystal.New(cfg)
	if err != nil {
		return result{}, err
	}
	start := time.Now()
	steps, err := l.Grow(crystal.GrowOptions{
		OnStep: func(*crystal.Lattice) error { return ctx.Err() },
	})
	if err != nil {
		return result{}, err
	}
	return result{scenario: sc, status: l.Status(), steps: steps, elapsed: time.Since(start)}, nil
}

func printResults(w io.Writer, results []result) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tradius\tsteps\tattached\tcrystal\toverrides\telapsed")
	for i, r := range results {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%.2f\t%s\t%s\n",
			i+1, r.status.Radius, r.steps, r.status.Attached, r.status.Crystal, r.scenario.overrides, r.elapsed.Round(time.Millisecond))
	}
	tw.Flush()
}
