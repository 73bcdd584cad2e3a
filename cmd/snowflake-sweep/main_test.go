package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestExpandGrid(t *testing.T) {
	got, err := expandGrid("mu=0.05,0.1; beta=1.3,2")
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	want := []string{
		"beta=1.3,mu=0.05",
		"beta=1.3,mu=0.1",
		"beta=2,mu=0.05",
		"beta=2,mu=0.1",
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d scenarios, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].overrides != want[i] {
			t.Fatalf("scenario %d: got %q want %q", i, got[i].overrides, want[i])
		}
	}

	empty, err := expandGrid("")
	if err != nil || len(empty) != 1 || empty[0].overrides != "" {
		t.Fatalf("empty grid should yield one default scenario, got %v %v", empty, err)
	}

	for _, bad := range []string{"beta", "beta=x"} {
		if _, err := expandGrid(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestSweepRanksByRadius(t *testing.T) {
	scenarios, err := expandGrid("beta=1.3,3")
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	base := map[string]string{"size": "21", "max_steps": "15", "margin": "1", "seed": "9"}
	results, err := sweep(context.Background(), base, scenarios, 2)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for i, r := range results {
		if r.steps != 15 {
			t.Fatalf("result %d ran %d steps, want 15", i, r.steps)
		}
		if i > 0 && results[i-1].status.Radius < r.status.Radius {
			t.Fatal("results must be sorted by radius, largest first")
		}
	}

	var buf bytes.Buffer
	printResults(&buf, results)
	if !strings.Contains(buf.String(), "beta=3") || !strings.Contains(buf.String(), "radius") {
		t.Fatalf("unexpected table:\n%s", buf.String())
	}
}

func TestSweepReportsScenarioErrors(t *testing.T) {
	base := map[string]string{"size": "21", "max_steps": "5", "margin": "1"}
	_, err := sweep(context.Background(), base, []scenario{{overrides: "humidity=1"}}, 1)
	if err == nil || !strings.Contains(err.Error(), "humidity") {
		t.Fatalf("expected unknown parameter error, got %v", err)
	}
}
