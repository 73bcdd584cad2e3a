// Package curves drives environment parameters from piecewise-linear
// keyframes, so a run can change humidity or melt rates over time.
package curves

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"

	"snowgen/internal/crystal"
)

// Knot is one keyframe: the parameter value at an iteration.
type Knot struct {
	Iteration int
	Value     float64
}

// Interpolate is a piecewise-linear curve through strictly ascending knots.
// Before the first knot and after the last the end values hold.
type Interpolate struct {
	knots  []Knot
	slopes []float64
}

// NewInterpolate builds a curve. Knots must be strictly ascending by
// iteration.
func NewInterpolate(knots []Knot) (*Interpolate, error) {
	if len(knots) == 0 {
		return nil, fmt.Errorf("curve needs at least one knot")
	}
	for i := 1; i < len(knots); i++ {
		if knots[i].Iteration <= knots[i-1].Iteration {
			return nil, fmt.Errorf("knots must be strictly ascending: %d after %d", knots[i].Iteration, knots[i-1].Iteration)
		}
	}
	c := &Interpolate{knots: slices.Clone(knots), slopes: make([]float64, len(knots)-1)}
	for i := range c.slopes {
		a, b := knots[i], knots[i+1]
		c.slopes[i] = (b.Value - a.Value) / float64(b.Iteration-a.Iteration)
	}
	return c, nil
}

// Knots returns a copy of the curve's keyframes.
func (c *Interpolate) Knots() []Knot { return slices.Clone(c.knots) }

// At evaluates the curve at an iteration.
func (c *Interpolate) At(iteration int) float64 {
	first, last := c.knots[0], c.knots[len(c.knots)-1]
	if iteration <= first.Iteration {
		return first.Value
	}
	if iteration >= last.Iteration {
		return last.Value
	}
	i := sort.Search(len(c.knots), func(i int) bool { return c.knots[i].Iteration > iteration }) - 1
	k := c.knots[i]
	return k.Value + c.slopes[i]*float64(iteration-k.Iteration)
}

// Keyframes is a crystal.CurveSource. Parameters without a curve keep the
// template value, and every parameter keeps it below Squelch.
type Keyframes struct {
	Template crystal.Params
	Squelch  int
	curves   map[string]*Interpolate
}

// New returns keyframes over template with no curves.
func New(template crystal.Params) *Keyframes {
	return &Keyframes{Template: template, curves: map[string]*Interpolate{}}
}

// Set installs a curve for a parameter key. Every knot must lie in the
// key's domain; the curve is linear between knots, so the whole curve does.
func (k *Keyframes) Set(key string, c *Interpolate) error {
	if _, err := k.Template.Get(key); err != nil {
		return err
	}
	for _, knot := range c.knots {
		if err := crystal.ValidateParam(key, knot.Value); err != nil {
			return fmt.Errorf("curve %s at iteration %d: %w", key, knot.Iteration, err)
		}
	}
	k.curves[key] = c
	return nil
}

// Curve returns the curve driving key, if any.
func (k *Keyframes) Curve(key string) (*Interpolate, bool) {
	c, ok := k.curves[key]
	return c, ok
}

// Keys lists the driven parameters in canonical order.
func (k *Keyframes) Keys() []string {
	var keys []string
	for _, key := range crystal.Keys() {
		if _, ok := k.curves[key]; ok {
			keys = append(keys, key)
		}
	}
	return keys
}

// At implements crystal.CurveSource.
func (k *Keyframes) At(iteration int) crystal.Params {
	p := k.Template
	if iteration < k.Squelch {
		return p
	}
	for key, c := range k.curves {
		// Keys were checked by Set.
		_ = p.Set(key, c.At(iteration))
	}
	return p
}

// ParseKeyframes reads curves in the form
//
//	beta=0:1.3/5000:2;mu=0:0.07/5000:0.01;squelch=5
//
// Each entry maps a parameter key to iteration:value knots separated by '/'.
// The reserved key squelch sets Keyframes.Squelch.
func ParseKeyframes(s string, template crystal.Params) (*Keyframes, error) {
	k := New(template)
	for _, entry := range strings.Split(s, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		key, body, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("curve %q: missing '='", entry)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "squelch" {
			n, err := strconv.Atoi(strings.TrimSpace(body))
			if err != nil || n < 0 {
				return nil, fmt.Errorf("squelch %q: want a non-negative iteration", body)
			}
			k.Squelch = n
			continue
		}
		knots, err := parseKnots(body)
		if err != nil {
			return nil, fmt.Errorf("curve %s: %w", key, err)
		}
		c, err := NewInterpolate(knots)
		if err != nil {
			return nil, fmt.Errorf("curve %s: %w", key, err)
		}
		if err := k.Set(key, c); err != nil {
			return nil, err
		}
	}
	return k, nil
}

func parseKnots(body string) ([]Knot, error) {
	var knots []Knot
	for _, part := range strings.Split(body, "/") {
		it, val, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok {
			return nil, fmt.Errorf("knot %q: want iteration:value", part)
		}
		n, err := strconv.Atoi(strings.TrimSpace(it))
		if err != nil {
			return nil, fmt.Errorf("knot %q: %w", part, err)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return nil, fmt.Errorf("knot %q: %w", part, err)
		}
		knots = append(knots, Knot{Iteration: n, Value: v})
	}
	return knots, nil
}
