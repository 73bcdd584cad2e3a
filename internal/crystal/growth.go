package crystal

import (
	"fmt"
	"image"
	"math"

	"gonum.org/v1/gonum/floats"
)

// ProbeAngle is the direction, in degrees, along which crystal extent is
// measured.
const ProbeAngle = 135.0

// DefaultReportEvery is the status reporting interval used by Grow.
const DefaultReportEvery = 50

// PolarToXY converts a polar offset from the seed into grid coordinates.
// Angles are in degrees, counter-clockwise with y growing downward.
func (l *Lattice) PolarToXY(angle, distance float64) (int, int) {
	cx, cy := l.Center()
	rad := angle * math.Pi / 180
	x := int(math.Round(float64(cx) + math.Cos(rad)*distance))
	y := int(math.Round(float64(cy) - math.Sin(rad)*distance))
	return x, y
}

// XYToPolar is the inverse of PolarToXY. The angle lies in [0, 360).
func (l *Lattice) XYToPolar(x, y int) (angle, distance float64) {
	cx, cy := l.Center()
	dx := float64(x - cx)
	dy := float64(cy - y)
	angle = math.Atan2(dy, dx) * 180 / math.Pi
	if angle < 0 {
		angle += 360
	}
	return angle, math.Hypot(dx, dy)
}

// RadiusAlong casts a ray from the seed and returns the first whole distance
// at which the cell is neither attached nor boundary, or leaves the grid.
//
// This is a directional probe, not the true maximum radius: arms that grow
// off the ray are not seen.
func (l *Lattice) RadiusAlong(angle float64) int {
	half := float64(l.size) / 2
	radius := 0
	for float64(radius) < half {
		radius++
		x, y := l.PolarToXY(angle, float64(radius))
		idx, ok := l.Index(x, y)
		if !ok {
			return radius
		}
		c := &l.cells[idx]
		if c.Attached || c.Boundary {
			continue
		}
		return radius
	}
	return int(math.Round(half))
}

// Radius is RadiusAlong(ProbeAngle).
func (l *Lattice) Radius() int { return l.RadiusAlong(ProbeAngle) }

// Headroom reports whether growth may continue under the given margin: the
// step cap has not been reached and the probed radius is within
// margin·size/2.
func (l *Lattice) Headroom(margin float64) bool {
	if l.maxSteps > 0 && l.iteration >= l.maxSteps {
		return false
	}
	cutoff := int(math.Round(margin * float64(l.size) / 2))
	return l.Radius() <= cutoff
}

// HasHeadroom is Headroom with the lattice's own margin.
func (l *Lattice) HasHeadroom() bool { return l.Headroom(l.margin) }

// CropBox returns the grid rectangle that bounds the crystal plus margin
// cells, derived from the probed radius and clipped to the grid.
func (l *Lattice) CropBox(margin int) image.Rectangle {
	cx, cy := l.Center()
	d := l.Radius() + margin
	if half := l.size / 2; d > half {
		d = half
	}
	box := image.Rect(cx-d, cy-d, cx+d+1, cy+d+1)
	return box.Intersect(image.Rect(0, 0, l.size, l.size))
}

// Status summarizes the lattice for reporting.
type Status struct {
	Iteration     int
	Diffusive     float64
	Boundary      float64
	Crystal       float64
	Attached      int
	BoundaryCells int
	Radius        int
	Params        Params
}

// Total is the mass held in all three pools.
func (s Status) Total() float64 { return s.Diffusive + s.Boundary + s.Crystal }

// String formats a one-line progress report.
func (s Status) String() string {
	return fmt.Sprintf("step #%d radius %d, %d attached, %d boundary, %.2f dM, %.2f bM, %.2f cM, tot %.2f M",
		s.Iteration, s.Radius, s.Attached, s.BoundaryCells, s.Diffusive, s.Boundary, s.Crystal, s.Total())
}

// Status computes the current totals.
func (l *Lattice) Status() Status {
	st := Status{
		Iteration: l.iteration,
		Diffusive: floats.Sum(l.DiffusiveMasses()),
		Boundary:  floats.Sum(l.BoundaryMasses()),
		Crystal:   floats.Sum(l.CrystalMasses()),
		Radius:    l.Radius(),
		Params:    l.env.Params(),
	}
	for i := range l.cells {
		switch {
		case l.cells[i].Attached:
			st.Attached++
		case l.cells[i].Boundary:
			st.BoundaryCells++
		}
	}
	return st
}

// GrowOptions configures Grow.
type GrowOptions struct {
	// ReportEvery is the iteration interval for Report. Zero selects
	// DefaultReportEvery.
	ReportEvery int
	// Report receives periodic status; replay flushes belong here.
	Report func(Status) error
	// OnStep runs after every step, between steps.
	OnStep func(*Lattice) error
}

// Grow steps the lattice until it runs out of headroom and returns the number
// of steps taken. Hooks run between steps, never during one.
func (l *Lattice) Grow(opts GrowOptions) (int, error) {
	every := opts.ReportEvery
	if every <= 0 {
		every = DefaultReportEvery
	}
	steps := 0
	for l.HasHeadroom() {
		if err := l.Step(); err != nil {
			return steps, err
		}
		steps++
		if opts.OnStep != nil {
			if err := opts.OnStep(l); err != nil {
				return steps, fmt.Errorf("step hook: %w", err)
			}
		}
		if opts.Report != nil && l.iteration%every == 0 {
			if err := opts.Report(l.Status()); err != nil {
				return steps, fmt.Errorf("report: %w", err)
			}
		}
	}
	return steps, nil
}
