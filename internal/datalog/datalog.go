// Package datalog accumulates per-iteration growth statistics and exports
// them as CSV or as a chart.
package datalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"snowgen/internal/crystal"
)

// Header names the CSV columns.
var Header = []string{"iteration", "dm", "cm", "bm", "acnt", "bcnt", "width", "beta", "theta", "alpha", "kappa", "mu", "upsilon"}

// Row is one logged iteration.
type Row struct {
	Iteration     int
	Diffusive     float64
	Crystal       float64
	Boundary      float64
	Attached      int
	BoundaryCells int
	Width         int
	Params        crystal.Params
}

// Log is an append-only sequence of rows.
type Log struct {
	rows []Row
}

// Add appends a status report.
func (l *Log) Add(st crystal.Status) {
	l.rows = append(l.rows, Row{
		Iteration:     st.Iteration,
		Diffusive:     st.Diffusive,
		Crystal:       st.Crystal,
		Boundary:      st.Boundary,
		Attached:      st.Attached,
		BoundaryCells: st.BoundaryCells,
		Width:         st.Radius,
		Params:        st.Params,
	})
}

// Rows returns the logged rows.
func (l *Log) Rows() []Row { return l.rows }

// Len is the number of logged rows.
func (l *Log) Len() int { return len(l.rows) }

// WriteCSV writes the header and every row.
func (l *Log) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range l.rows {
		p := r.Params
		record := []string{
			strconv.Itoa(r.Iteration),
			formatFloat(r.Diffusive),
			formatFloat(r.Crystal),
			formatFloat(r.Boundary),
			strconv.Itoa(r.Attached),
			strconv.Itoa(r.BoundaryCells),
			strconv.Itoa(r.Width),
			formatFloat(p.Beta),
			formatFloat(p.Theta),
			formatFloat(p.Alpha),
			formatFloat(p.Kappa),
			formatFloat(p.Mu),
			formatFloat(p.Upsilon),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Plot renders radius and attached-cell count over time as a PNG.
func (l *Log) Plot(w io.Writer, width, height int) error {
	if len(l.rows) < 2 {
		return fmt.Errorf("plot needs at least two rows, have %d", len(l.rows))
	}
	xs := make([]float64, len(l.rows))
	radius := make([]float64, len(l.rows))
	attached := make([]float64, len(l.rows))
	maxRadius, maxAttached := 0.0, 0.0
	for i, r := range l.rows {
		xs[i] = float64(r.Iteration)
		radius[i] = float64(r.Width)
		attached[i] = float64(r.Attached)
		maxRadius = max(maxRadius, radius[i])
		maxAttached = max(maxAttached, attached[i])
	}
	if xs[0] == xs[len(xs)-1] {
		return fmt.Errorf("plot needs more than one iteration")
	}

	graph := chart.Chart{
		Width:  width,
		Height: height,
		XAxis: chart.XAxis{
			Name:  "iteration",
			Style: chart.Style{FontSize: 10.0},
			Range: &chart.ContinuousRange{Min: xs[0], Max: xs[len(xs)-1]},
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%d", int(v.(float64)))
			},
		},
		YAxis: chart.YAxis{
			Name:  "radius",
			Style: chart.Style{FontSize: 10.0},
			Range: &chart.ContinuousRange{Min: 0, Max: maxRadius + 1},
		},
		YAxisSecondary: chart.YAxis{
			Name:  "attached",
			Style: chart.Style{FontSize: 10.0},
			Range: &chart.ContinuousRange{Min: 0, Max: maxAttached + 1},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "radius",
				XValues: xs,
				YValues: radius,
				Style:   chart.Style{StrokeColor: chart.ColorBlue, StrokeWidth: 2.0},
			},
			chart.ContinuousSeries{
				Name:    "attached",
				XValues: xs,
				YValues: attached,
				YAxis:   chart.YAxisSecondary,
				Style:   chart.Style{StrokeColor: drawing.Color{R: 255, G: 165, B: 0, A: 255}, StrokeWidth: 2.0},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	return graph.Render(chart.PNG, w)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
