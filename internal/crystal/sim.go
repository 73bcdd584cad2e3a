package crystal

import (
	"strconv"

	"snowgen/internal/core"
)

// Classes returns one State byte per cell in row-major order. The slice is
// reused between calls.
func (l *Lattice) Classes() []uint8 {
	cells := l.grid.Cells()
	for i := range l.cells {
		cells[i] = uint8(l.cells[i].State())
	}
	return cells
}

// AsSim adapts the lattice to the viewer's core.Sim contract.
func (l *Lattice) AsSim() core.Sim { return simView{l} }

type simView struct{ *Lattice }

func (s simView) Name() string { return "snowflake" }

func (s simView) Size() core.Size { return core.Size{W: s.size, H: s.size} }

func (s simView) Cells() []uint8 { return s.Classes() }

var paramLabels = map[string]string{
	KeyBeta:    "Beta (tip threshold)",
	KeyTheta:   "Theta (dry neighborhood)",
	KeyAlpha:   "Alpha (dry threshold)",
	KeyKappa:   "Kappa (freezing)",
	KeyMu:      "Mu (boundary melt)",
	KeyUpsilon: "Upsilon (crystal melt)",
	KeySigma:   "Sigma (noise)",
	KeyGamma:   "Gamma (initial vapor)",
}

var paramSteps = map[string]float64{
	KeyBeta:    0.05,
	KeyTheta:   0.005,
	KeyAlpha:   0.01,
	KeyKappa:   0.001,
	KeyMu:      0.01,
	KeyUpsilon: 0.00001,
	KeySigma:   0.00001,
	KeyGamma:   0.05,
}

// Parameters reports the lattice and environment values for display.
func (l *Lattice) Parameters() core.ParameterSnapshot {
	p := l.env.Params()
	envParams := make([]core.Parameter, 0, len(paramKeys))
	for _, key := range paramKeys {
		v, _ := p.Get(key)
		envParams = append(envParams, floatParam(key, paramLabels[key], v))
	}
	return core.ParameterSnapshot{Groups: []core.ParameterGroup{
		{
			Name: "Lattice",
			Params: []core.Parameter{
				intParam("size", "Size", l.size),
				intParam("iteration", "Iteration", l.iteration),
				intParam("radius", "Radius", l.Radius()),
				floatParam("margin", "Margin", l.margin),
				intParam("max_steps", "Max steps", l.maxSteps),
			},
		},
		{
			Name:   "Environment",
			Params: envParams,
		},
	}}
}

// ParameterControls lists the environment parameters adjustable at runtime.
func (l *Lattice) ParameterControls() []core.ParameterControl {
	controls := make([]core.ParameterControl, 0, len(paramKeys))
	for _, key := range paramKeys {
		ctrl := core.ParameterControl{
			Key:    key,
			Label:  paramLabels[key],
			Type:   core.ParamTypeFloat,
			Step:   paramSteps[key],
			Min:    0,
			HasMin: true,
		}
		switch key {
		case KeyKappa, KeyMu, KeyUpsilon, KeySigma:
			ctrl.Max = 1
			ctrl.HasMax = true
		}
		controls = append(controls, ctrl)
	}
	return controls
}

// SetFloatParameter overrides one environment parameter between steps.
func (l *Lattice) SetFloatParameter(key string, value float64) bool {
	env, err := l.env.WithOverrides(map[string]float64{key: value})
	if err != nil {
		return false
	}
	l.env = env
	return true
}

func intParam(key, label string, value int) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeInt,
		Value: strconv.Itoa(value),
	}
}

func floatParam(key, label string, value float64) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeFloat,
		Value: strconv.FormatFloat(value, 'g', -1, 64),
	}
}
