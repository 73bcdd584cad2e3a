package crystal

import (
	"fmt"
	"math"
	"strconv"

	"snowgen/internal/core"
)

// Parameter keys.
const (
	KeyBeta    = "beta"
	KeyTheta   = "theta"
	KeyAlpha   = "alpha"
	KeyKappa   = "kappa"
	KeyMu      = "mu"
	KeyUpsilon = "upsilon"
	KeySigma   = "sigma"
	KeyGamma   = "gamma"
)

var paramKeys = []string{KeyBeta, KeyTheta, KeyAlpha, KeyKappa, KeyMu, KeyUpsilon, KeySigma, KeyGamma}

// Keys returns the parameter keys in their canonical order.
func Keys() []string {
	return append([]string(nil), paramKeys...)
}

// Params is the closed set of physical parameters driving growth.
type Params struct {
	// Beta is the boundary mass a site with one or two attached neighbors
	// must exceed to attach.
	Beta float64
	// Theta bounds the neighborhood diffusive mass for three-neighbor
	// attachment.
	Theta float64
	// Alpha is the boundary mass needed for three-neighbor attachment when
	// the neighborhood is dry.
	Alpha float64
	// Kappa is the proportion of diffusive mass that freezes straight to
	// crystal at a boundary site.
	Kappa float64
	// Mu is the proportion of boundary mass that melts back each iteration.
	Mu float64
	// Upsilon is the proportion of crystal mass that melts back each
	// iteration.
	Upsilon float64
	// Sigma is the magnitude of the diffusive noise.
	Sigma float64
	// Gamma is the initial diffusive mass of every free cell.
	Gamma float64
}

// DefaultParams returns the stock parameter set.
func DefaultParams() Params {
	return Params{
		Beta:    1.3,
		Theta:   0.025,
		Alpha:   0.08,
		Kappa:   0.003,
		Mu:      0.07,
		Upsilon: 0.00005,
		Sigma:   0.00001,
		Gamma:   0.5,
	}
}

func (p *Params) ref(key string) *float64 {
	switch key {
	case KeyBeta:
		return &p.Beta
	case KeyTheta:
		return &p.Theta
	case KeyAlpha:
		return &p.Alpha
	case KeyKappa:
		return &p.Kappa
	case KeyMu:
		return &p.Mu
	case KeyUpsilon:
		return &p.Upsilon
	case KeySigma:
		return &p.Sigma
	case KeyGamma:
		return &p.Gamma
	}
	return nil
}

// Get returns the value stored under key.
func (p Params) Get(key string) (float64, error) {
	ref := p.ref(key)
	if ref == nil {
		return 0, unknownParameter(key)
	}
	return *ref, nil
}

// Set replaces the value stored under key.
func (p *Params) Set(key string, value float64) error {
	ref := p.ref(key)
	if ref == nil {
		return unknownParameter(key)
	}
	*ref = value
	return nil
}

// Map returns the parameters keyed by name.
func (p Params) Map() map[string]float64 {
	out := make(map[string]float64, len(paramKeys))
	for _, key := range paramKeys {
		out[key] = *p.ref(key)
	}
	return out
}

// Validate rejects values that would drive masses negative: proportions
// must lie in [0, 1] and thresholds must be finite and non-negative.
func (p Params) Validate() error {
	for _, key := range paramKeys {
		if err := ValidateParam(key, *p.ref(key)); err != nil {
			return err
		}
	}
	return nil
}

// ValidateParam checks a single value against the domain of key.
func ValidateParam(key string, v float64) error {
	var p Params
	if p.ref(key) == nil {
		return unknownParameter(key)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return invalidParameter(key, v)
	}
	switch key {
	case KeyKappa, KeyMu, KeyUpsilon, KeySigma:
		if v > 1 {
			return invalidParameter(key, v)
		}
	}
	return nil
}

func unknownParameter(key string) error {
	return newError(CodeUnknownParameter, fmt.Sprintf("unknown parameter %q", key), map[string]string{"key": key})
}

func invalidParameter(key string, v float64) error {
	return newError(CodeInvalidParameter, fmt.Sprintf("parameter %s out of range: %g", key, v), map[string]string{
		"key":   key,
		"value": strconv.FormatFloat(v, 'g', -1, 64),
	})
}

// CurveSource supplies a full parameter vector for an iteration. Sources must
// be deterministic: the same iteration always yields the same vector.
type CurveSource interface {
	At(iteration int) Params
}

// Environment is an immutable parameter set, optionally driven per iteration
// by a CurveSource. The zero value is not useful; use NewEnvironment.
type Environment struct {
	params   Params
	defaults Params
	curves   CurveSource
}

// NewEnvironment returns an environment using p as both the current values and
// the template.
func NewEnvironment(p Params) (Environment, error) {
	if err := p.Validate(); err != nil {
		return Environment{}, err
	}
	return Environment{params: p, defaults: p}, nil
}

// DefaultEnvironment returns an environment holding DefaultParams.
func DefaultEnvironment() Environment {
	p := DefaultParams()
	return Environment{params: p, defaults: p}
}

// Params returns the current parameter vector.
func (e Environment) Params() Params { return e.params }

// Defaults returns the template the environment was built from.
func (e Environment) Defaults() Params { return e.defaults }

// Curves returns the attached curve source, if any.
func (e Environment) Curves() CurveSource { return e.curves }

// Get returns the current value of the named parameter.
func (e Environment) Get(name string) (float64, error) {
	return e.params.Get(name)
}

// WithOverrides returns a copy with the named values replaced. The result
// becomes the new template.
func (e Environment) WithOverrides(overrides map[string]float64) (Environment, error) {
	next := e.params
	for key, value := range overrides {
		if err := next.Set(key, value); err != nil {
			return Environment{}, err
		}
	}
	if err := next.Validate(); err != nil {
		return Environment{}, err
	}
	e.params = next
	e.defaults = next
	return e, nil
}

// WithCurves returns a copy driven by src on every Advance.
func (e Environment) WithCurves(src CurveSource) Environment {
	e.curves = src
	return e
}

// Advance returns the environment for the given iteration. Without a curve
// source the environment is returned unchanged. The curve's vector is not
// validated here; see Check.
func (e Environment) Advance(iteration int) Environment {
	if e.curves == nil {
		return e
	}
	e.params = e.curves.At(iteration)
	return e
}

// Check validates the current parameter vector. Curve sources can produce
// values outside the domain even when the template is valid.
func (e Environment) Check() error {
	return e.params.Validate()
}

// Randomize nudges every parameter except sigma by a small random amount
// (at most 1/100). Gamma only ever increases. Results are clamped to the
// valid range and become the new template.
func (e Environment) Randomize(rnd core.Source) Environment {
	next := e.params
	for _, key := range paramKeys {
		if key == KeySigma {
			continue
		}
		delta := 1 / float64(100+rnd.IntN(901))
		if key != KeyGamma && rnd.IntN(2) == 0 {
			delta = -delta
		}
		ref := next.ref(key)
		*ref = clampParam(key, *ref+delta)
	}
	e.params = next
	e.defaults = next
	return e
}

func clampParam(key string, v float64) float64 {
	if v < 0 {
		v = 0
	}
	switch key {
	case KeyKappa, KeyMu, KeyUpsilon, KeySigma:
		if v > 1 {
			v = 1
		}
	}
	return v
}
