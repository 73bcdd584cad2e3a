package curves

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snowgen/internal/crystal"
)

func TestInterpolate(t *testing.T) {
	c, err := NewInterpolate([]Knot{{0, 1}, {10, 2}, {20, 0}})
	require.NoError(t, err)

	cases := map[int]float64{-5: 1, 0: 1, 5: 1.5, 10: 2, 15: 1, 20: 0, 100: 0}
	for it, want := range cases {
		assert.InDelta(t, want, c.At(it), 1e-12, "iteration %d", it)
	}
}

func TestInterpolateRejectsUnorderedKnots(t *testing.T) {
	_, err := NewInterpolate([]Knot{{0, 1}, {0, 2}})
	require.Error(t, err)
	_, err = NewInterpolate([]Knot{{5, 1}, {2, 2}})
	require.Error(t, err)
	_, err = NewInterpolate(nil)
	require.Error(t, err)
}

func TestParseKeyframes(t *testing.T) {
	base := crystal.DefaultParams()
	k, err := ParseKeyframes("beta=0:1.3/100:2.3; mu=0:0.07/50:0.01;squelch=10", base)
	require.NoError(t, err)
	assert.Equal(t, 10, k.Squelch)
	assert.Equal(t, []string{crystal.KeyBeta, crystal.KeyMu}, k.Keys())

	assert.Equal(t, base, k.At(5), "squelched iterations use the template")

	p := k.At(50)
	assert.InDelta(t, 1.8, p.Beta, 1e-12)
	assert.InDelta(t, 0.01, p.Mu, 1e-12)
	assert.Equal(t, base.Theta, p.Theta)
	assert.Equal(t, base.Gamma, p.Gamma)

	assert.True(t, math.Abs(k.At(1000).Beta-2.3) < 1e-12)
}

func TestParseKeyframesErrors(t *testing.T) {
	base := crystal.DefaultParams()

	_, err := ParseKeyframes("humidity=0:1/10:2", base)
	require.ErrorIs(t, err, crystal.ErrUnknownParameter)

	for _, bad := range []string{"beta", "beta=0-1", "beta=x:1", "beta=0:y", "beta=10:1/5:2", "squelch=-1"} {
		_, err := ParseKeyframes(bad, base)
		require.Error(t, err, bad)
	}
}

func TestKeyframesDriveLattice(t *testing.T) {
	k, err := ParseKeyframes("beta=0:1/10:11", crystal.DefaultParams())
	require.NoError(t, err)

	cfg := crystal.DefaultConfig()
	cfg.Size = 15
	cfg.Margin = 1
	l, err := crystal.New(cfg)
	require.NoError(t, err)
	require.NoError(t, l.AttachCurves(k))

	for i := 0; i < 4; i++ {
		require.NoError(t, l.Step())
	}
	beta, err := l.Environment().Get(crystal.KeyBeta)
	require.NoError(t, err)
	assert.InDelta(t, 5, beta, 1e-12)
}

func TestParseKeyframesRejectsOutOfDomainValues(t *testing.T) {
	base := crystal.DefaultParams()

	for _, bad := range []string{"mu=0:3", "kappa=0:0.1/100:1.5", "beta=0:1/10:-1", "sigma=0:2"} {
		_, err := ParseKeyframes(bad, base)
		require.ErrorIs(t, err, crystal.ErrInvalidParameter, bad)
	}

	k, err := ParseKeyframes("mu=0:0/100:1", base)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, k.At(50).Mu, 1e-12)
}

func TestKeyframesApplyFromFirstIteration(t *testing.T) {
	k, err := ParseKeyframes("beta=0:9", crystal.DefaultParams())
	require.NoError(t, err)

	cfg := crystal.DefaultConfig()
	cfg.Size = 15
	cfg.Margin = 1
	cfg.Environment = crystal.DefaultEnvironment().WithCurves(k)
	fresh, err := crystal.New(cfg)
	require.NoError(t, err)
	assert.InDelta(t, 9, fresh.Environment().Params().Beta, 1e-12)
	assert.InDelta(t, 1.3, fresh.Environment().Defaults().Beta, 1e-12)

	cfg.Environment = crystal.DefaultEnvironment()
	attached, err := crystal.New(cfg)
	require.NoError(t, err)
	require.NoError(t, attached.AttachCurves(k))
	assert.Equal(t, fresh.Environment().Params(), attached.Environment().Params())
}
