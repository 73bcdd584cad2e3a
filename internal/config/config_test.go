package config

import (
	"flag"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snowgen/internal/crystal"
)

func TestDefaults(t *testing.T) {
	r := Default()
	assert.Equal(t, "snowflake", r.Name)
	assert.Equal(t, crystal.DefaultSize, r.Size)
	assert.Equal(t, crystal.DefaultMargin, r.Margin)
	assert.Equal(t, crystal.DefaultReportEvery, r.ReportEvery)
	assert.True(t, r.Unshear)
	assert.False(t, r.Movie)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SNOWFLAKE_SIZE", "64")
	t.Setenv("SNOWFLAKE_ENV", "beta=1.6")
	t.Setenv("SNOWFLAKE_MOVIE", "true")

	r, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 64, r.Size)
	assert.Equal(t, "beta=1.6", r.Env)
	assert.True(t, r.Movie)

	t.Setenv("SNOWFLAKE_SIZE", "big")
	_, err = Load()
	require.Error(t, err)
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	r, err := FromMap(map[string]string{"size": "64", "max_steps": "10"})
	require.NoError(t, err)
	assert.Equal(t, 10, r.MaxSteps)

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	r.Bind(fs)
	require.NoError(t, fs.Parse([]string{"-size", "32", "-name", "flake", "-dir", "out"}))
	assert.Equal(t, 32, r.Size)
	assert.Equal(t, 10, r.MaxSteps)
	assert.Equal(t, filepath.Join("out", "flake.db"), r.ReplayPath())
	assert.Equal(t, "flake.cbor", r.SnapshotName())
}

func TestParseOverrides(t *testing.T) {
	m, err := ParseOverrides(" beta=1.5, MU=0.2,,")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"beta": 1.5, "mu": 0.2}, m)

	m, err = ParseOverrides("")
	require.NoError(t, err)
	assert.Empty(t, m)

	for _, bad := range []string{"beta", "beta=x"} {
		_, err := ParseOverrides(bad)
		require.Error(t, err, bad)
	}
}

func TestEnvironment(t *testing.T) {
	r := Default()
	r.Env = "beta=1.6,gamma=0.7"
	r.Curves = "mu=0:0.1/10:0.2"
	e, err := r.Environment()
	require.NoError(t, err)

	p := e.Params()
	assert.Equal(t, 1.6, p.Beta)
	assert.Equal(t, 0.7, p.Gamma)
	assert.Equal(t, crystal.DefaultParams().Mu, p.Mu, "curves are not applied until the lattice advances")
	require.NotNil(t, e.Curves())
	assert.InDelta(t, 0.15, e.Advance(5).Params().Mu, 1e-12)

	r.Env = "humidity=1"
	_, err = r.Environment()
	require.ErrorIs(t, err, crystal.ErrUnknownParameter)

	r.Env = "mu=2"
	_, err = r.Environment()
	require.ErrorIs(t, err, crystal.ErrInvalidParameter)

	r.Env = ""
	r.Curves = "mu=0:3"
	_, err = r.LatticeConfig()
	require.ErrorIs(t, err, crystal.ErrInvalidParameter)
}

func TestLatticeStartsOnCurve(t *testing.T) {
	r := Default()
	r.Size = 15
	r.Margin = 1
	r.Curves = "beta=0:9"
	cfg, err := r.LatticeConfig()
	require.NoError(t, err)
	l, err := crystal.New(cfg)
	require.NoError(t, err)
	assert.Equal(t, 9.0, l.Environment().Params().Beta)
}

func TestRandomizeIsSeeded(t *testing.T) {
	r := Default()
	r.Randomize = true
	a, err := r.Environment()
	require.NoError(t, err)
	b, err := r.Environment()
	require.NoError(t, err)
	assert.Equal(t, a.Params(), b.Params())
	assert.NotEqual(t, crystal.DefaultParams(), a.Params())
	assert.Equal(t, crystal.DefaultParams().Sigma, a.Params().Sigma)
}

func TestLatticeConfig(t *testing.T) {
	r := Default()
	r.Size = 15
	r.Margin = 1
	cfg, err := r.LatticeConfig()
	require.NoError(t, err)
	l, err := crystal.New(cfg)
	require.NoError(t, err)
	assert.Equal(t, 15, l.Size())
}
