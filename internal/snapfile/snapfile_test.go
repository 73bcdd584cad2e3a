package snapfile

import (
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/src-d/go-billy.v4/memfs"

	"snowgen/internal/core"
	"snowgen/internal/crystal"
)

func grow(t *testing.T, steps int) *crystal.Lattice {
	t.Helper()
	cfg := crystal.DefaultConfig()
	cfg.Size = 21
	cfg.Margin = 1
	cfg.Rand = core.NewRNG(7)
	l, err := crystal.New(cfg)
	require.NoError(t, err)
	for i := 0; i < steps; i++ {
		require.NoError(t, l.Step())
	}
	return l
}

func TestSaveLoad(t *testing.T) {
	fs := memfs.New()
	l := grow(t, 12)

	ok, err := Exists(fs, "runs/flake.cbor")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, Save(fs, "runs/flake.cbor", l))

	ok, err = Exists(fs, "runs/flake.cbor")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Exists(fs, "runs/flake.cbor"+partialSuffix)
	require.NoError(t, err)
	assert.False(t, ok, "scratch file should be renamed away")

	restored, err := Load(fs, "runs/flake.cbor", nil)
	require.NoError(t, err)
	assert.Equal(t, l.Iteration(), restored.Iteration())
	assert.Equal(t, l.CrystalMasses(), restored.CrystalMasses())
	assert.Equal(t, l.DiffusiveMasses(), restored.DiffusiveMasses())
}

func TestSaveOverwrites(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, Save(fs, "flake.cbor", grow(t, 2)))
	require.NoError(t, Save(fs, "flake.cbor", grow(t, 5)))

	restored, err := Load(fs, "flake.cbor", nil)
	require.NoError(t, err)
	assert.Equal(t, 5, restored.Iteration())
}

func TestLoadCorruptLeavesFile(t *testing.T) {
	fs := memfs.New()
	f, err := fs.Create("flake.cbor")
	require.NoError(t, err)
	_, err = f.Write([]byte("garbage"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	l, err := Load(fs, "flake.cbor", nil)
	require.ErrorIs(t, err, crystal.ErrCorruptSnapshot)
	assert.Nil(t, l)

	f, err = fs.Open("flake.cbor")
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, "garbage", string(data))
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(memfs.New(), "absent.cbor", nil)
	require.ErrorIs(t, err, os.ErrNotExist)
}
