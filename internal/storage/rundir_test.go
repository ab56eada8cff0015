package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunDirName(t *testing.T) {
	base := t.TempDir()
	now := time.Date(2024, time.March, 9, 14, 5, 59, 0, time.UTC)

	dir, err := newRunDir(base, "sarsa_", now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "sarsa_2024_03_09_T14_05_59"), dir)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewRunDirCreatesParents(t *testing.T) {
	dir, err := NewRunDir(filepath.Join(t.TempDir(), "results", "vi"), "")
	require.NoError(t, err)
	_, err = os.Stat(dir)
	assert.NoError(t, err)
}

func TestCreateDirRefusesNonEmpty(t *testing.T) {
	dir := t.TempDir()

	// Logs and JSON side files do not count
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run.log"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte("{}"), 0644))
	got, err := CreateDir(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "standard_d6_t10_value.bin"), []byte("x"), 0644))
	_, err = CreateDir(dir)
	assert.ErrorIs(t, err, ErrDirNotEmpty)
}
