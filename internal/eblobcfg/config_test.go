package eblobcfg_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shindo-go/eblobidx/internal/eblobcfg"
	"github.com/shindo-go/eblobidx/pkg/fs"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := eblobcfg.Load(filepath.Join(t.TempDir(), "does-not-exist.jsonc"))
	require.NoError(t, err)
	require.Equal(t, eblobcfg.Default(), cfg)
}

func TestLoadParsesHuJSONWithCommentsAndTrailingCommas(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.jsonc")

	content := `{
		// block size in entries
		"block_size": 64,
		"bits_per_block": 40,
		"corrupt_max": 4,
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := eblobcfg.Load(path)
	require.NoError(t, err)
	require.Equal(t, 64, cfg.BlockSize)
	require.Equal(t, 40, cfg.BitsPerBlock)
	require.Equal(t, 4, cfg.CorruptMax)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(`{"block_size": 0}`), 0o644))

	_, err := eblobcfg.Load(path)
	require.Error(t, err)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.jsonc")

	want := eblobcfg.Config{BlockSize: 256, BitsPerBlock: 120, CorruptMax: 8}
	require.NoError(t, eblobcfg.Save(fs.NewReal(), path, want))

	got, err := eblobcfg.LoadFS(fs.NewReal(), path)
	require.NoError(t, err)
	require.Equal(t, want, got)
}
