// Package eblobcfg loads the per-base configuration the sorted-index engine
// depends on: block size, Bloom sizing, and the corruption threshold.
package eblobcfg

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/tailscale/hujson"

	gofs "github.com/shindo-go/eblobidx/pkg/fs"
)

// Config holds the per-base tuning knobs listed in the engine's external
// interfaces under "Per-base config".
type Config struct {
	// BlockSize is B, the number of entries summarised by one index block.
	BlockSize int `json:"block_size"`

	// BitsPerBlock sizes the Bloom filter: bits_per_block bits are reserved
	// for every BlockSize-entry run.
	BitsPerBlock int `json:"bits_per_block"`

	// CorruptMax is EBLOB_BLOB_INDEX_CORRUPT_MAX, the per-base corruption
	// budget before a block-table build aborts fatally.
	CorruptMax int `json:"corrupt_max"`

	// SingleProcess is copied into SortedIndexBuilder.SingleProcess by
	// eblobidx-tool build. No code in this module takes an interprocess
	// advisory lock around generate_sorted_index's temp+rename step, and
	// Generate does not read the field, so it has no effect on the build.
	SingleProcess bool `json:"single_process,omitempty"`
}

var (
	errBlockSizeInvalid    = errors.New("eblobcfg: block_size must be >= 1")
	errBitsPerBlockInvalid = errors.New("eblobcfg: bits_per_block must be >= 1")
	errCorruptMaxInvalid   = errors.New("eblobcfg: corrupt_max must be >= 0")
)

// Default returns the engine's built-in defaults, used when no config file
// is present.
func Default() Config {
	return Config{
		BlockSize:    128,
		BitsPerBlock: 1280, // ~10 bits/key at BlockSize entries per block.
		CorruptMax:   16,
	}
}

// Load reads and parses a HuJSON (JSON with comments and trailing commas)
// config file at path using the real filesystem. A missing file returns
// Default() with no error.
func Load(path string) (Config, error) {
	return LoadFS(gofs.NewReal(), path)
}

// LoadFS is Load generalised over an fs.FS, letting callers substitute a
// fake filesystem in tests.
func LoadFS(fsys gofs.FS, path string) (Config, error) {
	cfg := Default()

	data, err := fsys.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}

		return Config{}, fmt.Errorf("eblobcfg: read %s: %w", path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("eblobcfg: invalid JSONC in %s: %w", path, err)
	}

	if unmarshalErr := json.Unmarshal(standardized, &cfg); unmarshalErr != nil {
		return Config{}, fmt.Errorf("eblobcfg: invalid JSON in %s: %w", path, unmarshalErr)
	}

	if validateErr := Validate(cfg); validateErr != nil {
		return Config{}, fmt.Errorf("eblobcfg: %s: %w", path, validateErr)
	}

	return cfg, nil
}

// Validate checks structural sanity of a Config.
func Validate(cfg Config) error {
	if cfg.BlockSize < 1 {
		return errBlockSizeInvalid
	}

	if cfg.BitsPerBlock < 1 {
		return errBitsPerBlockInvalid
	}

	if cfg.CorruptMax < 0 {
		return errCorruptMaxInvalid
	}

	return nil
}

// Save serialises cfg as indented JSON and writes it to path atomically
// (temp file + fsync + rename + parent-directory fsync), so a crash mid
// write never leaves a torn config file behind.
func Save(fsys gofs.FS, path string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("eblobcfg: marshal: %w", err)
	}

	writer := gofs.NewAtomicWriter(fsys)

	if err := writer.WriteWithDefaults(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("eblobcfg: write %s: %w", path, err)
	}

	return nil
}
