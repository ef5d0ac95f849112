// Package config loads torc.yaml: target architecture pointer size,
// the big-copy warning threshold (spec.md §4.6), recognised source
// extensions, and cache locations.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

const SourceFileExt = ".tor"

// SourceFileExtensions are all recognised source file extensions.
var SourceFileExtensions = []string{".tor", ".tors"}

// IsTestMode is set once at startup when running under `go test`-style
// harnesses that want deterministic, environment-independent output.
var IsTestMode = false

// Config is the parsed form of torc.yaml.
type Config struct {
	// Arch is the target pointer size in bytes: 4 or 8 (spec.md §6
	// "Target architecture"). It fixes int/uint/pointer sizes and the
	// two-word slice layout (2*Arch).
	Arch int `yaml:"arch"`

	// BigCopyAlert is the sizeHint threshold (in bytes) at or above
	// which A3 lowering emits a warning for a synthesised memcpy/memset
	// (spec.md §4.6 "Big-copy warning").
	BigCopyAlert int64 `yaml:"big_copy_alert"`

	// CacheDir holds the A1-Ext instantiation cache database
	// (internal/instantiate/cache.go).
	CacheDir string `yaml:"cache_dir"`
}

// Default returns the configuration used when no torc.yaml is found.
func Default() *Config {
	return &Config{
		Arch:         8,
		BigCopyAlert: 4096,
		CacheDir:     ".torc",
	}
}

// Load reads torc.yaml at path, falling back to Default() values for
// any field left unset in the file. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	var onDisk Config
	if err := yaml.Unmarshal(data, &onDisk); err != nil {
		return nil, err
	}
	if onDisk.Arch != 0 {
		cfg.Arch = onDisk.Arch
	}
	if onDisk.BigCopyAlert != 0 {
		cfg.BigCopyAlert = onDisk.BigCopyAlert
	}
	if onDisk.CacheDir != "" {
		cfg.CacheDir = onDisk.CacheDir
	}
	return cfg, nil
}

// SliceWordSize returns the byte size of a (ptr,len) slice header:
// 2*Arch, per spec.md §6.
func (c *Config) SliceWordSize() int64 { return int64(2 * c.Arch) }
