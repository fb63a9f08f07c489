package virbfit

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config carries the CLI defaults shared by the tools. Flags override file
// values.
type Config struct {
	OffsetHours int
	Downsample  int
	MinFix      uint8
	OutputDir   string
}

func DefaultConfig() Config {
	return Config{
		Downsample: DefaultDownsample,
		MinFix:     DefaultMinFix,
		OutputDir:  ".",
	}
}

type fileConfig struct {
	OffsetHours int    `toml:"offset_hours"`
	Downsample  int    `toml:"downsample"`
	MinFix      int    `toml:"min_fix"`
	OutputDir   string `toml:"output_dir"`
}

// LoadConfig overlays a TOML defaults file on DefaultConfig. Keys absent from
// the file keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("offset_hours") {
		cfg.OffsetHours = raw.OffsetHours
	}
	if meta.IsDefined("downsample") {
		if raw.Downsample < 1 {
			return Config{}, fmt.Errorf("load config: downsample must be >= 1, got %d", raw.Downsample)
		}
		cfg.Downsample = raw.Downsample
	}
	if meta.IsDefined("min_fix") {
		if raw.MinFix < 0 || raw.MinFix > 3 {
			return Config{}, fmt.Errorf("load config: min_fix must be 0..3, got %d", raw.MinFix)
		}
		cfg.MinFix = uint8(raw.MinFix)
	}
	if meta.IsDefined("output_dir") {
		cfg.OutputDir = strings.TrimSpace(raw.OutputDir)
	}
	return cfg, nil
}
