package insulation

import (
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/synaptecltd/insulation/noise"
	"gopkg.in/yaml.v2"
)

// Config holds the settings of a Driver. Tick periods and step sizes belong to
// the modes and are not configurable.
type Config struct {
	LogLevel      string          `yaml:"LogLevel" mapstructure:"LogLevel"`           // zap level name, default "info"
	Seed          uint64          `yaml:"Seed" mapstructure:"Seed"`                   // random seed, 0 seeds from the clock
	RawPoints     int             `yaml:"RawPoints" mapstructure:"RawPoints"`         // points kept per chart buffer
	DisplayPoints int             `yaml:"DisplayPoints" mapstructure:"DisplayPoints"` // points per reduced chart
	Noise         noise.Container `yaml:"Noise" mapstructure:"Noise"`                 // perturbation applied to readings
}

const (
	defaultRawPoints     = 2000
	defaultDisplayPoints = 200
	defaultJitter        = 0.005
)

// DefaultConfig returns the settings used when none are given.
func DefaultConfig() Config {
	return Config{
		LogLevel:      "info",
		RawPoints:     defaultRawPoints,
		DisplayPoints: defaultDisplayPoints,
		Noise:         defaultNoise(),
	}
}

func defaultNoise() noise.Container {
	c := noise.Container{}
	jitter, err := noise.NewJitterNoise(noise.JitterParams{Name: "meter", Magnitude: defaultJitter})
	if err != nil {
		panic(err)
	}
	c.Add(jitter)
	return c
}

// LoadConfig reads a YAML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML config. Keys missing from the document keep their
// defaults; an empty Noise list disables noise.
func ParseConfig(data []byte) (Config, error) {
	raw := map[string]interface{}{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("config: decode yaml: %w", err)
	}
	return DecodeConfig(raw)
}

// DecodeConfig decodes a generic map, as produced by YAML or by configuration
// libraries built on mapstructure, onto the defaults.
func DecodeConfig(raw map[string]interface{}) (Config, error) {
	cfg := DefaultConfig()
	cfg.Noise = nil

	decoderConfig := &mapstructure.DecoderConfig{
		DecodeHook:       noise.GetDecodeHook(),
		WeaklyTypedInput: true,
		Result:           &cfg,
	}
	decoder, err := mapstructure.NewDecoder(decoderConfig)
	if err != nil {
		return Config{}, err
	}
	if err := decoder.Decode(raw); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	if !hasKey(raw, "Noise") {
		cfg.Noise = defaultNoise()
	}
	if cfg.RawPoints < 1 {
		return Config{}, fmt.Errorf("config: RawPoints must be at least 1, got %d", cfg.RawPoints)
	}
	if cfg.DisplayPoints < 1 {
		return Config{}, fmt.Errorf("config: DisplayPoints must be at least 1, got %d", cfg.DisplayPoints)
	}
	return cfg, nil
}

// mapstructure matches keys case-insensitively, so this does too.
func hasKey(raw map[string]interface{}, key string) bool {
	for k := range raw {
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}
