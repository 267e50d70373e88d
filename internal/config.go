package internal

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config is the engine configuration loaded from TOML.
type Config struct {
	Log    LogConfig    `toml:"log"`
	Swap   SwapConfig   `toml:"swap"`
	Resync ResyncConfig `toml:"resync"`
	Probe  ProbeConfig  `toml:"probe"`
}

// LogConfig selects log level and output format.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// SwapConfig bounds the waits of the swap pipeline.
type SwapConfig struct {
	ReadyTimeout   Duration `toml:"ready_timeout"`
	SeekTimeout    Duration `toml:"seek_timeout"`
	MuteDuringSwap bool     `toml:"mute_during_swap"`
}

// ResyncConfig holds the caption matching parameters.
type ResyncConfig struct {
	FuzzyThreshold float64 `toml:"fuzzy_threshold"`
	MinWordLength  int     `toml:"min_word_length"`
}

// ProbeConfig controls caption track existence probes.
type ProbeConfig struct {
	Timeout          Duration `toml:"timeout"`
	TrackLoadTimeout Duration `toml:"track_load_timeout"`
	RatePerSecond    float64  `toml:"rate_per_second"`
	Burst            int      `toml:"burst"`
	Concurrency      int      `toml:"concurrency"`
}

// Duration is a time.Duration written as a string such as "5s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// DefaultConfig returns the configuration embedded in config.example.toml.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// LoadConfig reads path on top of the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.Swap.ReadyTimeout.Duration <= 0 {
		errs = append(errs, errors.New("swap.ready_timeout must be positive"))
	}
	if c.Swap.SeekTimeout.Duration <= 0 {
		errs = append(errs, errors.New("swap.seek_timeout must be positive"))
	}
	if c.Resync.FuzzyThreshold <= 0 || c.Resync.FuzzyThreshold > 1 {
		errs = append(errs, fmt.Errorf("resync.fuzzy_threshold %v outside (0, 1]", c.Resync.FuzzyThreshold))
	}
	if c.Resync.MinWordLength < 1 {
		errs = append(errs, errors.New("resync.min_word_length must be at least 1"))
	}
	if c.Probe.Timeout.Duration <= 0 || c.Probe.TrackLoadTimeout.Duration <= 0 {
		errs = append(errs, errors.New("probe timeouts must be positive"))
	}
	if c.Probe.Concurrency < 1 {
		errs = append(errs, errors.New("probe.concurrency must be at least 1"))
	}
	return errors.Join(errs...)
}
