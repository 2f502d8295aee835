// Package config loads daemon configuration from the environment and the
// numeric tuning constants from an optional YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config is the daemon's environment configuration.
type Config struct {
	DataDir     string `env:"NATIONSIM_DATA_DIR" envDefault:"data"`
	ArchivePath string `env:"NATIONSIM_ARCHIVE" envDefault:"data/archive.db"`
	TuningPath  string `env:"NATIONSIM_TUNING"`
	LogLevel    string `env:"NATIONSIM_LOG_LEVEL" envDefault:"info"`
	RandomSeed  int64  `env:"NATIONSIM_SEED"` // 0 = crypto randomness
}

// Load parses the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Tuning holds the gameplay constants. A YAML file can override any subset
// of the defaults.
type Tuning struct {
	CoupCooldown        time.Duration
	CoupFloorChance     float64
	ExchangeFeeRate     float64
	ReligiousWarCost    float64
	ProcessingYield     float64
	ViolationWarLimit   int
	ViolationRepDelta   float64
	TradePeriod         time.Duration
	ConfirmTimeout      time.Duration
	TradeTickEvery      time.Duration
	ProcessingTickEvery time.Duration
	WarSweepEvery       time.Duration
	ConfirmSweepEvery   time.Duration
	BorderTickEvery     time.Duration
	ArchiveFlushEvery   time.Duration
}

// DefaultTuning returns the stock balance.
func DefaultTuning() Tuning {
	return Tuning{
		CoupCooldown:        7 * 24 * time.Hour,
		CoupFloorChance:     0.1,
		ExchangeFeeRate:     0.02,
		ReligiousWarCost:    5000,
		ProcessingYield:     0.8,
		ViolationWarLimit:   3,
		ViolationRepDelta:   -10,
		TradePeriod:         time.Hour,
		ConfirmTimeout:      5 * time.Minute,
		TradeTickEvery:      10 * time.Minute,
		ProcessingTickEvery: 10 * time.Minute,
		WarSweepEvery:       10 * time.Minute,
		ConfirmSweepEvery:   time.Minute,
		BorderTickEvery:     2 * time.Second,
		ArchiveFlushEvery:   time.Minute,
	}
}

// tuningFile is the YAML shape of a tuning override. Durations are written
// as strings ("10m", "24h"); absent fields keep their defaults.
type tuningFile struct {
	CoupCooldown        *string  `yaml:"coup_cooldown"`
	CoupFloorChance     *float64 `yaml:"coup_floor_chance"`
	ExchangeFeeRate     *float64 `yaml:"exchange_fee_rate"`
	ReligiousWarCost    *float64 `yaml:"religious_war_cost"`
	ProcessingYield     *float64 `yaml:"processing_yield"`
	ViolationWarLimit   *int     `yaml:"violation_war_limit"`
	ViolationRepDelta   *float64 `yaml:"violation_rep_delta"`
	TradePeriod         *string  `yaml:"trade_period"`
	ConfirmTimeout      *string  `yaml:"confirm_timeout"`
	TradeTickEvery      *string  `yaml:"trade_tick_every"`
	ProcessingTickEvery *string  `yaml:"processing_tick_every"`
	WarSweepEvery       *string  `yaml:"war_sweep_every"`
	ConfirmSweepEvery   *string  `yaml:"confirm_sweep_every"`
	BorderTickEvery     *string  `yaml:"border_tick_every"`
	ArchiveFlushEvery   *string  `yaml:"archive_flush_every"`
}

// LoadTuning reads overrides from a YAML file on top of the defaults. An
// empty path returns the defaults unchanged.
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()
	if path == "" {
		return t, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("read tuning %s: %w", path, err)
	}
	var f tuningFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return t, fmt.Errorf("parse tuning %s: %w", path, err)
	}

	if f.CoupFloorChance != nil {
		t.CoupFloorChance = *f.CoupFloorChance
	}
	if f.ExchangeFeeRate != nil {
		t.ExchangeFeeRate = *f.ExchangeFeeRate
	}
	if f.ReligiousWarCost != nil {
		t.ReligiousWarCost = *f.ReligiousWarCost
	}
	if f.ProcessingYield != nil {
		t.ProcessingYield = *f.ProcessingYield
	}
	if f.ViolationWarLimit != nil {
		t.ViolationWarLimit = *f.ViolationWarLimit
	}
	if f.ViolationRepDelta != nil {
		t.ViolationRepDelta = *f.ViolationRepDelta
	}

	durations := []struct {
		raw *string
		dst *time.Duration
	}{
		{f.CoupCooldown, &t.CoupCooldown},
		{f.TradePeriod, &t.TradePeriod},
		{f.ConfirmTimeout, &t.ConfirmTimeout},
		{f.TradeTickEvery, &t.TradeTickEvery},
		{f.ProcessingTickEvery, &t.ProcessingTickEvery},
		{f.WarSweepEvery, &t.WarSweepEvery},
		{f.ConfirmSweepEvery, &t.ConfirmSweepEvery},
		{f.BorderTickEvery, &t.BorderTickEvery},
		{f.ArchiveFlushEvery, &t.ArchiveFlushEvery},
	}
	for _, d := range durations {
		if d.raw == nil {
			continue
		}
		parsed, err := time.ParseDuration(*d.raw)
		if err != nil {
			return t, fmt.Errorf("parse tuning %s: %w", path, err)
		}
		*d.dst = parsed
	}
	return t, nil
}
