package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// scheduleFile is the optional YAML overlay for channel weights and pacing.
// Zero values leave the environment-derived settings untouched.
//
//	social:
//	  weights: {post: 3, timeline: 1, mentions: 2}
//	  pacing: {item_min: 30s, item_max: 3m, cycle_min: 10m, cycle_max: 1h}
type scheduleFile struct {
	Social struct {
		Weights *SocialWeights `yaml:"weights"`
		Pacing  *PacingConfig  `yaml:"pacing"`
	} `yaml:"social"`
	Trading struct {
		Weights *TradingWeights `yaml:"weights"`
		Pacing  *PacingConfig   `yaml:"pacing"`
	} `yaml:"trading"`
}

func applyScheduleFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading schedule file: %w", err)
	}
	return applySchedule(cfg, data)
}

func applySchedule(cfg *Config, data []byte) error {
	var sf scheduleFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return fmt.Errorf("parsing schedule file: %w", err)
	}

	if w := sf.Social.Weights; w != nil {
		cfg.Social.Weights = *w
	}
	if p := sf.Social.Pacing; p != nil {
		cfg.Social.Pacing = overlayPacing(cfg.Social.Pacing, *p)
	}
	if w := sf.Trading.Weights; w != nil {
		cfg.Trading.Weights = *w
	}
	if p := sf.Trading.Pacing; p != nil {
		cfg.Trading.Pacing = overlayPacing(cfg.Trading.Pacing, *p)
	}
	return nil
}

func overlayPacing(base, over PacingConfig) PacingConfig {
	if over.ItemMin != 0 {
		base.ItemMin = over.ItemMin
	}
	if over.ItemMax != 0 {
		base.ItemMax = over.ItemMax
	}
	if over.CycleMin != 0 {
		base.CycleMin = over.CycleMin
	}
	if over.CycleMax != 0 {
		base.CycleMax = over.CycleMax
	}
	return base
}
