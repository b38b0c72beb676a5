// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Data     DataConfig        `toml:"data"`
	Analysis AnalysisConfig    `toml:"analysis"`
	Aliases  map[string]string `toml:"aliases"`
}

// DataConfig maps input locations.
type DataConfig struct {
	ReportsDir         *string `toml:"reports-dir"`
	FactsDir           *string `toml:"facts-dir"`
	PopulationFile     *string `toml:"population-file"`
	LifeExpectancyFile *string `toml:"life-expectancy-file"`
}

// AnalysisConfig maps query settings.
type AnalysisConfig struct {
	TopN            *int     `toml:"top-n"`
	TimelineWindow  *int     `toml:"timeline-window"`
	WorldPopulation *float64 `toml:"world-population"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
