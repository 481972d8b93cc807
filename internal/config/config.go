// Package config handles tool configuration loading and management.
package config

// Config holds all asset toolkit settings.
type Config struct {
	Data    DataConfig    `yaml:"data"`
	Audio   AudioConfig   `yaml:"audio"`
	Logging LoggingConfig `yaml:"logging"`
}

// DataConfig holds asset data locations and cache behavior.
type DataConfig struct {
	SearchPaths []string `yaml:"search_paths"` // Directories scanned for loose asset files
	CacheAssets bool     `yaml:"cache_assets"` // Keep decoded assets resident
}

// AudioConfig holds audio consumer settings.
type AudioConfig struct {
	MasterVolume float32 `yaml:"master_volume"`
	SFXVolume    float32 `yaml:"sfx_volume"`
	Muted        bool    `yaml:"muted"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			SearchPaths: []string{"data"},
			CacheAssets: true,
		},
		Audio: AudioConfig{
			MasterVolume: 0.8,
			SFXVolume:    0.8,
			Muted:        false,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
