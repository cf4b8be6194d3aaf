// Package config loads application configuration from file and environment.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/scarter4work/bayesianastro/domain/entities"
)

// Config holds all application configuration.
type Config struct {
	Runtime RuntimeConfig `mapstructure:"runtime"`
	Output  OutputConfig  `mapstructure:"output"`
	Fusion  FusionConfig  `mapstructure:"fusion"`
	Log     LogConfig     `mapstructure:"log"`
}

// RuntimeConfig locates the embedded pipeline runtime.
type RuntimeConfig struct {
	Home        string   `mapstructure:"home"`
	SearchPaths []string `mapstructure:"search_paths"`
}

// OutputConfig holds output artifact defaults.
type OutputConfig struct {
	Dir    string `mapstructure:"dir"`
	Prefix string `mapstructure:"prefix"`
}

// FusionConfig holds fusion parameter defaults applied before per-run flags.
type FusionConfig struct {
	Strategy            string  `mapstructure:"strategy"`
	OutlierSigma        float64 `mapstructure:"outlier_sigma"`
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold"`
	TileSize            int     `mapstructure:"tile_size"`
	UseGPU              bool    `mapstructure:"use_gpu"`
	ConfidenceMap       bool    `mapstructure:"confidence_map"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() *Config {
	dc := entities.DefaultConfig()
	return &Config{
		Fusion: FusionConfig{
			Strategy:            dc.FusionStrategy.String(),
			OutlierSigma:        dc.OutlierSigma,
			ConfidenceThreshold: dc.ConfidenceThreshold,
			TileSize:            dc.TileWidth,
			UseGPU:              dc.UseGPU,
			ConfidenceMap:       dc.GenerateConfidenceMap,
		},
		Output: OutputConfig{Prefix: "bayesian"},
		Log:    LogConfig{Level: "info", Format: "console"},
	}
}

// ProcessingConfig converts the fusion defaults into the domain parameter
// set handed to the pipeline.
func (c *Config) ProcessingConfig() (entities.ProcessingConfig, error) {
	strategy, err := entities.ParseFusionStrategy(c.Fusion.Strategy)
	if err != nil {
		return entities.ProcessingConfig{}, err
	}
	pc := entities.ProcessingConfig{
		FusionStrategy:        strategy,
		OutlierSigma:          c.Fusion.OutlierSigma,
		ConfidenceThreshold:   c.Fusion.ConfidenceThreshold,
		TileWidth:             c.Fusion.TileSize,
		TileHeight:            c.Fusion.TileSize,
		UseGPU:                c.Fusion.UseGPU,
		GenerateConfidenceMap: c.Fusion.ConfidenceMap,
	}
	if err := pc.Validate(); err != nil {
		return entities.ProcessingConfig{}, err
	}
	return pc, nil
}

// Validate checks configuration for issues and returns warnings.
func (c *Config) Validate() []string {
	var warnings []string

	if _, err := entities.ParseFusionStrategy(c.Fusion.Strategy); err != nil {
		warnings = append(warnings, fmt.Sprintf("fusion strategy %q is not recognized", c.Fusion.Strategy))
	}
	if c.Fusion.OutlierSigma < 0.5 || c.Fusion.OutlierSigma > 10 {
		warnings = append(warnings, fmt.Sprintf("outlier_sigma %.2f is outside range [0.5, 10.0]", c.Fusion.OutlierSigma))
	}
	if c.Fusion.ConfidenceThreshold < 0 || c.Fusion.ConfidenceThreshold > 1 {
		warnings = append(warnings, fmt.Sprintf("confidence_threshold %.2f is outside range [0.0, 1.0]", c.Fusion.ConfidenceThreshold))
	}
	if c.Fusion.TileSize <= 0 {
		warnings = append(warnings, fmt.Sprintf("tile_size %d is not positive", c.Fusion.TileSize))
	}

	return warnings
}

// Load reads configuration from an optional file and the environment.
// Environment variables use the BAYESIANASTRO_ prefix with underscores,
// e.g. BAYESIANASTRO_RUNTIME_HOME.
func Load(path string) (*Config, []string, error) {
	v := viper.New()
	v.SetEnvPrefix("BAYESIANASTRO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := Default()
	v.SetDefault("runtime.home", defaults.Runtime.Home)
	v.SetDefault("output.prefix", defaults.Output.Prefix)
	v.SetDefault("fusion.strategy", defaults.Fusion.Strategy)
	v.SetDefault("fusion.outlier_sigma", defaults.Fusion.OutlierSigma)
	v.SetDefault("fusion.confidence_threshold", defaults.Fusion.ConfidenceThreshold)
	v.SetDefault("fusion.tile_size", defaults.Fusion.TileSize)
	v.SetDefault("fusion.use_gpu", defaults.Fusion.UseGPU)
	v.SetDefault("fusion.confidence_map", defaults.Fusion.ConfidenceMap)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.format", defaults.Log.Format)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return &cfg, cfg.Validate(), nil
}
