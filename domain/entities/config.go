package entities

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FusionStrategy selects the policy for combining per-pixel statistical
// estimates across frames into one output value.
type FusionStrategy int

const (
	// StrategyConfidenceWeighted weights each frame's estimate by its local
	// confidence. This is the default strategy.
	StrategyConfidenceWeighted FusionStrategy = iota

	// StrategyLucky keeps only the sharpest frames per tile.
	StrategyLucky

	// StrategyMultiScale fuses per-scale coefficients independently.
	StrategyMultiScale

	// StrategyMaximumLikelihood picks the maximum-likelihood estimate under
	// the classified per-pixel noise model.
	StrategyMaximumLikelihood
)

// strategyNames is indexed by FusionStrategy.
var strategyNames = []string{
	"ConfidenceWeighted",
	"Lucky",
	"MultiScale",
	"MaximumLikelihood",
}

// String returns the canonical strategy name.
func (s FusionStrategy) String() string {
	if s < 0 || int(s) >= len(strategyNames) {
		return fmt.Sprintf("FusionStrategy(%d)", int(s))
	}
	return strategyNames[s]
}

// ParseFusionStrategy resolves a strategy name to its value. Matching
// ignores case and underscores, so "multiscale" and "maximum_likelihood"
// resolve alongside the canonical names.
func ParseFusionStrategy(name string) (FusionStrategy, error) {
	normalize := func(s string) string {
		return strings.ToLower(strings.ReplaceAll(s, "_", ""))
	}
	for i, n := range strategyNames {
		if normalize(n) == normalize(name) {
			return FusionStrategy(i), nil
		}
	}
	return 0, fmt.Errorf("unknown fusion strategy: %q", name)
}

// ProcessingConfig is the immutable per-invocation configuration of the
// fusion pipeline. It has value semantics: no identity beyond field equality.
type ProcessingConfig struct {
	// FusionStrategy selects how per-pixel estimates are combined.
	FusionStrategy FusionStrategy `json:"fusion_strategy" validate:"gte=0,lte=3"`

	// OutlierSigma is the sigma threshold for outlier rejection.
	OutlierSigma float64 `json:"outlier_sigma" validate:"gte=0.5,lte=10" jsonschema:"minimum=0.5,maximum=10,default=3.0"`

	// ConfidenceThreshold is the minimum per-pixel confidence below which a
	// pixel is excluded from fusion.
	ConfidenceThreshold float64 `json:"confidence_threshold" validate:"gte=0,lte=1" jsonschema:"minimum=0,maximum=1,default=0.1"`

	// TileWidth and TileHeight set the processing tile dimensions.
	TileWidth  int `json:"tile_width" validate:"gt=0" jsonschema:"default=1024"`
	TileHeight int `json:"tile_height" validate:"gt=0" jsonschema:"default=1024"`

	// UseGPU enables GPU acceleration when the runtime reports a device.
	UseGPU bool `json:"use_gpu" jsonschema:"default=true"`

	// GenerateConfidenceMap requests the confidence map artifact alongside
	// the fused image.
	GenerateConfidenceMap bool `json:"generate_confidence_map" jsonschema:"default=true"`
}

// validate is a package-level singleton; creating a validator per call is
// expensive.
var validate = validator.New()

// DefaultConfig returns the configuration the host presents before the user
// touches anything.
func DefaultConfig() ProcessingConfig {
	return ProcessingConfig{
		FusionStrategy:        StrategyConfidenceWeighted,
		OutlierSigma:          3.0,
		ConfidenceThreshold:   0.1,
		TileWidth:             1024,
		TileHeight:            1024,
		UseGPU:                true,
		GenerateConfidenceMap: true,
	}
}

// Validate checks every field against its documented domain.
func (c ProcessingConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
