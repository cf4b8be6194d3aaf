package wireformat

import (
	"fmt"

	"github.com/scarter4work/bayesianastro/domain/entities"
	"github.com/scarter4work/bayesianastro/foreignval"
)

// strategyWireOffset converts the host's zero-based strategy index to the
// pipeline's enumeration. The foreign enumeration is one-based and its first
// slot is a retired strategy the host no longer exposes, so native index 0
// (ConfidenceWeighted, the default) is foreign value 2. This offset is a
// fixed cross-boundary contract; changing it requires changing the pipeline
// module in the same release.
const strategyWireOffset = 2

// StrategyWireValue returns the foreign enumeration value for a native
// strategy.
func StrategyWireValue(s entities.FusionStrategy) int64 {
	return int64(s) + strategyWireOffset
}

// StrategyFromWire resolves a foreign enumeration value back to the native
// strategy, rejecting values outside the addressable range.
func StrategyFromWire(wire int64) (entities.FusionStrategy, error) {
	s := entities.FusionStrategy(wire - strategyWireOffset)
	if s < entities.StrategyConfidenceWeighted || s > entities.StrategyMaximumLikelihood {
		return 0, fmt.Errorf("wireformat: foreign strategy value %d out of range", wire)
	}
	return s, nil
}

// ConfigValue builds the foreign structured-value form of a processing
// configuration. Field names and order are part of the ABI.
func ConfigValue(cfg entities.ProcessingConfig) foreignval.Value {
	return foreignval.Record(
		foreignval.Field{Name: "fusion_strategy", Value: foreignval.Int(StrategyWireValue(cfg.FusionStrategy))},
		foreignval.Field{Name: "confidence_threshold", Value: foreignval.Float(cfg.ConfidenceThreshold)},
		foreignval.Field{Name: "outlier_sigma", Value: foreignval.Float(cfg.OutlierSigma)},
		foreignval.Field{Name: "tile_size", Value: foreignval.Tuple(foreignval.Int(int64(cfg.TileWidth)), foreignval.Int(int64(cfg.TileHeight)))},
		foreignval.Field{Name: "use_gpu", Value: foreignval.Bool(cfg.UseGPU)},
		foreignval.Field{Name: "generate_confidence_map", Value: foreignval.Bool(cfg.GenerateConfidenceMap)},
	)
}

// ConfigFromValue decodes the foreign structured-value form back into a
// native configuration. Decoding is strict; a missing or mistyped field is
// an error.
func ConfigFromValue(v foreignval.Value) (entities.ProcessingConfig, error) {
	var cfg entities.ProcessingConfig

	wireStrategy, err := fieldInt(v, "fusion_strategy")
	if err != nil {
		return cfg, err
	}
	cfg.FusionStrategy, err = StrategyFromWire(wireStrategy)
	if err != nil {
		return cfg, err
	}

	if cfg.ConfidenceThreshold, err = fieldFloat(v, "confidence_threshold"); err != nil {
		return cfg, err
	}
	if cfg.OutlierSigma, err = fieldFloat(v, "outlier_sigma"); err != nil {
		return cfg, err
	}

	tile, err := v.Get("tile_size")
	if err != nil {
		return cfg, err
	}
	dims, err := tile.AsTuple(2)
	if err != nil {
		return cfg, fmt.Errorf("wireformat: tile_size: %w", err)
	}
	w, err := dims[0].AsInt()
	if err != nil {
		return cfg, fmt.Errorf("wireformat: tile_size: %w", err)
	}
	h, err := dims[1].AsInt()
	if err != nil {
		return cfg, fmt.Errorf("wireformat: tile_size: %w", err)
	}
	cfg.TileWidth, cfg.TileHeight = int(w), int(h)

	if cfg.UseGPU, err = fieldBool(v, "use_gpu"); err != nil {
		return cfg, err
	}
	if cfg.GenerateConfidenceMap, err = fieldBool(v, "generate_confidence_map"); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// FileListValue builds the foreign sequence form of a file manifest,
// preserving stacking order.
func FileListValue(files entities.FileManifest) foreignval.Value {
	items := make([]foreignval.Value, len(files))
	for i, path := range files {
		items[i] = foreignval.Str(path)
	}
	return foreignval.List(items...)
}

// ProcessRequestValue builds the full process_stack request.
func ProcessRequestValue(files entities.FileManifest, outputStem string, cfg entities.ProcessingConfig) foreignval.Value {
	return foreignval.Record(
		foreignval.Field{Name: "files", Value: FileListValue(files)},
		foreignval.Field{Name: "output_stem", Value: foreignval.Str(outputStem)},
		foreignval.Field{Name: "config", Value: ConfigValue(cfg)},
	)
}

// PathRequestValue builds the single-path request used by validate_fits and
// image_dims.
func PathRequestValue(path string) foreignval.Value {
	return foreignval.Record(
		foreignval.Field{Name: "path", Value: foreignval.Str(path)},
	)
}

func fieldInt(v foreignval.Value, name string) (int64, error) {
	f, err := v.Get(name)
	if err != nil {
		return 0, err
	}
	i, err := f.AsInt()
	if err != nil {
		return 0, fmt.Errorf("wireformat: %s: %w", name, err)
	}
	return i, nil
}

func fieldFloat(v foreignval.Value, name string) (float64, error) {
	f, err := v.Get(name)
	if err != nil {
		return 0, err
	}
	x, err := f.AsFloat()
	if err != nil {
		return 0, fmt.Errorf("wireformat: %s: %w", name, err)
	}
	return x, nil
}

func fieldBool(v foreignval.Value, name string) (bool, error) {
	f, err := v.Get(name)
	if err != nil {
		return false, err
	}
	b, err := f.AsBool()
	if err != nil {
		return false, fmt.Errorf("wireformat: %s: %w", name, err)
	}
	return b, nil
}
