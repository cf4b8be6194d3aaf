// Command bayesianastro runs the statistical fusion pipeline against a set
// of calibrated FITS frames from the command line.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/scarter4work/bayesianastro/config"
	"github.com/scarter4work/bayesianastro/engine"
	"github.com/scarter4work/bayesianastro/hostfuncs"
	wazeroback "github.com/scarter4work/bayesianastro/infrastructure/wazero"
	"github.com/scarter4work/bayesianastro/logging"
	"github.com/scarter4work/bayesianastro/process"
	"github.com/scarter4work/bayesianastro/schema"
	"github.com/scarter4work/bayesianastro/stack"
)

var version = "0.2.0"

func main() {
	var (
		configPath  string
		runtimeHome string
		logLevel    string
	)

	rootCmd := &cobra.Command{
		Use:   "bayesianastro",
		Short: "Bayesian statistical fusion for astronomical image stacks",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path")
	rootCmd.PersistentFlags().StringVar(&runtimeHome, "runtime-home", "", "Directory holding the pipeline runtime module")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")

	loadConfig := func() (*config.Config, zerolog.Logger, error) {
		cfg, warnings, err := config.Load(configPath)
		if err != nil {
			return nil, zerolog.Nop(), err
		}
		for _, w := range warnings {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
		}
		if runtimeHome != "" {
			cfg.Runtime.Home = runtimeHome
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		log := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
		return cfg, log, nil
	}

	var (
		outputDir     string
		outputPrefix  string
		strategy      string
		sigma         float64
		threshold     float64
		tileSize      int
		useGPU        bool
		confidenceMap bool
	)

	processCmd := &cobra.Command{
		Use:   "process [frames...]",
		Short: "Fuse a stack of calibrated frames into a single image",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			applyFlagOverrides(cmd, cfg, strategy, sigma, threshold, tileSize, useGPU, confidenceMap)
			if outputDir != "" {
				cfg.Output.Dir = outputDir
			}
			if outputPrefix != "" {
				cfg.Output.Prefix = outputPrefix
			}
			return runProcess(cmd.Context(), cfg, log, args)
		},
	}
	processCmd.Flags().StringVar(&outputDir, "output", "", "Output directory")
	processCmd.Flags().StringVar(&outputPrefix, "prefix", "", "Output file prefix")
	processCmd.Flags().StringVar(&strategy, "strategy", "", "Fusion strategy (ConfidenceWeighted, Lucky, MultiScale, MaximumLikelihood)")
	processCmd.Flags().Float64Var(&sigma, "sigma", 0, "Outlier rejection sigma")
	processCmd.Flags().Float64Var(&threshold, "threshold", 0, "Confidence threshold")
	processCmd.Flags().IntVar(&tileSize, "tile-size", 0, "Processing tile size in pixels")
	processCmd.Flags().BoolVar(&useGPU, "gpu", true, "Enable GPU acceleration")
	processCmd.Flags().BoolVar(&confidenceMap, "confidence-map", true, "Generate the confidence map artifact")
	_ = processCmd.MarkFlagRequired("output")

	validateCmd := &cobra.Command{
		Use:   "validate [files...]",
		Short: "Check that files are readable FITS images",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			return runValidate(cmd.Context(), cfg, log, args)
		},
	}

	dimsCmd := &cobra.Command{
		Use:   "dims [file]",
		Short: "Print the pixel dimensions of a FITS image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			return runDims(cmd.Context(), cfg, log, args[0])
		},
	}

	gpuCmd := &cobra.Command{
		Use:   "gpu",
		Short: "Report GPU availability in the pipeline runtime",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			return runGPU(cmd.Context(), cfg, log)
		},
	}

	schemaCmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema for the fusion parameter set",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := schema.ProcessingConfigSchema()
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("bayesianastro %s\n", version)
		},
	}

	rootCmd.AddCommand(processCmd, validateCmd, dimsCmd, gpuCmd, schemaCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// applyFlagOverrides folds explicitly-set process flags into the fusion
// defaults. Unset flags keep the config file or environment values.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config, strategy string, sigma, threshold float64, tileSize int, useGPU, confidenceMap bool) {
	if cmd.Flags().Changed("strategy") {
		cfg.Fusion.Strategy = strategy
	}
	if cmd.Flags().Changed("sigma") {
		cfg.Fusion.OutlierSigma = sigma
	}
	if cmd.Flags().Changed("threshold") {
		cfg.Fusion.ConfidenceThreshold = threshold
	}
	if cmd.Flags().Changed("tile-size") {
		cfg.Fusion.TileSize = tileSize
	}
	if cmd.Flags().Changed("gpu") {
		cfg.Fusion.UseGPU = useGPU
	}
	if cmd.Flags().Changed("confidence-map") {
		cfg.Fusion.ConfidenceMap = confidenceMap
	}
}

// newService wires the host function registry, wasm backend, and engine for
// one CLI invocation. Frame directories are preopened read-only and the
// output directory read-write. Shutdown is the caller's responsibility.
func newService(cfg *config.Config, log zerolog.Logger, frames ...string) (*stack.Service, error) {
	registry, err := hostfuncs.DefaultRegistry(log)
	if err != nil {
		return nil, fmt.Errorf("building host function registry: %w", err)
	}

	backendOpts := []wazeroback.BackendOption{wazeroback.WithLogger(log)}
	if cfg.Output.Dir != "" {
		backendOpts = append(backendOpts, wazeroback.WithDirMount(cfg.Output.Dir, cfg.Output.Dir))
	}
	seen := map[string]bool{cfg.Output.Dir: true}
	for _, frame := range frames {
		dir := filepath.Dir(frame)
		if seen[dir] {
			continue
		}
		seen[dir] = true
		backendOpts = append(backendOpts, wazeroback.WithReadOnlyDirMount(dir, dir))
	}
	backend := wazeroback.New(registry, backendOpts...)

	eng := engine.New(backend,
		engine.WithRuntimeHome(cfg.Runtime.Home),
		engine.WithSearchPaths(cfg.Runtime.SearchPaths...),
		engine.WithLogger(log),
	)

	return stack.NewService(eng, stack.WithLogger(log)), nil
}

func runProcess(ctx context.Context, cfg *config.Config, log zerolog.Logger, frames []string) error {
	svc, err := newService(cfg, log, frames...)
	if err != nil {
		return err
	}
	defer svc.Engine().Shutdown(context.Background()) //nolint:errcheck

	inst := process.NewInstance(svc,
		process.WithLogger(log),
		process.WithStatusSink(func(percent int, message string) {
			fmt.Printf("[%3d%%] %s\n", percent, message)
		}),
	)

	pc, err := cfg.ProcessingConfig()
	if err != nil {
		return err
	}
	inst.SetConfig(pc)
	inst.AddFiles(frames...)
	inst.SetOutputDirectory(cfg.Output.Dir)
	if cfg.Output.Prefix != "" {
		inst.SetOutputPrefix(cfg.Output.Prefix)
	}

	result := inst.Execute(ctx)
	if !result.Success {
		return fmt.Errorf("processing failed: %s", result.ErrorMessage)
	}

	fmt.Printf("Fused image: %s\n", result.FusedImagePath)
	if result.ConfidenceMapPath != "" {
		fmt.Printf("Confidence map: %s\n", result.ConfidenceMapPath)
	}
	if result.Stats != nil {
		fmt.Printf("Pixels: %d  Mean confidence: %.3f\n", result.Stats.TotalPixels, result.Stats.MeanConfidence)
	}
	return nil
}

func runValidate(ctx context.Context, cfg *config.Config, log zerolog.Logger, files []string) error {
	svc, err := newService(cfg, log, files...)
	if err != nil {
		return err
	}
	defer svc.Engine().Shutdown(context.Background()) //nolint:errcheck

	if err := svc.Engine().Initialize(ctx); err != nil {
		return err
	}

	failed := 0
	for _, path := range files {
		if svc.ValidateFile(ctx, path) {
			fmt.Printf("  [OK]   %s\n", path)
		} else {
			fmt.Printf("  [FAIL] %s\n", path)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed validation", failed, len(files))
	}
	return nil
}

func runDims(ctx context.Context, cfg *config.Config, log zerolog.Logger, path string) error {
	svc, err := newService(cfg, log, path)
	if err != nil {
		return err
	}
	defer svc.Engine().Shutdown(context.Background()) //nolint:errcheck

	if err := svc.Engine().Initialize(ctx); err != nil {
		return err
	}

	width, height := svc.ImageDimensions(ctx, path)
	if width == 0 || height == 0 {
		return fmt.Errorf("could not read dimensions of %s", path)
	}
	fmt.Printf("%d x %d\n", width, height)
	return nil
}

func runGPU(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	svc, err := newService(cfg, log)
	if err != nil {
		return err
	}
	defer svc.Engine().Shutdown(context.Background()) //nolint:errcheck

	if err := svc.Engine().Initialize(ctx); err != nil {
		return err
	}

	if svc.GPUAvailable(ctx) {
		fmt.Println("GPU: available")
	} else {
		fmt.Println("GPU: not available")
	}
	fmt.Println(svc.GPUInfo(ctx))
	return nil
}
