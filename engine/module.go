package engine

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/scarter4work/bayesianastro/domain/entities"
	"github.com/scarter4work/bayesianastro/wireformat"
)

// moduleFileName is the binary the engine looks for in each search path.
var moduleFileName = wireformat.ModuleName + ".wasm"

// manifestFileName sits beside the module binary when present.
const manifestFileName = "manifest.yaml"

// locateModule resolves the module binary across the configured search
// paths. The first directory containing it wins.
func (e *Engine) locateModule() (string, error) {
	paths := e.searchPaths
	if len(paths) == 0 {
		if e.runtimeHome != "" {
			paths = append(paths, e.runtimeHome)
		}
		paths = append(paths, "modules")
	} else if e.runtimeHome != "" {
		paths = append([]string{e.runtimeHome}, paths...)
	}

	for _, dir := range paths {
		candidate := filepath.Join(dir, moduleFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%s not found in search paths %v", moduleFileName, paths)
}

// loadManifest reads and verifies the manifest.yaml beside the module
// binary. A missing manifest is not an error; a manifest naming another
// module or speaking another ABI revision is.
func loadManifest(modulePath string) (*entities.ModuleManifest, error) {
	data, err := os.ReadFile(filepath.Join(filepath.Dir(modulePath), manifestFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var manifest entities.ModuleManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}

	if manifest.Name != wireformat.ModuleName {
		return nil, fmt.Errorf("manifest names module %q, want %q", manifest.Name, wireformat.ModuleName)
	}
	if manifest.ABIVersion != wireformat.ABIVersion {
		return nil, fmt.Errorf("manifest declares ABI %d, host speaks %d", manifest.ABIVersion, wireformat.ABIVersion)
	}
	return &manifest, nil
}
