package entities

// FileManifest is the ordered list of input frame paths for one invocation.
// Order is significant: it is the stacking order the pipeline sees.
type FileManifest []string

// IsEmpty reports whether the manifest contains no frames.
func (m FileManifest) IsEmpty() bool {
	return len(m) == 0
}

// Clone returns an independent copy so callers cannot mutate an in-flight
// invocation's file list.
func (m FileManifest) Clone() FileManifest {
	if m == nil {
		return nil
	}
	out := make(FileManifest, len(m))
	copy(out, m)
	return out
}

// ModuleManifest describes the pipeline module shipped beside the wasm
// binary as manifest.yaml.
type ModuleManifest struct {
	Name         string   `json:"name" yaml:"name"`
	Version      string   `json:"version" yaml:"version"`
	ABIVersion   int      `json:"abi_version" yaml:"abi_version"`
	Description  string   `json:"description,omitempty" yaml:"description,omitempty"`
	Capabilities []string `json:"capabilities,omitempty" yaml:"capabilities,omitempty"`
}
