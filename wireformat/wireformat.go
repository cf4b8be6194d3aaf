// Package wireformat defines the JSON wire shapes and entry-point names of
// the BayesianAstro module ABI. These must remain stable and backward
// compatible: they are the contract between this host and the pipeline
// module, and both sides move together.
package wireformat

import "github.com/scarter4work/bayesianastro/domain/entities"

// Exported entry points of the pipeline module, called by name.
const (
	EntryProcessStack = "process_stack"
	EntryValidateFits = "validate_fits"
	EntryImageDims    = "image_dims"
	EntryGPUAvailable = "gpu_available"
	EntryGPUInfo      = "gpu_info"
)

// ModuleName is the required name of the pipeline module; a module whose
// manifest declares any other name is rejected at load.
const ModuleName = "BayesianAstro"

// ABIVersion is the wire protocol revision this host speaks.
const ABIVersion = 1

// ProcessResponse is the wire format of a process_stack response.
type ProcessResponse struct {
	Error *entities.ErrorDetail `json:"error,omitempty"`
	Stats *entities.StackStats  `json:"stats,omitempty"`
	OK    bool                  `json:"ok"`
}

// ProgressReport is the wire format of a report_progress host call
// (guest to host).
type ProgressReport struct {
	Status  string `json:"status,omitempty"`
	Percent int    `json:"percent"`
}

// LogReport is the wire format of a log_message host call (guest to host).
type LogReport struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}
