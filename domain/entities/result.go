package entities

import "fmt"

// StackStats summarizes what the pipeline saw across the stack. Per-class
// pixel counts sum to TotalPixels when the guest reports them.
type StackStats struct {
	TotalPixels    int64   `json:"total_pixels"`
	MeanConfidence float64 `json:"mean_confidence"`
	GaussianPixels int64   `json:"gaussian_pixels"`
	PoissonPixels  int64   `json:"poisson_pixels"`
	BimodalPixels  int64   `json:"bimodal_pixels"`
	ArtifactPixels int64   `json:"artifact_pixels"`
}

// ProcessingResult is the outcome of one pipeline invocation.
// Success == false implies ErrorMessage is non-empty and the artifact paths
// are empty; foreign faults never surface as anything other than this record.
type ProcessingResult struct {
	Success           bool        `json:"success"`
	ErrorMessage      string      `json:"error_message,omitempty"`
	FusedImagePath    string      `json:"fused_image_path,omitempty"`
	ConfidenceMapPath string      `json:"confidence_map_path,omitempty"`
	Stats             *StackStats `json:"stats,omitempty"`
}

// ResultFailure creates a failed result with the given message.
func ResultFailure(message string) ProcessingResult {
	return ProcessingResult{Success: false, ErrorMessage: message}
}

// ResultFailuref creates a failed result with a formatted message.
func ResultFailuref(format string, args ...any) ProcessingResult {
	return ResultFailure(fmt.Sprintf(format, args...))
}

// ProgressEvent is a transient progress notification during one invocation.
// Percent is in [0,100] and non-decreasing over the invocation; Status is
// advisory free text and is never parsed.
type ProgressEvent struct {
	Percent int    `json:"percent"`
	Status  string `json:"status,omitempty"`
}
