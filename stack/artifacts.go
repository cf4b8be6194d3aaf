package stack

import "path/filepath"

// Artifact naming is a contract the pipeline module honors, not something
// the host re-queries from the foreign side. Both sides of the contract
// move together: do not change these without changing the module.
const (
	suffixFused      = "_fused"
	suffixConfidence = "_confidence"
	artifactExt      = ".fits"
)

// FusedImagePath returns where the pipeline writes the fused image for a
// given output directory and prefix.
func FusedImagePath(outputDir, outputPrefix string) string {
	return filepath.Join(outputDir, outputPrefix+suffixFused+artifactExt)
}

// ConfidenceMapPath returns where the pipeline writes the confidence map
// when one is requested.
func ConfidenceMapPath(outputDir, outputPrefix string) string {
	return filepath.Join(outputDir, outputPrefix+suffixConfidence+artifactExt)
}

// OutputStem returns the path stem the processing entry point receives;
// the module derives its artifact paths from it with the fixed suffixes.
func OutputStem(outputDir, outputPrefix string) string {
	return filepath.Join(outputDir, outputPrefix)
}
