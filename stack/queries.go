package stack

import (
	"context"

	"github.com/scarter4work/bayesianastro/domain/entities"
	"github.com/scarter4work/bayesianastro/foreignval"
	"github.com/scarter4work/bayesianastro/wireformat"
)

// The auxiliary queries degrade to safe defaults instead of raising: a
// probe that cannot answer is a "no", never a crash. This suppression is
// local to these call sites and is not applied to ProcessStack.

// GPUAvailable reports whether the runtime sees a usable GPU. It returns
// false when the runtime is not ready or the probe itself faults.
func (s *Service) GPUAvailable(ctx context.Context) bool {
	if !s.eng.Ready() {
		return false
	}
	data, err := s.eng.Backend().Call(ctx, wireformat.EntryGPUAvailable, nil)
	if err != nil {
		return false
	}
	v, err := foreignval.Decode(data)
	if err != nil {
		return false
	}
	available, err := v.AsBool()
	if err != nil {
		return false
	}
	return available
}

// GPUInfo returns the device name the runtime reports, "No GPU available"
// when there is none, and "GPU info unavailable" when the probe faults.
func (s *Service) GPUInfo(ctx context.Context) string {
	if !s.eng.Ready() || !s.GPUAvailable(ctx) {
		return "No GPU available"
	}
	data, err := s.eng.Backend().Call(ctx, wireformat.EntryGPUInfo, nil)
	if err != nil {
		return "GPU info unavailable"
	}
	v, err := foreignval.Decode(data)
	if err != nil {
		return "GPU info unavailable"
	}
	name, err := v.AsString()
	if err != nil {
		return "GPU info unavailable"
	}
	return name
}

// ValidateFile asks the runtime whether the file parses as a valid frame.
// Any foreign-side error is treated as invalid.
func (s *Service) ValidateFile(ctx context.Context, path string) bool {
	if !s.eng.Ready() {
		return false
	}
	payload, err := foreignval.Encode(wireformat.PathRequestValue(path))
	if err != nil {
		return false
	}
	data, err := s.eng.Backend().Call(ctx, wireformat.EntryValidateFits, payload)
	if err != nil {
		return false
	}
	v, err := foreignval.Decode(data)
	if err != nil {
		return false
	}
	valid, err := v.AsBool()
	if err != nil {
		return false
	}
	return valid
}

// ValidateFiles reports whether every frame in the manifest validates.
// An empty manifest has nothing usable in it and reports false.
func (s *Service) ValidateFiles(ctx context.Context, files entities.FileManifest) bool {
	if files.IsEmpty() {
		return false
	}
	for _, path := range files {
		if !s.ValidateFile(ctx, path) {
			return false
		}
	}
	return true
}

// ImageDimensions returns the frame's width and height, or (0,0) on any
// failure.
func (s *Service) ImageDimensions(ctx context.Context, path string) (width, height int) {
	if !s.eng.Ready() {
		return 0, 0
	}
	payload, err := foreignval.Encode(wireformat.PathRequestValue(path))
	if err != nil {
		return 0, 0
	}
	data, err := s.eng.Backend().Call(ctx, wireformat.EntryImageDims, payload)
	if err != nil {
		return 0, 0
	}
	v, err := foreignval.Decode(data)
	if err != nil {
		return 0, 0
	}
	dims, err := v.AsTuple(2)
	if err != nil {
		return 0, 0
	}
	w, err := dims[0].AsInt()
	if err != nil {
		return 0, 0
	}
	h, err := dims[1].AsInt()
	if err != nil {
		return 0, 0
	}
	return int(w), int(h)
}
