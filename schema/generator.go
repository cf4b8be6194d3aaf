// Package schema generates JSON schemas for the fusion parameter set.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/scarter4work/bayesianastro/domain/entities"
)

// Generate creates a JSON schema from a Go struct.
// It uses the `invopop/jsonschema` library to reflect on the struct
// and generate a standard JSON Schema (Draft 2020-12).
func Generate(v interface{}) ([]byte, error) {
	reflector := jsonschema.Reflector{
		ExpandedStruct: true, // Expand struct definitions inline
	}
	schema := reflector.Reflect(v)

	jsonBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}

	return jsonBytes, nil
}

// ProcessingConfigSchema returns the schema for the pipeline parameter set,
// suitable for validating configuration documents before a run.
func ProcessingConfigSchema() ([]byte, error) {
	return Generate(&entities.ProcessingConfig{})
}
