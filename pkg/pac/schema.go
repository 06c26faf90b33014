package pac

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaResource = "https://governor.internal/schema/pac.json"

const schemaDoc = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": [
    "pac_id", "issuer", "target_identity", "mode", "discipline",
    "objective", "execution_plan", "required_deliverables",
    "constraints", "success_criteria", "dispatch",
    "wrap_obligation", "ber_obligation", "final_state"
  ],
  "properties": {
    "pac_id": {"type": "string"},
    "dispatch": {
      "type": "object",
      "required": ["target_identity", "role", "lane", "mode"]
    }
  }
}`

var compiledSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(schemaResource, bytes.NewReader([]byte(schemaDoc))); err != nil {
		panic(fmt.Sprintf("pac: invalid embedded schema: %v", err))
	}
	schema, err := compiler.Compile(schemaResource)
	if err != nil {
		panic(fmt.Sprintf("pac: schema compile failed: %v", err))
	}
	return schema
}

// ParseCanonicalText parses a PAC from its canonical JSON text form (as
// opposed to an already-typed record), validating it against the PAC JSON
// Schema before decoding into the typed structure.
func ParseCanonicalText(data []byte) (*PAC, error) {
	var generic interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("pac: invalid JSON: %w", err)
	}

	if err := compiledSchema.Validate(generic); err != nil {
		return nil, fmt.Errorf("pac: schema validation failed: %w", err)
	}

	var p PAC
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("pac: decode failed: %w", err)
	}

	return &p, nil
}
