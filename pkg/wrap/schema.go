package wrap

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaResource = "https://governor.internal/schema/wrap.json"

const schemaDoc = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["wrap_id", "pac_id", "issuer_identity", "proof", "decision", "outcome", "attestation"],
  "properties": {
    "proof": {"type": "object"},
    "decision": {"type": "object"},
    "outcome": {
      "type": "object",
      "required": ["status"]
    },
    "attestation": {
      "type": "object",
      "required": ["issuer_identity", "timestamp"]
    }
  }
}`

var compiledSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(schemaResource, bytes.NewReader([]byte(schemaDoc))); err != nil {
		panic(fmt.Sprintf("wrap: invalid embedded schema: %v", err))
	}
	schema, err := compiler.Compile(schemaResource)
	if err != nil {
		panic(fmt.Sprintf("wrap: schema compile failed: %v", err))
	}
	return schema
}

// ParseCanonicalText parses a WRAP from its canonical JSON text form,
// validating it against the WRAP JSON Schema before decoding into the
// typed structure. This is the "canonical text form" ingestion path
// alongside accepting an already-typed *WRAP record directly.
func ParseCanonicalText(data []byte) (*WRAP, error) {
	var generic interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("wrap: invalid JSON: %w", err)
	}

	if err := compiledSchema.Validate(generic); err != nil {
		return nil, fmt.Errorf("wrap: schema validation failed: %w", err)
	}

	var w WRAP
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("wrap: decode failed: %w", err)
	}

	return &w, nil
}
