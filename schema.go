package codeact

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Schema validates finish values against a JSON Schema and renders
// corrective feedback when they do not conform.
type Schema struct {
	compiled *jsonschema.Schema
	raw      string
}

// CompileSchema parses and compiles a JSON Schema document. An invalid
// schema is a ConfigError.
func CompileSchema(schemaJSON string) (*Schema, error) {
	compiled, err := jsonschema.CompileString("schema.json", schemaJSON)
	if err != nil {
		return nil, &ConfigError{Message: fmt.Sprintf("invalid schema: %v", err)}
	}
	return &Schema{compiled: compiled, raw: schemaJSON}, nil
}

// Raw returns the schema source for prompt injection.
func (s *Schema) Raw() string {
	return s.raw
}

// Mismatch describes the first schema violation found in a candidate
// value.
type Mismatch struct {
	// Path is the JSON location of the failing value.
	Path string
	// Constraint describes the violated constraint.
	Constraint string
	// Actual is the candidate document that failed.
	Actual string
}

// Validate checks a JSON document against the schema. It returns nil when
// the document conforms, a Mismatch describing the first violation
// otherwise, and an error only when the document is not valid JSON.
func (s *Schema) Validate(doc json.RawMessage) (*Mismatch, error) {
	var decoded any
	if err := json.Unmarshal(doc, &decoded); err != nil {
		return nil, &DeserializationError{Key: "finish", Err: err}
	}
	err := s.compiled.Validate(decoded)
	if err == nil {
		return nil, nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return &Mismatch{Path: "/", Constraint: err.Error(), Actual: string(doc)}, nil
	}
	leaf := leafError(ve)
	path := leaf.InstanceLocation
	if path == "" {
		path = "/"
	}
	return &Mismatch{
		Path:       path,
		Constraint: leaf.Message,
		Actual:     string(doc),
	}, nil
}

// leafError descends to the first deepest cause, which points at the
// actual failing value rather than the schema root.
func leafError(ve *jsonschema.ValidationError) *jsonschema.ValidationError {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	return ve
}

// Feedback renders a corrective instruction to send back to the model
// after a mismatch.
func (m *Mismatch) Feedback(schemaRaw string) string {
	var b strings.Builder
	b.WriteString("Your output did not match the expected schema. ")
	b.WriteString(fmt.Sprintf("At %s: %s.\n", m.Path, m.Constraint))
	b.WriteString("You provided:\n")
	b.WriteString(m.Actual)
	b.WriteString("\n\nThe expected schema is:\n")
	b.WriteString(schemaRaw)
	b.WriteString("\nEmit a new <finish> block whose JSON conforms to the schema.")
	return b.String()
}
