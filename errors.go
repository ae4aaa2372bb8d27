package codeact

import (
	"fmt"

	"github.com/martinemde/codeact/llm"
)

// ConfigError indicates invalid agent configuration detected before the
// loop starts, such as a non-positive iteration budget or a schema that
// does not compile.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return "config error: " + e.Message
}

// BackendError wraps a failure from the LLM backend. The loop aborts on
// the first backend failure; retries belong to the backend layer.
type BackendError struct {
	Err error
}

func (e *BackendError) Error() string {
	return "backend error: " + e.Err.Error()
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// IterationLimitError is returned when the loop exhausts its iteration
// budget without the model producing a finish block. History carries the
// full conversation for inspection.
type IterationLimitError struct {
	Iterations int
	History    []llm.Message
}

func (e *IterationLimitError) Error() string {
	return fmt.Sprintf("no finish block after %d iterations", e.Iterations)
}

// DeserializationError indicates a context value could not be decoded
// into the requested type.
type DeserializationError struct {
	Key string
	Err error
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("context key %q: %v", e.Key, e.Err)
}

func (e *DeserializationError) Unwrap() error {
	return e.Err
}
