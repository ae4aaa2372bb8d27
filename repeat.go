package codeact

import "strings"

// repeatDetector spots the model emitting the same code block twice in a
// row, which almost always means it is stuck in a loop.
type repeatDetector struct {
	last string
}

// Check reports whether code duplicates the previous code block, and
// records it for the next call. Whitespace differences do not count.
func (d *repeatDetector) Check(code string) bool {
	normalized := strings.Join(strings.Fields(code), " ")
	repeated := normalized != "" && normalized == d.last
	d.last = normalized
	return repeated
}

// Reset clears the detector between runs.
func (d *repeatDetector) Reset() {
	d.last = ""
}
