package codeact

import "fmt"

// truncateOutput bounds execution output recorded into history, keeping
// the head and tail so both the start of the output and any trailing
// error remain visible.
func truncateOutput(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	head := limit / 2
	tail := limit - head
	omitted := len(s) - limit
	return s[:head] + fmt.Sprintf("\n... [%d bytes truncated] ...\n", omitted) + s[len(s)-tail:]
}
