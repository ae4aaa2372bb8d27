package codeact

import (
	"sort"
	"strings"
)

// finishMarker prefixes the finish tool's return value so the model sees
// that its answer was recorded.
const finishMarker = "___FINISH___:"

const defaultSystem = `You are a helpful assistant that solves tasks by writing JavaScript code.`

// buildSystemPrompt assembles the full system prompt: the preamble, the
// tool documentation, the output format rules, and any shared context
// values pulled in with FromContext.
func buildSystemPrompt(preamble, toolDocs, schemaRaw string, contextBlocks map[string]string, thinkingTag string) string {
	if preamble == "" {
		preamble = defaultSystem
	}

	var b strings.Builder
	b.WriteString(preamble)
	b.WriteString("\n\n")

	if toolDocs != "" {
		b.WriteString("<functions>\nYou can call these functions from your code:\n\n")
		b.WriteString(toolDocs)
		b.WriteString("\n</functions>\n\n")
	}

	b.WriteString("<format>\n")
	b.WriteString("To act, emit exactly one JavaScript code block:\n\n")
	b.WriteString("<code>\n// your code here\n</code>\n\n")
	b.WriteString("The code runs in a persistent sandbox: variables survive between\n")
	b.WriteString("iterations. The value of the last expression and anything passed to\n")
	b.WriteString("print() is returned to you as the execution output.\n\n")
	b.WriteString("When you have the final answer, emit a finish block instead:\n\n")
	if schemaRaw != "" {
		b.WriteString("<finish>\n{\"json\": \"matching the schema below\"}\n</finish>\n\n")
		b.WriteString("The finish value must be JSON conforming to this schema:\n")
		b.WriteString(schemaRaw)
		b.WriteString("\n")
	} else {
		b.WriteString("<finish>\nyour answer\n</finish>\n")
	}
	b.WriteString("</format>\n\n")

	b.WriteString("<rules>\n")
	b.WriteString("- Emit at most one code block per response.\n")
	b.WriteString("- Never emit a code block and a finish block in the same response.\n")
	b.WriteString("- Inspect execution output before finishing.\n")
	if thinkingTag != "" {
		b.WriteString("- You may reason inside <" + thinkingTag + "> tags before acting.\n")
	}
	b.WriteString("</rules>")

	if len(contextBlocks) > 0 {
		b.WriteString("\n\n<context>\nShared values from previous work:\n")
		for _, key := range sortedKeys(contextBlocks) {
			b.WriteString("\n=== " + key + " ===\n")
			b.WriteString(contextBlocks[key])
			b.WriteString("\n")
		}
		b.WriteString("</context>")
	}

	return b.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
