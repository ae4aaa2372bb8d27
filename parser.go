package codeact

import (
	"regexp"
	"strings"
)

// ParseKind classifies what a model response contained.
type ParseKind int

const (
	// ParseNone means the response held neither code nor a finish block.
	ParseNone ParseKind = iota
	// ParseCode means a code block was found and should be executed.
	ParseCode
	// ParseFinish means a finish block was found and the run is done.
	ParseFinish
)

// Parsed is the result of extracting structure from a model response.
// When a response carries both a code block and a finish block, code wins:
// the model gets to see the execution output before committing to an
// answer.
type Parsed struct {
	Kind     ParseKind
	Code     string
	Finish   string
	Thinking string
}

var (
	codeRe   = regexp.MustCompile("(?s)(?:<code>\\s*(.*?)</code>|```(?:javascript|js)?[ \t]*\n(.*?)```)")
	finishRe = regexp.MustCompile(`(?s)<finish>\s*(.*?)</finish>`)
)

// parseResponse extracts thinking, code, and finish content from a raw
// model response. thinkingTag may be empty to disable thinking
// extraction. The first code block wins when several are present.
func parseResponse(text, thinkingTag string) Parsed {
	var p Parsed

	if thinkingTag != "" {
		re := regexp.MustCompile(`(?s)<` + regexp.QuoteMeta(thinkingTag) + `>\s*(.*?)</` + regexp.QuoteMeta(thinkingTag) + `>`)
		if m := re.FindStringSubmatch(text); m != nil {
			p.Thinking = strings.TrimSpace(m[1])
			text = re.ReplaceAllString(text, "")
		}
	}

	if m := codeRe.FindStringSubmatch(text); m != nil {
		code := m[1]
		if code == "" {
			code = m[2]
		}
		code = strings.TrimSpace(code)
		if code != "" {
			p.Kind = ParseCode
			p.Code = code
			return p
		}
	}

	if m := finishRe.FindStringSubmatch(text); m != nil {
		p.Kind = ParseFinish
		p.Finish = strings.TrimSpace(m[1])
		return p
	}

	p.Kind = ParseNone
	return p
}
