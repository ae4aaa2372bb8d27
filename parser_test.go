package codeact

import "testing"

func TestParseCodeTag(t *testing.T) {
	p := parseResponse("Let me check.\n<code>\n1 + 2\n</code>", "")
	if p.Kind != ParseCode {
		t.Fatalf("Kind = %v, want ParseCode", p.Kind)
	}
	if p.Code != "1 + 2" {
		t.Errorf("Code = %q, want %q", p.Code, "1 + 2")
	}
}

func TestParseFencedCode(t *testing.T) {
	for _, fence := range []string{"```javascript", "```js", "```"} {
		p := parseResponse(fence+"\nsearch('go')\n```", "")
		if p.Kind != ParseCode {
			t.Fatalf("fence %q: Kind = %v, want ParseCode", fence, p.Kind)
		}
		if p.Code != "search('go')" {
			t.Errorf("fence %q: Code = %q", fence, p.Code)
		}
	}
}

func TestParseFinish(t *testing.T) {
	p := parseResponse(`Done. <finish>{"answer": 42}</finish>`, "")
	if p.Kind != ParseFinish {
		t.Fatalf("Kind = %v, want ParseFinish", p.Kind)
	}
	if p.Finish != `{"answer": 42}` {
		t.Errorf("Finish = %q", p.Finish)
	}
}

func TestParseCodeWinsOverFinish(t *testing.T) {
	p := parseResponse("<code>check()</code>\n<finish>done</finish>", "")
	if p.Kind != ParseCode {
		t.Fatalf("Kind = %v, want ParseCode when both are present", p.Kind)
	}
	if p.Code != "check()" {
		t.Errorf("Code = %q", p.Code)
	}
}

func TestParseFirstCodeBlockWins(t *testing.T) {
	p := parseResponse("<code>first()</code>\n<code>second()</code>", "")
	if p.Code != "first()" {
		t.Errorf("Code = %q, want first block", p.Code)
	}
}

func TestParseNone(t *testing.T) {
	p := parseResponse("I am not sure what to do here.", "")
	if p.Kind != ParseNone {
		t.Fatalf("Kind = %v, want ParseNone", p.Kind)
	}
}

func TestParseThinkingExtracted(t *testing.T) {
	p := parseResponse("<thinking>the answer is in the file</thinking>\n<code>read()</code>", "thinking")
	if p.Thinking != "the answer is in the file" {
		t.Errorf("Thinking = %q", p.Thinking)
	}
	if p.Kind != ParseCode || p.Code != "read()" {
		t.Errorf("Kind/Code = %v/%q, want code after thinking strip", p.Kind, p.Code)
	}
}

func TestParseThinkingTagDisabled(t *testing.T) {
	p := parseResponse("<thinking>hmm</thinking>", "")
	if p.Thinking != "" {
		t.Errorf("Thinking = %q, want empty with no tag configured", p.Thinking)
	}
}

func TestParseCodeInsideThinkingIgnored(t *testing.T) {
	p := parseResponse("<thinking>maybe <code>x()</code> would work</thinking>\n<finish>ok</finish>", "thinking")
	if p.Kind != ParseFinish {
		t.Fatalf("Kind = %v, want ParseFinish; code inside thinking must not execute", p.Kind)
	}
}

func TestParseEmptyCodeBlockFallsThrough(t *testing.T) {
	p := parseResponse("<code>  </code>\n<finish>42</finish>", "")
	if p.Kind != ParseFinish {
		t.Fatalf("Kind = %v, want ParseFinish for empty code block", p.Kind)
	}
}
