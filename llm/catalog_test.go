package llm

import "testing"

func TestGetModelInfoByIDAndAlias(t *testing.T) {
	if info := GetModelInfo("gpt-4o"); info == nil || info.Provider != "openai" {
		t.Errorf("GetModelInfo(gpt-4o) = %+v", info)
	}
	if info := GetModelInfo("sonnet"); info == nil || info.ID != "claude-sonnet-4-5" {
		t.Errorf("GetModelInfo(sonnet) = %+v", info)
	}
	if info := GetModelInfo("no-such-model"); info != nil {
		t.Errorf("GetModelInfo(no-such-model) = %+v, want nil", info)
	}
}

func TestGetLatestModel(t *testing.T) {
	info := GetLatestModel("anthropic")
	if info == nil || info.Provider != "anthropic" {
		t.Fatalf("GetLatestModel(anthropic) = %+v", info)
	}
	if GetLatestModel("unknown-provider") != nil {
		t.Error("GetLatestModel(unknown-provider) != nil")
	}
}

func TestInferProvider(t *testing.T) {
	tests := map[string]string{
		"claude-opus-4-6":    "anthropic",
		"claude-next-thing":  "anthropic",
		"gpt-4o-mini":        "openai",
		"o3-mini":            "openai",
		"llama-3.3-70b":      "groq",
		"mixtral-8x7b":       "groq",
		"completely-unknown": "",
	}
	for model, want := range tests {
		if got := InferProvider(model); got != want {
			t.Errorf("InferProvider(%q) = %q, want %q", model, got, want)
		}
	}
}
