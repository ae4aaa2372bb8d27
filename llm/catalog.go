package llm

import "strings"

// ModelInfo describes a known model in the catalog.
type ModelInfo struct {
	ID            string   `json:"id"`
	Provider      string   `json:"provider"`
	ContextWindow int      `json:"context_window"`
	MaxOutput     int      `json:"max_output,omitempty"`
	Aliases       []string `json:"aliases,omitempty"`
}

// Models is the built-in model catalog.
var Models = []ModelInfo{
	// Anthropic
	{ID: "claude-opus-4-6", Provider: "anthropic", ContextWindow: 200000, MaxOutput: 32768, Aliases: []string{"opus", "claude-opus"}},
	{ID: "claude-sonnet-4-5", Provider: "anthropic", ContextWindow: 200000, MaxOutput: 16384, Aliases: []string{"sonnet", "claude-sonnet"}},

	// OpenAI
	{ID: "gpt-5.2", Provider: "openai", ContextWindow: 1047576, MaxOutput: 32768, Aliases: []string{"gpt5"}},
	{ID: "gpt-5.2-mini", Provider: "openai", ContextWindow: 1047576, MaxOutput: 16384, Aliases: []string{"gpt5-mini"}},
	{ID: "gpt-4o", Provider: "openai", ContextWindow: 128000, MaxOutput: 16384},
	{ID: "gpt-4o-mini", Provider: "openai", ContextWindow: 128000, MaxOutput: 16384},

	// Groq-hosted open models.
	{ID: "llama-3.3-70b-versatile", Provider: "groq", ContextWindow: 128000, MaxOutput: 32768, Aliases: []string{"llama-3.3-70b"}},
}

// GetModelInfo returns the catalog entry for a model, or nil if unknown.
func GetModelInfo(modelID string) *ModelInfo {
	for i := range Models {
		if Models[i].ID == modelID {
			return &Models[i]
		}
		for _, alias := range Models[i].Aliases {
			if alias == modelID {
				return &Models[i]
			}
		}
	}
	return nil
}

// GetLatestModel returns the first (newest) catalog model for a provider.
func GetLatestModel(provider string) *ModelInfo {
	for i := range Models {
		if Models[i].Provider == provider {
			return &Models[i]
		}
	}
	return nil
}

// InferProvider guesses the provider for a model not in the catalog from
// well-known name prefixes. Returns "" when no guess is possible.
func InferProvider(modelID string) string {
	if info := GetModelInfo(modelID); info != nil {
		return info.Provider
	}
	switch {
	case strings.HasPrefix(modelID, "claude"):
		return "anthropic"
	case strings.HasPrefix(modelID, "gpt") || strings.HasPrefix(modelID, "o1") || strings.HasPrefix(modelID, "o3"):
		return "openai"
	case strings.HasPrefix(modelID, "llama") || strings.HasPrefix(modelID, "mixtral"):
		return "groq"
	default:
		return ""
	}
}
