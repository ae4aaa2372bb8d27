package codeact

// Config controls a single agent's behavior. Zero values fall back to the
// defaults applied by New.
type Config struct {
	// Model is the backend model identifier. Empty means the backend's
	// default resolution applies.
	Model string

	// MaxIterations bounds the number of model calls per Run. Must be at
	// least 1.
	MaxIterations int

	// Temperature, when set, is forwarded to the backend.
	Temperature *float64

	// MaxTokens, when set, caps the backend response length.
	MaxTokens *int

	// System replaces the default system prompt preamble. The tool
	// documentation and format rules are always appended.
	System string

	// ThinkingTag names the XML tag whose content is surfaced as a
	// thinking event and stripped before parsing. Empty disables it.
	ThinkingTag string

	// OutputLimit truncates execution output recorded into history.
	// Zero means no truncation.
	OutputLimit int

	// DetectRepeats aborts an iteration early when the model emits the
	// same code block twice in a row, injecting a corrective note
	// instead of re-executing.
	DetectRepeats bool
}

const (
	defaultMaxIterations = 10
	defaultThinkingTag   = "thinking"
	defaultOutputLimit   = 10000
)

// DefaultConfig returns the configuration New applies when given a zero
// Config.
func DefaultConfig() Config {
	return Config{
		MaxIterations: defaultMaxIterations,
		ThinkingTag:   defaultThinkingTag,
		OutputLimit:   defaultOutputLimit,
		DetectRepeats: true,
	}
}

// WithModel returns a copy with the model set.
func (c Config) WithModel(model string) Config {
	c.Model = model
	return c
}

// WithMaxIterations returns a copy with the iteration budget set.
func (c Config) WithMaxIterations(n int) Config {
	c.MaxIterations = n
	return c
}

// WithTemperature returns a copy with the sampling temperature set.
func (c Config) WithTemperature(t float64) Config {
	c.Temperature = &t
	return c
}

// WithMaxTokens returns a copy with the response token cap set.
func (c Config) WithMaxTokens(n int) Config {
	c.MaxTokens = &n
	return c
}

// WithSystem returns a copy with the system prompt preamble set.
func (c Config) WithSystem(system string) Config {
	c.System = system
	return c
}

func (c Config) validate() error {
	if c.MaxIterations < 1 {
		return &ConfigError{Message: "MaxIterations must be at least 1"}
	}
	return nil
}
