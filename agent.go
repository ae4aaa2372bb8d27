package codeact

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/martinemde/codeact/llm"
	"github.com/martinemde/codeact/sandbox"
)

// AgentState tracks where an agent is in its lifecycle.
type AgentState int

const (
	// StateIdle means no run is in progress.
	StateIdle AgentState = iota
	// StateIterating means a run is in progress.
	StateIterating
	// StateFinished means the last run produced a finish value.
	StateFinished
	// StateExhausted means the last run hit the iteration budget.
	StateExhausted
	// StateFatal means the last run aborted on a backend failure.
	StateFatal
)

func (s AgentState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateIterating:
		return "iterating"
	case StateFinished:
		return "finished"
	case StateExhausted:
		return "exhausted"
	case StateFatal:
		return "fatal"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// finishHolder records a finish value produced by the finish tool during
// code execution.
type finishHolder struct {
	mu    sync.Mutex
	done  bool
	value json.RawMessage
}

func (h *finishHolder) record(v json.RawMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.done = true
	h.value = v
}

func (h *finishHolder) take() (json.RawMessage, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.done {
		return nil, false
	}
	v := h.value
	h.done = false
	h.value = nil
	return v, true
}

// Agent drives the code-action loop: it prompts the backend, executes the
// code the model emits in its sandbox, feeds the output back, and stops
// when the model finishes or the iteration budget runs out.
//
// An Agent is not safe for concurrent runs; use Map or Clone for
// parallelism.
type Agent struct {
	id      string
	cfg     Config
	backend llm.Backend
	box     sandbox.Sandbox
	bus     *Bus
	schema  *Schema

	shared   *Context
	fromKeys []string
	toKey    string

	finish          *finishHolder
	finishInfo      sandbox.ToolInfo
	finishTransform func(value any) (any, error)

	mu      sync.Mutex
	state   AgentState
	history []llm.Message
	verbose bool
}

// New creates an agent with the default configuration and a fresh
// JavaScript sandbox.
func New(backend llm.Backend) (*Agent, error) {
	return NewWithConfig(backend, DefaultConfig())
}

// NewWithConfig creates an agent with an explicit configuration. Start
// from DefaultConfig and adjust.
func NewWithConfig(backend llm.Backend, cfg Config) (*Agent, error) {
	return NewWithSandbox(backend, cfg, sandbox.NewEngine())
}

// NewWithSandbox creates an agent over a caller-supplied sandbox.
func NewWithSandbox(backend llm.Backend, cfg Config, box sandbox.Sandbox) (*Agent, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if box == nil {
		return nil, &ConfigError{Message: "sandbox must not be nil"}
	}
	a := &Agent{
		id:      uuid.New().String(),
		cfg:     cfg,
		backend: backend,
		box:     box,
		bus:     NewBus(),
		finish:  &finishHolder{},
		finishInfo: sandbox.NewToolInfo("finish", "Record the final answer and end the task.").
			Arg("value", "any", "the final answer").
			WithReturns("string"),
	}
	a.installFinishTool(a.box, a.finish)
	return a, nil
}

// ID returns the agent's unique identifier. Clones get their own.
func (a *Agent) ID() string {
	return a.id
}

// SetBackend replaces the LLM backend.
func (a *Agent) SetBackend(backend llm.Backend) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.backend = backend
}

// WithSchema constrains the finish value to a JSON Schema. Nonconforming
// finish values are sent back to the model with corrective feedback.
func (a *Agent) WithSchema(schemaJSON string) error {
	s, err := CompileSchema(schemaJSON)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.schema = s
	return nil
}

// SetContext binds a shared context for FromContext and ToContext.
func (a *Agent) SetContext(c *Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.shared = c
}

// FromContext names shared keys whose values are injected into the
// system prompt. Keys absent at run time are skipped.
func (a *Agent) FromContext(keys ...string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fromKeys = append(a.fromKeys, keys...)
}

// ToContext names the shared key the finish value is written to on
// success.
func (a *Agent) ToContext(key string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.toKey = key
}

// RegisterTool exposes a host function to sandboxed code.
func (a *Agent) RegisterTool(info sandbox.ToolInfo, fn sandbox.ToolFunc) {
	a.box.RegisterTool(info, fn)
}

// RegisterFinish replaces the finish tool's name and description, for
// domains where "finish" reads wrong (e.g. "submit_answer").
func (a *Agent) RegisterFinish(name, description string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.finishInfo.Name != name {
		a.box.Unregister(a.finishInfo.Name)
	}
	a.finishInfo = sandbox.NewToolInfo(name, description).
		Arg("value", "any", "the final answer").
		WithReturns("string")
	a.installFinishTool(a.box, a.finish)
}

// TransformFinish installs a post-processor applied to the finish tool's
// argument before the value is recorded. A returned error surfaces to
// sandboxed code as a tool error, so the model can react to it.
func (a *Agent) TransformFinish(fn func(value any) (any, error)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.finishTransform = fn
}

// SetVariable injects a variable into the sandbox scope.
func (a *Agent) SetVariable(name string, value any) {
	a.box.Set(name, value)
}

// Sandbox exposes the underlying sandbox for mounts and limits.
func (a *Agent) Sandbox() sandbox.Sandbox {
	return a.box
}

// Subscribe registers an observer for one event kind.
func (a *Agent) Subscribe(kind EventKind, fn Observer) {
	a.bus.Subscribe(kind, fn)
}

// SubscribeAll registers an observer for every event.
func (a *Agent) SubscribeAll(fn Observer) {
	a.bus.SubscribeAll(fn)
}

// Events returns a buffered channel of loop events. Events are dropped,
// not blocked on, when the buffer is full.
func (a *Agent) Events(buffer int) <-chan Event {
	return a.bus.Events(buffer)
}

// Verbose mirrors every event to stderr.
func (a *Agent) Verbose(enable bool) {
	a.mu.Lock()
	already := a.verbose
	a.verbose = enable
	a.mu.Unlock()
	if enable && !already {
		a.bus.SubscribeAll(func(ev Event) {
			a.mu.Lock()
			on := a.verbose
			a.mu.Unlock()
			if !on {
				return
			}
			fmt.Fprintf(os.Stderr, "[%s] %s %s\n", ev.Timestamp.Format("15:04:05"), ev.Kind, eventSummary(ev))
		})
	}
}

func eventSummary(ev Event) string {
	switch {
	case ev.Err != nil:
		return ev.Err.Error()
	case ev.Tool != "":
		return ev.Tool
	case len(ev.Content) > 120:
		return ev.Content[:120] + "..."
	default:
		return ev.Content
	}
}

// State returns the agent's lifecycle state.
func (a *Agent) State() AgentState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// History returns a copy of the conversation so far.
func (a *Agent) History() []llm.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]llm.Message, len(a.history))
	copy(out, a.history)
	return out
}

// ClearHistory discards the conversation. The sandbox keeps its state;
// fork a fresh agent for full isolation.
func (a *Agent) ClearHistory() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = nil
}

// Run executes the loop for a task and returns the finish value as JSON.
// A plain-text finish value is returned as a JSON string.
func (a *Agent) Run(ctx context.Context, task string) (json.RawMessage, error) {
	a.mu.Lock()
	if a.state == StateIterating {
		a.mu.Unlock()
		return nil, &ConfigError{Message: "agent is already running"}
	}
	if a.backend == nil {
		a.mu.Unlock()
		return nil, &ConfigError{Message: "no backend configured"}
	}
	a.state = StateIterating
	a.history = []llm.Message{
		llm.SystemMessage(a.systemPromptLocked()),
		llm.UserMessage(task),
	}
	a.finish.take()
	a.mu.Unlock()

	raw, err := a.iterate(ctx)

	a.mu.Lock()
	switch {
	case err == nil:
		a.state = StateFinished
	default:
		if _, ok := err.(*IterationLimitError); ok {
			a.state = StateExhausted
		} else {
			a.state = StateFatal
		}
	}
	a.mu.Unlock()
	return raw, err
}

// iterate runs the main loop against the current history.
func (a *Agent) iterate(ctx context.Context) (json.RawMessage, error) {
	a.installHooks()
	var repeats repeatDetector

	for i := 1; i <= a.cfg.MaxIterations; i++ {
		if err := ctx.Err(); err != nil {
			a.bus.Emit(Event{Kind: EventError, Iteration: i, Err: err})
			return nil, &BackendError{Err: err}
		}
		a.bus.Emit(Event{Kind: EventIterationStart, Iteration: i, Total: a.cfg.MaxIterations})

		resp, err := a.complete(ctx)
		if err != nil {
			a.bus.Emit(Event{Kind: EventError, Iteration: i, Err: err})
			return nil, &BackendError{Err: err}
		}
		a.appendMessage(llm.AssistantMessage(resp.Content))
		a.bus.Emit(Event{Kind: EventLLMResponse, Iteration: i, Content: resp.Content, Tokens: resp.TokensUsed})

		parsed := parseResponse(resp.Content, a.cfg.ThinkingTag)
		if parsed.Thinking != "" {
			a.bus.Emit(Event{Kind: EventThinking, Iteration: i, Content: parsed.Thinking})
		}

		switch parsed.Kind {
		case ParseCode:
			a.bus.Emit(Event{Kind: EventCodeGenerated, Iteration: i, Content: parsed.Code})

			if a.cfg.DetectRepeats && repeats.Check(parsed.Code) {
				a.appendMessage(llm.UserMessage("You emitted the same code as the previous iteration. It was not re-executed. Try a different approach, or emit a <finish> block if you already have the answer."))
				continue
			}

			result := a.box.Execute(ctx, parsed.Code)
			a.bus.Emit(Event{Kind: EventCodeExecuted, Iteration: i, Content: result.Output, Success: result.Success})

			if value, ok := a.finish.take(); ok {
				raw, retry := a.acceptFinish(i, value)
				if retry != "" {
					a.appendMessage(llm.UserMessage(retry))
					continue
				}
				return raw, nil
			}

			a.appendMessage(llm.ToolMessage(truncateOutput(result.Output, a.cfg.OutputLimit)))

		case ParseFinish:
			raw, retry := a.acceptFinish(i, finishToJSON(parsed.Finish))
			if retry != "" {
				a.appendMessage(llm.UserMessage(retry))
				continue
			}
			return raw, nil

		case ParseNone:
			a.appendMessage(llm.UserMessage("Your response contained neither a code block nor a finish block. Emit exactly one <code> block to act, or a <finish> block when you have the answer."))
		}
	}

	err := &IterationLimitError{Iterations: a.cfg.MaxIterations, History: a.History()}
	a.bus.Emit(Event{Kind: EventError, Err: err})
	return nil, err
}

// acceptFinish validates a candidate finish value. It returns the value
// on success, or a non-empty corrective message when the model should
// try again.
func (a *Agent) acceptFinish(iteration int, value json.RawMessage) (json.RawMessage, string) {
	a.mu.Lock()
	schema := a.schema
	toKey := a.toKey
	shared := a.shared
	a.mu.Unlock()

	if schema != nil {
		mismatch, err := schema.Validate(value)
		if err != nil {
			return nil, "Your finish value was not valid JSON: " + err.Error() + "\nEmit a new <finish> block containing valid JSON conforming to the schema."
		}
		if mismatch != nil {
			return nil, mismatch.Feedback(schema.Raw())
		}
	}

	if shared != nil && toKey != "" {
		shared.SetRaw(toKey, value)
	}
	a.bus.Emit(Event{Kind: EventFinish, Iteration: iteration, Content: string(value)})
	return value, ""
}

// complete issues one backend call with the current history.
func (a *Agent) complete(ctx context.Context) (*llm.Response, error) {
	a.mu.Lock()
	req := llm.Request{
		Model:       a.cfg.Model,
		Messages:    make([]llm.Message, len(a.history)),
		Temperature: a.cfg.Temperature,
		MaxTokens:   a.cfg.MaxTokens,
	}
	copy(req.Messages, a.history)
	backend := a.backend
	a.mu.Unlock()

	a.bus.Emit(Event{Kind: EventLLMRequest, Content: lastContent(req.Messages), Messages: len(req.Messages)})
	return backend.Complete(ctx, req)
}

func lastContent(msgs []llm.Message) string {
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1].Content
}

func (a *Agent) appendMessage(m llm.Message) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = append(a.history, m)
}

// Chat sends a conversational turn, preserving history across calls. Code
// blocks in replies are executed and their output fed back; the exchange
// ends when the model answers in plain text or with a finish block.
func (a *Agent) Chat(ctx context.Context, message string) (string, error) {
	a.mu.Lock()
	if a.backend == nil {
		a.mu.Unlock()
		return "", &ConfigError{Message: "no backend configured"}
	}
	if len(a.history) == 0 {
		a.history = []llm.Message{llm.SystemMessage(a.systemPromptLocked())}
	}
	a.history = append(a.history, llm.UserMessage(message))
	a.mu.Unlock()

	a.installHooks()
	for i := 1; i <= a.cfg.MaxIterations; i++ {
		resp, err := a.complete(ctx)
		if err != nil {
			return "", &BackendError{Err: err}
		}
		a.appendMessage(llm.AssistantMessage(resp.Content))

		parsed := parseResponse(resp.Content, a.cfg.ThinkingTag)
		switch parsed.Kind {
		case ParseFinish:
			return parsed.Finish, nil
		case ParseCode:
			result := a.box.Execute(ctx, parsed.Code)
			a.bus.Emit(Event{Kind: EventCodeExecuted, Iteration: i, Content: result.Output, Success: result.Success})
			if value, ok := a.finish.take(); ok {
				return string(value), nil
			}
			a.appendMessage(llm.ToolMessage(truncateOutput(result.Output, a.cfg.OutputLimit)))
		default:
			return resp.Content, nil
		}
	}
	return "", &IterationLimitError{Iterations: a.cfg.MaxIterations, History: a.History()}
}

// systemPromptLocked builds the system prompt. Caller holds a.mu.
func (a *Agent) systemPromptLocked() string {
	var schemaRaw string
	if a.schema != nil {
		schemaRaw = a.schema.Raw()
	}
	var blocks map[string]string
	if a.shared != nil && len(a.fromKeys) > 0 {
		blocks = make(map[string]string)
		for _, key := range a.fromKeys {
			if data, ok := a.shared.GetRaw(key); ok {
				blocks[key] = string(data)
			}
		}
	}
	return buildSystemPrompt(a.cfg.System, a.box.Describe(), schemaRaw, blocks, a.cfg.ThinkingTag)
}

// installHooks wires sandbox tool invocations to the event bus.
func (a *Agent) installHooks() {
	a.box.SetToolHook(sandbox.ToolHook{
		Called: func(name string, args []any) {
			a.bus.Emit(Event{Kind: EventToolCall, Tool: name, Args: args})
		},
		Returned: func(name string, result any, err error) {
			a.bus.Emit(Event{Kind: EventToolResult, Tool: name, Result: result, Err: err})
		},
	})
}

// installFinishTool binds the finish tool on a sandbox to a holder.
func (a *Agent) installFinishTool(box sandbox.Sandbox, holder *finishHolder) {
	box.RegisterTool(a.finishInfo, func(args []any) (any, error) {
		var v any
		if len(args) > 0 {
			v = args[0]
		}
		a.mu.Lock()
		transform := a.finishTransform
		a.mu.Unlock()
		if transform != nil {
			var err error
			if v, err = transform(v); err != nil {
				return nil, fmt.Errorf("finish rejected: %w", err)
			}
		}
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("finish value is not serializable: %w", err)
		}
		holder.record(data)
		return finishMarker + " answer recorded", nil
	})
}

// Clone returns an independent agent sharing the configuration, backend,
// schema, shared context bindings, and event bus, over a forked sandbox.
func (a *Agent) Clone() *Agent {
	a.mu.Lock()
	defer a.mu.Unlock()

	c := &Agent{
		id:              uuid.New().String(),
		cfg:             a.cfg,
		backend:         a.backend,
		box:             a.box.Fork(),
		bus:             a.bus,
		schema:          a.schema,
		shared:          a.shared,
		fromKeys:        append([]string(nil), a.fromKeys...),
		toKey:           a.toKey,
		finish:          &finishHolder{},
		finishInfo:      a.finishInfo,
		finishTransform: a.finishTransform,
	}
	// The forked sandbox carries the parent's finish tool bound to the
	// parent's holder; rebind it to the clone's.
	c.installFinishTool(c.box, c.finish)
	return c
}

// finishToJSON normalizes finish block content: JSON passes through,
// anything else becomes a JSON string.
func finishToJSON(s string) json.RawMessage {
	if json.Valid([]byte(s)) {
		return json.RawMessage(s)
	}
	data, _ := json.Marshal(s)
	return data
}

// RunAs runs the agent and decodes the finish value into T.
func RunAs[T any](ctx context.Context, a *Agent, task string) (T, error) {
	var zero T
	raw, err := a.Run(ctx, task)
	if err != nil {
		return zero, err
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return zero, &DeserializationError{Key: "finish", Err: err}
	}
	return v, nil
}
