// Package sandbox defines the capability-isolated code execution facade the
// codeact agent loop drives, and ships a reference implementation backed by
// the goja JavaScript engine.
//
// Code running inside a Sandbox has no ambient access to the host. The only
// escape hatches are tools registered by the host application and files
// explicitly mounted into the virtual filesystem.
package sandbox

import (
	"context"
	"time"
)

// FailureKind categorizes why an execution attempt failed.
type FailureKind string

const (
	// FailureNone means the execution succeeded.
	FailureNone FailureKind = ""
	// FailureException is a runtime error raised by the executed code or a
	// tool it called.
	FailureException FailureKind = "exception"
	// FailureCompile is a syntax error in the submitted code.
	FailureCompile FailureKind = "compile"
	// FailureInterrupt means the execution budget was exhausted. Guest code
	// cannot catch this.
	FailureInterrupt FailureKind = "interrupt"
	// FailureStackOverflow means the recursion depth cap was hit. Guest
	// code cannot catch this.
	FailureStackOverflow FailureKind = "stack_overflow"
)

// ExecResult holds the outcome of one execution attempt.
type ExecResult struct {
	Code    string      `json:"code"`
	Output  string      `json:"output"`
	Success bool        `json:"success"`
	ErrKind FailureKind `json:"err_kind,omitempty"`
	ErrMsg  string      `json:"err_msg,omitempty"`
}

// Limits bounds a single execution attempt. Zero values mean unlimited.
//
// MaxDuration is the execution budget: the engine is interrupted when it is
// exceeded, and the interrupt is not observable as a catchable error by the
// code being executed. MaxCallStackDepth caps recursion the same way.
type Limits struct {
	MaxDuration       time.Duration `json:"max_duration"`
	MaxCallStackDepth int           `json:"max_call_stack_depth"`
}

// ToolHook observes tool invocations made from inside the sandbox. Both
// callbacks are optional.
type ToolHook struct {
	Called   func(name string, args []any)
	Returned func(name string, result any, err error)
}

// Sandbox is the execution facade the agent loop consumes.
type Sandbox interface {
	// Execute runs code and returns the captured result. Failures are
	// reported in the result, never as a Go error; a cancelled ctx
	// interrupts the attempt and reports FailureInterrupt.
	Execute(ctx context.Context, code string) ExecResult

	// Set injects a variable into the execution scope. Variables persist
	// across Execute calls.
	Set(name string, value any)

	// Mount maps a virtual path inside the sandbox to a host file.
	// Unmounted paths are invisible; reads of them fail inside the sandbox
	// as ordinary execution failures.
	Mount(virtualPath, hostPath string, writable bool)

	// Limit applies resource limits to subsequent executions.
	Limit(limits Limits)

	// RegisterTool exposes a host function to sandboxed code.
	RegisterTool(info ToolInfo, fn ToolFunc)

	// Unregister removes a tool by name. Unknown names are ignored.
	Unregister(name string)

	// Tools returns the registered tool descriptors.
	Tools() []ToolInfo

	// Describe renders human-readable tool documentation for prompt
	// injection.
	Describe() string

	// SetToolHook installs an observer for tool invocations.
	SetToolHook(hook ToolHook)

	// Fork returns an independent sandbox with the same tools, limits,
	// mounts, and a copy of the injected variables, but fresh execution
	// state. Used to run cloned agents in isolation.
	Fork() Sandbox
}
