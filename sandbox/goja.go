package sandbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
)

const budgetExceededMsg = "execution budget exceeded"

// mount maps a virtual path to a host file.
type mount struct {
	virtualPath string
	hostPath    string
	writable    bool
}

// Engine is a goja-backed Sandbox executing JavaScript. Variables persist
// between executions; tools appear as global functions; print() output is
// captured per execution attempt.
//
// An Engine is not reentrant: Execute serializes concurrent callers.
type Engine struct {
	vm       *goja.Runtime
	registry *Registry
	limits   Limits
	mounts   []mount
	vars     map[string]any
	hook     ToolHook
	prints   []string
	mu       sync.Mutex
}

// NewEngine creates an Engine with no tools registered.
func NewEngine() *Engine {
	return newEngine(NewRegistry(), Limits{}, nil, nil)
}

func newEngine(reg *Registry, limits Limits, mounts []mount, vars map[string]any) *Engine {
	e := &Engine{
		vm:       goja.New(),
		registry: reg,
		limits:   limits,
		mounts:   append([]mount(nil), mounts...),
		vars:     make(map[string]any),
	}

	e.installBuiltins()
	if limits.MaxCallStackDepth > 0 {
		e.vm.SetMaxCallStackSize(limits.MaxCallStackDepth)
	}
	for _, info := range reg.Infos() {
		e.installTool(info.Name)
	}
	for name, value := range vars {
		e.Set(name, value)
	}
	return e
}

// Execute runs code and returns the captured result.
func (e *Engine) Execute(ctx context.Context, code string) ExecResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.prints = e.prints[:0]

	// Watchdog for the execution budget and ctx cancellation. Interrupts
	// abort the attempt without being catchable by guest code.
	done := make(chan struct{})
	var timerC <-chan time.Time
	if e.limits.MaxDuration > 0 {
		timer := time.NewTimer(e.limits.MaxDuration)
		defer timer.Stop()
		timerC = timer.C
	}
	go func() {
		select {
		case <-done:
		case <-timerC:
			e.vm.Interrupt(budgetExceededMsg)
		case <-ctx.Done():
			e.vm.Interrupt("execution cancelled")
		}
	}()

	value, err := e.vm.RunString(code)
	close(done)
	e.vm.ClearInterrupt()

	result := ExecResult{Code: code}
	if err != nil {
		result.ErrKind, result.ErrMsg = classifyError(err)
		result.Output = "Error: " + result.ErrMsg
		return result
	}

	var parts []string
	if len(e.prints) > 0 {
		parts = append(parts, strings.Join(e.prints, "\n"))
	}
	if value != nil && !goja.IsUndefined(value) && !goja.IsNull(value) {
		parts = append(parts, "=> "+renderValue(value.Export()))
	}

	result.Success = true
	if len(parts) == 0 {
		result.Output = "Code executed successfully (no output)."
	} else {
		result.Output = strings.Join(parts, "\n")
	}
	return result
}

// Set injects a variable into the execution scope.
func (e *Engine) Set(name string, value any) {
	e.vars[name] = value
	_ = e.vm.Set(name, value)
}

// Mount maps a virtual path to a host file.
func (e *Engine) Mount(virtualPath, hostPath string, writable bool) {
	e.mounts = append(e.mounts, mount{virtualPath: virtualPath, hostPath: hostPath, writable: writable})
}

// Limit applies resource limits to subsequent executions.
func (e *Engine) Limit(limits Limits) {
	e.limits = limits
	if limits.MaxCallStackDepth > 0 {
		e.vm.SetMaxCallStackSize(limits.MaxCallStackDepth)
	}
}

// RegisterTool exposes a host function to sandboxed code.
func (e *Engine) RegisterTool(info ToolInfo, fn ToolFunc) {
	e.registry.Register(info, fn)
	e.installTool(info.Name)
}

// Unregister removes a tool. Calls to its leftover global binding fail
// with an unknown tool error.
func (e *Engine) Unregister(name string) {
	e.registry.Unregister(name)
}

// Tools returns the registered tool descriptors.
func (e *Engine) Tools() []ToolInfo {
	return e.registry.Infos()
}

// Describe renders tool documentation for prompt injection.
func (e *Engine) Describe() string {
	return e.registry.Describe()
}

// SetToolHook installs an observer for tool invocations.
func (e *Engine) SetToolHook(hook ToolHook) {
	e.hook = hook
}

// Fork returns an independent Engine with the same tools, limits, mounts,
// and a copy of the injected variables.
func (e *Engine) Fork() Sandbox {
	return newEngine(e.registry.Clone(), e.limits, e.mounts, e.vars)
}

// installTool binds a registered tool as a global function in the VM.
// Lookup goes through the registry at call time so re-registration under
// the same name takes effect without rebinding.
func (e *Engine) installTool(name string) {
	_ = e.vm.Set(name, func(call goja.FunctionCall) goja.Value {
		_, fn, ok := e.registry.Get(name)
		if !ok {
			panic(e.vm.NewGoError(fmt.Errorf("unknown tool: %s", name)))
		}

		args := make([]any, len(call.Arguments))
		for i, a := range call.Arguments {
			args[i] = a.Export()
		}

		if e.hook.Called != nil {
			e.hook.Called(name, args)
		}
		result, err := fn(args)
		if e.hook.Returned != nil {
			e.hook.Returned(name, result, err)
		}
		if err != nil {
			panic(e.vm.NewGoError(fmt.Errorf("tool %s: %w", name, err)))
		}
		return e.vm.ToValue(result)
	})
}

// installBuiltins sets up print/console capture and mounted file access.
func (e *Engine) installBuiltins() {
	printFn := func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, a := range call.Arguments {
			parts[i] = plainValue(a.Export())
		}
		e.prints = append(e.prints, strings.Join(parts, " "))
		return goja.Undefined()
	}
	_ = e.vm.Set("print", printFn)

	console := e.vm.NewObject()
	_ = console.Set("log", printFn)
	_ = e.vm.Set("console", console)

	_ = e.vm.Set("read_file", func(call goja.FunctionCall) goja.Value {
		path := call.Argument(0).String()
		m, ok := e.findMount(path)
		if !ok {
			panic(e.vm.NewGoError(fmt.Errorf("read_file: %s: no such file (not mounted)", path)))
		}
		data, err := os.ReadFile(m.hostPath)
		if err != nil {
			panic(e.vm.NewGoError(fmt.Errorf("read_file: %s: %w", path, err)))
		}
		return e.vm.ToValue(string(data))
	})

	_ = e.vm.Set("write_file", func(call goja.FunctionCall) goja.Value {
		path := call.Argument(0).String()
		content := call.Argument(1).String()
		m, ok := e.findMount(path)
		if !ok {
			panic(e.vm.NewGoError(fmt.Errorf("write_file: %s: no such file (not mounted)", path)))
		}
		if !m.writable {
			panic(e.vm.NewGoError(fmt.Errorf("write_file: %s: mounted read-only", path)))
		}
		if err := os.WriteFile(m.hostPath, []byte(content), 0644); err != nil {
			panic(e.vm.NewGoError(fmt.Errorf("write_file: %s: %w", path, err)))
		}
		return goja.Undefined()
	})
}

func (e *Engine) findMount(virtualPath string) (mount, bool) {
	for _, m := range e.mounts {
		if m.virtualPath == virtualPath {
			return m, true
		}
	}
	return mount{}, false
}

// classifyError maps a goja error to a failure category.
func classifyError(err error) (FailureKind, string) {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		return FailureInterrupt, fmt.Sprintf("%v", interrupted.Value())
	}
	var overflow *goja.StackOverflowError
	if errors.As(err, &overflow) {
		return FailureStackOverflow, "maximum call stack depth exceeded"
	}
	var exc *goja.Exception
	if errors.As(err, &exc) {
		return FailureException, exc.Error()
	}
	return FailureCompile, err.Error()
}

// renderValue formats an exported value the way an expression result is
// shown: strings quoted, composites as JSON.
func renderValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(t)
	case bool:
		return strconv.FormatBool(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}

// plainValue formats an exported value for print output: strings unquoted.
func plainValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return renderValue(v)
}
