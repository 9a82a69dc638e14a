// Package execution dispatches validated tool calls to their handlers and
// normalizes every outcome into a uniform result envelope. The engine itself
// performs no I/O; side effects live entirely in the handlers.
package execution

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"gitpilot/internal/tools"
)

// Handler is the uniform call signature every tool collaborator implements.
// Handlers receive the validated, coerced argument map and may fail with a
// collaborator-specific error; the engine reports such failures uniformly
// and never retries them.
type Handler func(ctx context.Context, args map[string]any) (map[string]any, error)

// HandlerRegistry maps tool names to their handlers. Populated once at
// startup, read-only afterwards.
type HandlerRegistry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewHandlerRegistry creates an empty handler registry.
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{handlers: make(map[string]Handler)}
}

// Register binds a handler to a tool name. Binding the same name twice is
// a wiring bug and is reported immediately.
func (r *HandlerRegistry) Register(name string, h Handler) error {
	if h == nil {
		return fmt.Errorf("handler for %q is nil", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[name]; exists {
		return fmt.Errorf("handler for %q is already registered", name)
	}
	r.handlers[name] = h
	return nil
}

// Get retrieves the handler for a tool name.
func (r *HandlerRegistry) Get(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}

// Status classifies the outcome of an execution.
type Status string

const (
	StatusSuccess         Status = "success"
	StatusValidationError Status = "validation_error"
	StatusExecutionError  Status = "execution_error"
)

// Result is the uniform envelope returned for every execution attempt. The
// resolved argument map is echoed back for auditability.
type Result struct {
	ExecutionID string         `json:"executionId"`
	Tool        string         `json:"tool"`
	Status      Status         `json:"status"`
	Args        map[string]any `json:"args,omitempty"`
	Output      map[string]any `json:"output,omitempty"`
	ErrorKind   string         `json:"errorKind,omitempty"`
	ErrorDetail string         `json:"errorDetail,omitempty"`
	Duration    time.Duration  `json:"-"`

	// Err keeps the underlying error for in-process callers (HTTP status
	// mapping); it is never serialized.
	Err error `json:"-"`
}

// OK reports whether the execution succeeded.
func (r *Result) OK() bool { return r.Status == StatusSuccess }

// MarshalJSON serializes the duration as whole milliseconds. A raw
// time.Duration would marshal as nanoseconds under the durationMs name.
func (r *Result) MarshalJSON() ([]byte, error) {
	type resultAlias Result
	return json.Marshal(&struct {
		*resultAlias
		DurationMs int64 `json:"durationMs"`
	}{
		resultAlias: (*resultAlias)(r),
		DurationMs:  r.Duration.Milliseconds(),
	})
}

// Recorder persists execution results for auditing. A nil Recorder disables
// recording; the engine never depends on it succeeding.
type Recorder interface {
	RecordExecution(ctx context.Context, res *Result) error
}

// Engine validates arguments against the contract registry, coerces them,
// and dispatches to the bound handler. Validation failures are returned as
// structured results before any side effect occurs.
type Engine struct {
	contracts *tools.Registry
	handlers  *HandlerRegistry
	recorder  Recorder
	metrics   *Metrics
	log       *slog.Logger
}

// NewEngine wires an engine from its registries. recorder and metrics may
// be nil.
func NewEngine(contracts *tools.Registry, handlers *HandlerRegistry, recorder Recorder, metrics *Metrics) *Engine {
	return &Engine{
		contracts: contracts,
		handlers:  handlers,
		recorder:  recorder,
		metrics:   metrics,
		log:       slog.Default().With("component", "execution"),
	}
}

// Contracts exposes the contract registry the engine validates against.
func (e *Engine) Contracts() *tools.Registry { return e.contracts }

// projectArgs drops arguments the tool's contract does not declare.
// Chained and workflow steps thread an accumulated argument map whose keys
// span several contracts; validation is strict about undeclared keys, so
// each step must see only its own parameters.
func (e *Engine) projectArgs(tool string, args map[string]any) map[string]any {
	contract, err := e.contracts.Get(tool)
	if err != nil {
		return args
	}
	out := make(map[string]any, len(args))
	for k, v := range args {
		if _, ok := contract.Param(k); ok {
			out[k] = v
		}
	}
	return out
}

// VerifyWiring checks that every registered contract has a bound handler.
// A contract without a handler is an internal consistency bug and must fail
// the process at startup rather than surface per request.
func (e *Engine) VerifyWiring() error {
	for _, name := range e.contracts.Names() {
		if _, ok := e.handlers.Get(name); !ok {
			return &tools.UnregisteredHandlerError{Tool: name}
		}
	}
	return nil
}

// Execute runs the named tool with rawArgs. It never panics and never lets
// a handler fault escape: every outcome becomes a Result.
func (e *Engine) Execute(ctx context.Context, tool string, rawArgs map[string]any) *Result {
	res := &Result{
		ExecutionID: uuid.New().String(),
		Tool:        tool,
	}
	start := time.Now()
	defer func() {
		res.Duration = time.Since(start)
		e.record(ctx, res)
	}()

	validated, err := e.contracts.Validate(tool, rawArgs)
	if err != nil {
		res.Status = StatusValidationError
		res.ErrorKind = tools.ErrorKind(err)
		res.ErrorDetail = err.Error()
		res.Err = err
		e.log.Warn("validation failed", "tool", tool, "kind", res.ErrorKind, "detail", res.ErrorDetail)
		return res
	}
	res.Args = validated

	handler, ok := e.handlers.Get(tool)
	if !ok {
		// Should be impossible after VerifyWiring; reported as an internal
		// error rather than a caller mistake.
		wireErr := &tools.UnregisteredHandlerError{Tool: tool}
		res.Status = StatusExecutionError
		res.ErrorKind = tools.ErrorKind(wireErr)
		res.ErrorDetail = wireErr.Error()
		res.Err = wireErr
		return res
	}

	output, err := e.invoke(ctx, handler, validated)
	if err != nil {
		res.Status = StatusExecutionError
		res.ErrorKind = tools.ErrorKind(err)
		res.ErrorDetail = err.Error()
		res.Err = err
		e.log.Error("handler failed", "tool", tool, "detail", res.ErrorDetail)
		return res
	}

	res.Status = StatusSuccess
	res.Output = output
	return res
}

// invoke calls the handler with panic recovery so a buggy collaborator
// cannot crash the request path.
func (e *Engine) invoke(ctx context.Context, handler Handler, args map[string]any) (out map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return handler(ctx, args)
}

func (e *Engine) record(ctx context.Context, res *Result) {
	if e.metrics != nil {
		e.metrics.RecordExecution(res.Tool, string(res.Status), res.Duration.Seconds())
	}
	if e.recorder == nil {
		return
	}
	if err := e.recorder.RecordExecution(ctx, res); err != nil {
		e.log.Warn("failed to record execution", "tool", res.Tool, "error", err)
	}
}
