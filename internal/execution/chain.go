package execution

import (
	"context"
	"fmt"
	"log/slog"

	"gitpilot/internal/tools"
)

// DefaultMaxChainLength bounds suggested-tool chains to prevent loops.
const DefaultMaxChainLength = 10

// ChainExecutor runs a tool and then walks its declared follow-up
// suggestions sequentially, threading extracted parameters forward. Chains
// are bounded and deterministic; a failing step ends the chain.
type ChainExecutor struct {
	engine      *Engine
	suggestions map[string][]tools.SuggestedTool
	maxLength   int
	metrics     *Metrics
	log         *slog.Logger
}

// NewChainExecutor builds a chain executor over the engine. suggestions
// maps each tool name to the follow-ups its catalog entry declares.
func NewChainExecutor(engine *Engine, suggestions map[string][]tools.SuggestedTool, maxLength int) *ChainExecutor {
	if maxLength <= 0 {
		maxLength = DefaultMaxChainLength
	}
	return &ChainExecutor{
		engine:      engine,
		suggestions: suggestions,
		maxLength:   maxLength,
		metrics:     GetMetrics(),
		log:         slog.Default().With("component", "chain"),
	}
}

// Suggestions returns the declared follow-ups for a tool.
func (c *ChainExecutor) Suggestions(tool string) []tools.SuggestedTool {
	return c.suggestions[tool]
}

// ExecuteChain runs the initial tool and, if it succeeds, follows its
// suggestion list for up to maxLength additional steps. Each suggestion's
// parameters are merged over the accumulated argument set, which is then
// narrowed to the parameters the step's contract declares. Callers may
// therefore pass arguments for the whole chain up front.
func (c *ChainExecutor) ExecuteChain(ctx context.Context, tool string, rawArgs map[string]any) []*Result {
	results := []*Result{c.engine.Execute(ctx, tool, c.engine.projectArgs(tool, rawArgs))}
	if !results[0].OK() {
		return results
	}

	carried := cloneArgs(rawArgs)
	current := tool
	for steps := 0; steps < c.maxLength; steps++ {
		next := c.suggestions[current]
		if len(next) == 0 {
			break
		}
		// Sequential strategy: follow the first suggestion only; the rest
		// are advisory and surfaced to the caller in tool results.
		suggestion := next[0]
		args := cloneArgs(carried)
		for k, v := range suggestion.Parameters {
			args[k] = v
		}

		res := c.engine.Execute(ctx, suggestion.Tool, c.engine.projectArgs(suggestion.Tool, args))
		results = append(results, res)
		if c.metrics != nil {
			c.metrics.RecordChainStep()
		}
		if !res.OK() {
			break
		}
		for k, v := range res.Args {
			carried[k] = v
		}
		current = suggestion.Tool
	}
	return results
}

// WorkflowStep is one step of a predefined workflow. Optional steps may
// fail without aborting the workflow.
type WorkflowStep struct {
	Tool     string         `yaml:"tool" json:"tool"`
	Required bool           `yaml:"required" json:"required"`
	Params   map[string]any `yaml:"params,omitempty" json:"params,omitempty"`
}

// Workflow is a named, ordered sequence of tool invocations with parameter
// threading: each successful step's resolved arguments feed the next.
type Workflow struct {
	Name  string         `yaml:"name" json:"name"`
	Steps []WorkflowStep `yaml:"steps" json:"steps"`
}

// WorkflowResult summarizes a workflow run.
type WorkflowResult struct {
	Workflow   string    `json:"workflow"`
	Status     string    `json:"status"` // completed or failed
	FailedStep string    `json:"failedStep,omitempty"`
	Results    []*Result `json:"results"`
}

// WorkflowEngine executes predefined workflows over the chain executor's
// engine.
type WorkflowEngine struct {
	engine    *Engine
	workflows map[string]Workflow
	order     []string
	log       *slog.Logger
}

// NewWorkflowEngine builds a workflow engine with the given definitions.
func NewWorkflowEngine(engine *Engine, workflows []Workflow) *WorkflowEngine {
	w := &WorkflowEngine{
		engine:    engine,
		workflows: make(map[string]Workflow, len(workflows)),
		log:       slog.Default().With("component", "workflow"),
	}
	for _, wf := range workflows {
		if _, exists := w.workflows[wf.Name]; exists {
			continue
		}
		w.workflows[wf.Name] = wf
		w.order = append(w.order, wf.Name)
	}
	return w
}

// Names lists workflow names in definition order.
func (w *WorkflowEngine) Names() []string {
	out := make([]string, len(w.order))
	copy(out, w.order)
	return out
}

// Execute runs a named workflow. Required-step failures abort the run;
// optional-step failures are recorded and skipped over. The initial
// arguments cover the whole workflow; each step receives only the subset
// its contract declares.
func (w *WorkflowEngine) Execute(ctx context.Context, name string, initial map[string]any) (*WorkflowResult, error) {
	wf, ok := w.workflows[name]
	if !ok {
		return nil, fmt.Errorf("unknown workflow %q", name)
	}

	out := &WorkflowResult{Workflow: name, Status: "completed"}
	carried := cloneArgs(initial)

	for _, step := range wf.Steps {
		args := cloneArgs(carried)
		for k, v := range step.Params {
			args[k] = v
		}

		res := w.engine.Execute(ctx, step.Tool, w.engine.projectArgs(step.Tool, args))
		out.Results = append(out.Results, res)

		if !res.OK() {
			if step.Required {
				out.Status = "failed"
				out.FailedStep = step.Tool
				w.log.Warn("workflow aborted", "workflow", name, "step", step.Tool, "detail", res.ErrorDetail)
				return out, nil
			}
			continue
		}
		for k, v := range res.Args {
			carried[k] = v
		}
	}
	return out, nil
}

// DefaultWorkflows returns the built-in workflow catalog. Definitions may
// be replaced via the overrides config file.
func DefaultWorkflows() []Workflow {
	return []Workflow{
		{
			Name: "create_and_setup_repo",
			Steps: []WorkflowStep{
				{Tool: "create_repository", Required: true},
				{Tool: "initialize_repository", Required: true},
				{Tool: "generate_gitignore", Required: false},
				{Tool: "add_file", Required: false, Params: map[string]any{"file_name": "README.md"}},
				{Tool: "commit_changes", Required: true},
				{Tool: "push_changes", Required: true},
			},
		},
		{
			Name: "feature_development",
			Steps: []WorkflowStep{
				{Tool: "create_branch", Required: true},
				{Tool: "add_multiple_files", Required: true},
				{Tool: "commit_changes", Required: true},
				{Tool: "push_changes", Required: true},
				{Tool: "create_pull_request", Required: true},
			},
		},
	}
}

func cloneArgs(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
