package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"gitpilot/internal/database"
	"gitpilot/internal/execution"
	"gitpilot/internal/intent"
	"gitpilot/internal/tools"
)

// ToolsHandler exposes the tool catalog, the classifier, and the
// execution engine over HTTP.
type ToolsHandler struct {
	registry    *tools.Registry
	classifier  *intent.Classifier
	engine      *execution.Engine
	chain       *execution.ChainExecutor
	workflows   *execution.WorkflowEngine
	db          *database.DB
	suggestions map[string][]tools.SuggestedTool
	metrics     *execution.Metrics
}

// NewToolsHandler creates a new tools handler. db may be nil when
// execution history is disabled; metrics may be nil when metrics are not
// initialized.
func NewToolsHandler(
	registry *tools.Registry,
	classifier *intent.Classifier,
	engine *execution.Engine,
	chain *execution.ChainExecutor,
	workflows *execution.WorkflowEngine,
	db *database.DB,
	suggestions map[string][]tools.SuggestedTool,
	metrics *execution.Metrics,
) *ToolsHandler {
	return &ToolsHandler{
		registry:    registry,
		classifier:  classifier,
		engine:      engine,
		chain:       chain,
		workflows:   workflows,
		db:          db,
		suggestions: suggestions,
		metrics:     metrics,
	}
}

// IntentResponse represents one catalog entry in the API response.
type IntentResponse struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Category    string           `json:"category"`
	Endpoint    string           `json:"endpoint"`
	Method      string           `json:"method"`
	Parameters  []tools.ParamSpec `json:"parameters"`
}

// ListIntents returns the full tool catalog grouped by category.
func (h *ToolsHandler) ListIntents(c *fiber.Ctx) error {
	categories := make(map[string][]IntentResponse)
	order := []string{}
	for _, name := range h.registry.Names() {
		contract, err := h.registry.Get(name)
		if err != nil {
			continue
		}
		if _, seen := categories[contract.Category]; !seen {
			order = append(order, contract.Category)
		}
		categories[contract.Category] = append(categories[contract.Category], IntentResponse{
			Name:        contract.Name,
			Description: contract.Description,
			Category:    contract.Category,
			Endpoint:    contract.Endpoint,
			Method:      contract.Method,
			Parameters:  contract.Params,
		})
	}

	grouped := make([]fiber.Map, 0, len(order))
	for _, cat := range order {
		grouped = append(grouped, fiber.Map{
			"category": cat,
			"count":    len(categories[cat]),
			"intents":  categories[cat],
		})
	}
	return c.JSON(fiber.Map{
		"totalIntents": h.registry.Count(),
		"categories":   grouped,
	})
}

type classifyRequest struct {
	Text string `json:"text"`
}

// ClassifyIntent runs the deterministic classifier over free text and
// returns the scored outcome without executing anything.
func (h *ToolsHandler) ClassifyIntent(c *fiber.Ctx) error {
	var req classifyRequest
	if err := c.BodyParser(&req); err != nil || req.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "text is required",
		})
	}

	result := h.classifier.Classify(req.Text)
	if h.metrics != nil {
		h.metrics.RecordClassification(result.Matched())
	}
	resp := fiber.Map{
		"matched":    result.Matched(),
		"confidence": result.Confidence,
		"candidates": result.Candidates,
	}
	if result.Matched() {
		resp["tool"] = result.Tool
		resp["extractedArgs"] = result.Args
		if contract, err := h.registry.Get(result.Tool); err == nil {
			resp["description"] = contract.Description
			resp["endpoint"] = contract.Endpoint
		}
	}
	return c.JSON(resp)
}

type executeRequest struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args"`
}

// Execute runs a single named tool with explicit arguments.
func (h *ToolsHandler) Execute(c *fiber.Ctx) error {
	var req executeRequest
	if err := c.BodyParser(&req); err != nil || req.Tool == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "tool is required",
		})
	}

	res := h.engine.Execute(c.UserContext(), req.Tool, req.Args)
	return c.Status(statusFor(res)).JSON(res)
}

type naturalRequest struct {
	Text  string         `json:"text"`
	Args  map[string]any `json:"args"`
	Chain bool           `json:"chain"`
}

// Request resolves free text to a tool via the classifier, merges any
// explicitly supplied arguments over the extracted ones, and executes.
// Responds with the full result envelope including follow-up suggestions.
func (h *ToolsHandler) Request(c *fiber.Ctx) error {
	var req naturalRequest
	if err := c.BodyParser(&req); err != nil || req.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "text is required",
		})
	}

	classification := h.classifier.Classify(req.Text)
	if h.metrics != nil {
		h.metrics.RecordClassification(classification.Matched())
	}
	if !classification.Matched() {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":      "could not determine which tool to run",
			"candidates": classification.Candidates,
		})
	}

	args := make(map[string]any, len(classification.Args)+len(req.Args))
	for k, v := range classification.Args {
		args[k] = v
	}
	for k, v := range req.Args {
		args[k] = v
	}

	var (
		res     *execution.Result
		chained []*execution.Result
	)
	if req.Chain {
		chained = h.chain.ExecuteChain(c.UserContext(), classification.Tool, args)
		res = chained[0]
	} else {
		res = h.engine.Execute(c.UserContext(), classification.Tool, args)
	}
	if !res.OK() {
		return c.Status(statusFor(res)).JSON(fiber.Map{
			"classification": classification,
			"result":         res,
		})
	}

	description := ""
	if contract, err := h.registry.Get(classification.Tool); err == nil {
		description = contract.Description
	}
	envelope := tools.NewResult(
		classification.Tool,
		classification.Tool,
		description,
		res.Output,
		tools.WithConfidence(classification.Confidence),
		tools.WithSuggestions(h.suggestions[classification.Tool]...),
	)
	resp := fiber.Map{
		"classification": classification,
		"execution":      res,
		"result":         envelope,
	}
	if req.Chain {
		resp["chain"] = chained
	}
	return c.JSON(resp)
}

type workflowRequest struct {
	Args map[string]any `json:"args"`
}

// ListWorkflows names the available workflows.
func (h *ToolsHandler) ListWorkflows(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"workflows": h.workflows.Names()})
}

// RunWorkflow executes a named workflow with initial arguments.
func (h *ToolsHandler) RunWorkflow(c *fiber.Ctx) error {
	var req workflowRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	result, err := h.workflows.Execute(c.UserContext(), c.Params("name"), req.Args)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	status := fiber.StatusOK
	if result.Status != "completed" {
		status = fiber.StatusUnprocessableEntity
	}
	return c.Status(status).JSON(result)
}

// ListExecutions returns recent execution history records.
func (h *ToolsHandler) ListExecutions(c *fiber.Ctx) error {
	if h.db == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "execution history is disabled",
		})
	}
	rows, err := h.db.ListRecent(c.UserContext(), c.Query("tool"), c.QueryInt("limit", 50))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load execution history",
		})
	}
	return c.JSON(fiber.Map{"executions": rows, "count": len(rows)})
}

// ExecutionStats summarizes the history table by execution status.
func (h *ToolsHandler) ExecutionStats(c *fiber.Ctx) error {
	if h.db == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "execution history is disabled",
		})
	}
	counts, err := h.db.CountByStatus(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load execution stats",
		})
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	return c.JSON(fiber.Map{"byStatus": counts, "total": total})
}

// PruneExecutions deletes history records older than the given number of
// days (query parameter older_than_days, default 30).
func (h *ToolsHandler) PruneExecutions(c *fiber.Ctx) error {
	if h.db == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "execution history is disabled",
		})
	}
	days := c.QueryInt("older_than_days", 30)
	if days <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "older_than_days must be a positive integer",
		})
	}
	pruned, err := h.db.Prune(c.UserContext(), time.Duration(days)*24*time.Hour)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to prune execution history",
		})
	}
	return c.JSON(fiber.Map{"pruned": pruned, "olderThanDays": days})
}
