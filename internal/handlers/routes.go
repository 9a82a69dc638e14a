package handlers

import (
	"net/url"

	"github.com/gofiber/fiber/v2"

	"gitpilot/internal/execution"
	"gitpilot/internal/github"
	"gitpilot/internal/tools"
)

// statusFor maps an execution result to an HTTP status code: validation
// failures are the caller's fault (422, or 404 for an unknown tool),
// credential problems map to 401, missing remote resources to 404, and
// everything else a handler reports is a 500.
func statusFor(res *execution.Result) int {
	if res.OK() {
		return fiber.StatusOK
	}
	if res.Status == execution.StatusValidationError {
		if res.ErrorKind == "unknown_tool" {
			return fiber.StatusNotFound
		}
		return fiber.StatusUnprocessableEntity
	}
	switch {
	case github.IsAuthError(res.Err):
		return fiber.StatusUnauthorized
	case github.IsNotFound(res.Err):
		return fiber.StatusNotFound
	}
	return fiber.StatusInternalServerError
}

// RegisterRoutes wires the full HTTP surface: the generic tool endpoints
// plus one direct route per catalog contract, derived from the contract's
// declared endpoint and method.
func RegisterRoutes(app *fiber.App, th *ToolsHandler, hh *HealthHandler, ah *AuthHandler) {
	app.Get("/", th.Root)
	app.Get("/health", hh.Handle)

	app.Get("/intents", th.ListIntents)
	app.Post("/classify-intent", th.ClassifyIntent)
	app.Post("/execute", th.Execute)
	app.Post("/request", th.Request)
	app.Get("/workflows", th.ListWorkflows)
	app.Post("/workflows/:name", th.RunWorkflow)
	app.Get("/executions", th.ListExecutions)
	app.Get("/executions/stats", th.ExecutionStats)
	app.Post("/executions/prune", th.PruneExecutions)

	if ah != nil {
		app.Post("/auth/token", ah.IssueToken)
	}

	// Direct per-tool routes from the catalog metadata.
	for _, name := range th.registry.Names() {
		contract, err := th.registry.Get(name)
		if err != nil || contract.Endpoint == "" {
			continue
		}
		app.Add(contract.Method, contract.Endpoint, th.directHandler(contract))
	}
}

// Root describes the service.
func (h *ToolsHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service":     "gitpilot",
		"description": "Repository automation tool server",
		"tools":       h.registry.Count(),
		"endpoints": []string{
			"/health", "/intents", "/classify-intent", "/execute",
			"/request", "/workflows/:name", "/executions", "/metrics",
		},
	})
}

// directHandler executes a single fixed tool, assembling arguments from
// the JSON body, the route parameters, and the query string (in that
// precedence order, body lowest).
func (h *ToolsHandler) directHandler(contract *tools.ToolContract) fiber.Handler {
	tool := contract.Name
	return func(c *fiber.Ctx) error {
		args := map[string]any{}

		if len(c.Body()) > 0 {
			body := map[string]any{}
			if err := c.BodyParser(&body); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "invalid JSON body",
				})
			}
			for k, v := range body {
				args[k] = v
			}
		}

		for i := range contract.Params {
			name := contract.Params[i].Name
			if v := c.Query(name); v != "" {
				args[name] = v
			}
			if v := c.Params(name); v != "" {
				if decoded, err := url.PathUnescape(v); err == nil {
					args[name] = decoded
				} else {
					args[name] = v
				}
			}
		}

		res := h.engine.Execute(c.UserContext(), tool, args)
		return c.Status(statusFor(res)).JSON(res)
	}
}
