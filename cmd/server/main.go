package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"gitpilot/internal/config"
	"gitpilot/internal/credentials"
	"gitpilot/internal/crypto"
	"gitpilot/internal/database"
	"gitpilot/internal/execution"
	"gitpilot/internal/github"
	"gitpilot/internal/gitops"
	"gitpilot/internal/handlers"
	"gitpilot/internal/intent"
	"gitpilot/internal/logging"
	"gitpilot/internal/middleware"
	"gitpilot/internal/tools"
	"gitpilot/pkg/auth"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	log.Println("🚀 Starting GitPilot Server...")

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	// Structured logging (JSON in production, text in dev); must come
	// after dotenv so ENV from the file takes effect
	logging.Init()

	// Load configuration
	cfg := config.Load()
	log.Printf("📋 Configuration loaded (Port: %s, DB: %s)", cfg.Port, cfg.DatabasePath)

	// Optional per-deployment overrides (classifier tuning, workflows)
	overrides, err := cfg.LoadOverrides()
	if err != nil {
		log.Fatalf("❌ Failed to load overrides file: %v", err)
	}
	if overrides != nil {
		cfg.Apply(overrides)
		log.Printf("📝 Applied overrides from %s", cfg.OverridesFile)
	}

	// Initialize SQLite execution store
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("❌ Failed to open database: %v", err)
	}
	defer db.Close()

	// Encryption for the GitHub token at rest (optional outside production)
	var encryptionService *crypto.EncryptionService
	if cfg.EncryptionMasterKey != "" {
		encryptionService, err = crypto.NewEncryptionService(cfg.EncryptionMasterKey)
		if err != nil {
			log.Fatalf("❌ Invalid ENCRYPTION_MASTER_KEY: %v", err)
		}
		log.Println("🔐 Token encryption enabled")
	} else if cfg.IsProduction() {
		log.Fatal("❌ CRITICAL SECURITY ERROR: ENCRYPTION_MASTER_KEY is required in production. Generate with: openssl rand -hex 32")
	} else {
		log.Println("⚠️  ENCRYPTION_MASTER_KEY not set - GitHub tokens will be persisted in the clear (development mode only)")
	}

	// Credential store backed by the .env file
	creds := credentials.NewStore(cfg.EnvFilePath, encryptionService)
	if creds.Configured() {
		log.Println("✅ GitHub credentials configured")
	} else {
		log.Println("⚠️  GitHub credentials not configured - use the setup_credentials tool to store them")
	}

	// Collaborators: local git, gitignore templates, GitHub API
	gitService := gitops.NewService(nil)
	gitignoreService := gitops.NewGitignoreService(nil, cfg.CacheTTL)
	githubClient := github.NewClient(creds,
		github.WithBaseURL(cfg.GitHubAPIURL),
		github.WithCacheTTL(cfg.CacheTTL),
	)

	// Tool contracts and intent signatures
	registry := tools.NewRegistry()
	if err := tools.RegisterBuiltins(registry); err != nil {
		log.Fatalf("❌ Failed to register tool contracts: %v", err)
	}
	log.Printf("🔧 Registered %d tool contracts", registry.Count())

	classifier := intent.NewClassifier(cfg.ClassifierThreshold)
	for _, sig := range tools.BuiltinSignatures() {
		classifier.Add(sig)
	}

	// Handler bindings over the collaborators
	handlerRegistry, err := handlers.BuildHandlerRegistry(handlers.Collaborators{
		Git:       gitService,
		Gitignore: gitignoreService,
		GitHub:    githubClient,
		Creds:     creds,
	})
	if err != nil {
		log.Fatalf("❌ Failed to build handler registry: %v", err)
	}

	// Execution engine with Prometheus metrics and SQLite recording
	metrics := execution.InitMetrics()
	engine := execution.NewEngine(registry, handlerRegistry, db, metrics)
	if err := engine.VerifyWiring(); err != nil {
		log.Fatalf("❌ Tool wiring incomplete: %v", err)
	}
	log.Println("✅ All tool contracts have handlers")

	// Suggestion chains and named workflows. Override-defined workflows
	// shadow the built-in definition with the same name.
	suggestions := tools.BuiltinSuggestions()
	chain := execution.NewChainExecutor(engine, suggestions, cfg.MaxChainLength)
	workflows := execution.NewWorkflowEngine(engine, workflowCatalog(overrides))

	// Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "GitPilot Server",
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(recover.New())
	app.Use(logger.New())

	// Prometheus metrics
	prometheus := fiberprometheus.New("gitpilot")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)
	log.Println("📊 Prometheus metrics at /metrics")

	// CORS
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
	}))

	// Rate limiting: execution routes get the tight budget, reads a looser one
	rateCfg := middleware.LoadRateLimitConfig()
	app.Use("/execute", middleware.ExecuteRateLimiter(rateCfg))
	app.Use("/request", middleware.ExecuteRateLimiter(rateCfg))
	app.Use("/workflows", middleware.ExecuteRateLimiter(rateCfg))
	app.Use("/classify-intent", middleware.ReadRateLimiter(rateCfg))
	app.Use("/intents", middleware.ReadRateLimiter(rateCfg))
	app.Use("/executions", middleware.ReadRateLimiter(rateCfg))
	app.Use(middleware.GlobalAPIRateLimiter(rateCfg))

	// Optional bearer-token auth for mutating routes
	var tokenManager *auth.TokenManager
	if cfg.EnableAuth {
		tokenManager, err = auth.NewTokenManager(cfg.JWTSecret, 0)
		if err != nil {
			log.Fatalf("❌ ENABLE_AUTH is set but token manager setup failed: %v", err)
		}
		app.Use("/execute", middleware.LocalAuthMiddleware(tokenManager))
		app.Use("/request", middleware.LocalAuthMiddleware(tokenManager))
		app.Use("/workflows", middleware.LocalAuthMiddleware(tokenManager))
		log.Println("🔒 Auth enabled for execution routes")
	}

	// Handlers and routes
	toolsHandler := handlers.NewToolsHandler(registry, classifier, engine, chain, workflows, db, suggestions, metrics)
	healthHandler := handlers.NewHealthHandler(registry, creds)
	authHandler := handlers.NewAuthHandler(tokenManager)
	handlers.RegisterRoutes(app, toolsHandler, healthHandler, authHandler)

	log.Printf("✅ Server ready on port %s", cfg.Port)
	log.Printf("📡 Health check: http://localhost:%s/health", cfg.Port)
	log.Printf("🧭 Intent catalog: http://localhost:%s/intents", cfg.Port)

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("\n🛑 Shutting down server...")

		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️ Error shutting down server: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// workflowCatalog merges override workflow definitions ahead of the
// built-ins. The workflow engine keeps the first definition per name, so
// overrides win.
func workflowCatalog(overrides *config.Overrides) []execution.Workflow {
	var out []execution.Workflow
	if overrides != nil {
		for _, spec := range overrides.Workflows {
			wf := execution.Workflow{Name: spec.Name}
			for _, step := range spec.Steps {
				wf.Steps = append(wf.Steps, execution.WorkflowStep{
					Tool:     step.Tool,
					Required: step.Required,
					Params:   step.Params,
				})
			}
			out = append(out, wf)
		}
	}
	return append(out, execution.DefaultWorkflows()...)
}
