package main

import (
	"context"
	"fmt"
	"log"
	"time"

	common_api "go-desk/internal/common/api"
	"go-desk/internal/config"
	"go-desk/internal/database"
	"go-desk/internal/features/action"
	"go-desk/internal/features/boot"
	"go-desk/internal/features/dependency"
	"go-desk/internal/features/document"
	"go-desk/internal/features/expression"
	"go-desk/internal/features/meta"
	"go-desk/internal/features/system"
	"go-desk/internal/features/workflow"
	"go-desk/internal/logger"
	"go-desk/internal/middleware"
	"go-desk/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(middleware.CORSMiddleware(cfg.AllowedOrigin))

	return app
}

// AsRoute is a helper function to reduce boilerplate.
// It tags the constructor so Fx knows to add it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),    // Cast to Interface
		fx.ResultTags(`group:"routes"`), // Add to Group
	)
}

// RegisterAllRoutes takes the group "routes" (slice of interfaces)
// and calls Setup() on each one.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route) {
	for _, route := range routes {
		route.Setup(app)
	}
	log.Printf("Registered %d routes\n", len(routes))
}

// RegisterAllRoutesWithAnnotation wraps RegisterAllRoutes with fx annotations
var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`),
)

// StartServer creates a lifecycle hook to start Fiber in a goroutine
// and shut it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				if err := app.Listen(port); err != nil {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

// InitializeIndexes ensures that necessary database indexes are created
func InitializeIndexes(lc fx.Lifecycle, metaRepo meta.MetaRepository) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				if err := metaRepo.EnsureIndexes(ctx); err != nil {
					log.Printf("Failed to ensure doctype indexes: %v", err)
				}
			}()
			return nil
		},
	})
}

// NewActionRegistry assembles the standard providers over the document
// executor. Registration order is the tiebreak-free composition order:
// core first, then submission, then workflow transitions.
func NewActionRegistry(ops *document.Ops, conditions workflow.ConditionEvaluator, log *zap.Logger) *action.Registry {
	registry := action.NewRegistry(log)
	registry.Register(action.CoreProvider(ops))
	registry.Register(action.SubmitProvider(ops))
	registry.Register(action.WorkflowProvider(ops, conditions))
	return registry
}

func main() {
	app := fx.New(
		fx.Provide(
			// Load Config
			config.LoadConfig,

			// Initialize Logger
			logger.NewLogger,

			// Initialize Fiber Server
			NewFiberServer,

			// Initialize Database
			database.NewDatabase,

			// Initialize Repository
			meta.NewMetaRepository,
			workflow.NewWorkflowRepository,
			document.NewDocumentRepository,

			// Engine collaborators
			func(log *zap.Logger) *expression.Evaluator {
				return expression.NewEvaluator(expression.ZapReporter{Log: log})
			},
			dependency.NewResolver,
			workflow.NewTengoEvaluator,
			system.NewHub,
			func(hub *system.Hub) document.Publisher { return hub },
			document.NewOps,
			NewActionRegistry,

			meta.NewMetaService,
			document.NewDocumentService,

			// Initialize Controller
			meta.NewMetaController,
			document.NewDocumentController,
			boot.NewBootController,
			system.NewHealthController,
			system.NewWebSocketController,

			// Initialize API Routes
			AsRoute(meta.NewMetaApi),
			AsRoute(document.NewDocumentApi),
			AsRoute(boot.NewBootApi),
			AsRoute(system.NewHealthApi),
			AsRoute(system.NewWebSocketApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			func(cfg *config.Config) { utils.SetSecret(cfg.JWTSecret) },

			// Register Routes & Start
			RegisterAllRoutesWithAnnotation,
			StartServer,
			InitializeIndexes,
			meta.NewCacheRefresher,
		),
	)

	app.Run()
}
