package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/sirpyerre/blogkeeper/internal/api/handler"
	"github.com/sirpyerre/blogkeeper/internal/api/middleware"
	"github.com/sirpyerre/blogkeeper/internal/core/ports"
)

// Services are the use cases the HTTP layer dispatches to.
type Services struct {
	Identity      ports.IdentityService
	Content       ports.ContentService
	Archive       ports.ArchiveEngine
	Email         ports.EmailWorkflow
	Password      ports.PasswordWorkflow
	Roles         ports.RoleWorkflow
	Deletion      ports.DeletionWorkflow
	Support       ports.SupportWorkflow
	APIKeys       ports.APIKeyService
	Notifications ports.NotificationService
	Scrubber      ports.Scrubber
}

// Options configure the router.
type Options struct {
	JWTSecret string
	// ExposeLinks echoes capability links in responses. Never set in production.
	ExposeLinks bool
	// Checks are the dependencies probed by /health/ready.
	Checks map[string]handler.Check
	Log    zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(opts Options, svc Services) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(opts.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("blogkeeper"))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(svc.Identity, svc.Email, svc.Password, opts.ExposeLinks)
	postHandler := handler.NewPostHandler(svc.Content, svc.Archive)
	archiveHandler := handler.NewArchiveHandler(svc.Archive)
	roleHandler := handler.NewRoleHandler(svc.Roles, opts.ExposeLinks)
	deletionHandler := handler.NewDeletionHandler(svc.Deletion, opts.ExposeLinks)
	supportHandler := handler.NewSupportHandler(svc.Support, opts.ExposeLinks)
	apiKeyHandler := handler.NewAPIKeyHandler(svc.APIKeys)
	notificationHandler := handler.NewNotificationHandler(svc.Notifications)
	adminHandler := handler.NewAdminHandler(svc.Scrubber)

	// --- Operational endpoints (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(opts.Checks)
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Public routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.GET("/auth/confirm-email", authHandler.ConfirmEmail)
	e.POST("/auth/password/forgot", authHandler.ForgotPassword)
	e.POST("/auth/password/reset", authHandler.ResetPassword)
	e.GET("/posts", postHandler.List)
	e.GET("/posts/:id", postHandler.Get)
	e.GET("/support", supportHandler.Get)
	e.GET("/support/confirm", supportHandler.Confirm)

	// --- API key routes ---
	apiGroup := e.Group("/api", middleware.APIKey(svc.APIKeys))
	apiGroup.GET("/posts", postHandler.List)
	apiGroup.GET("/posts/:id", postHandler.Get)

	// --- Session routes ---
	v1 := e.Group("/v1", middleware.Auth(opts.JWTSecret), middleware.LoadUser(svc.Identity))
	admin := middleware.RequireAdmin()
	confirmed := middleware.RequireConfirmed()

	v1.GET("/me", authHandler.Me)
	v1.POST("/me/confirm-email", authHandler.ResendConfirmation)
	v1.POST("/me/deletion-request", deletionHandler.RequestDeletion)
	v1.POST("/me/api-key", apiKeyHandler.Issue, confirmed)
	v1.GET("/me/api-key", apiKeyHandler.Get)
	v1.DELETE("/me/api-key", apiKeyHandler.Revoke)

	v1.POST("/posts", postHandler.Create, middleware.RequireStaff())
	v1.PATCH("/posts/:id", postHandler.Update)
	v1.DELETE("/posts/:id", postHandler.Delete)
	v1.POST("/posts/:id/comments", postHandler.AddComment, confirmed)
	v1.POST("/comments/:id/replies", postHandler.AddReply, confirmed)
	v1.DELETE("/comments/:id", postHandler.DeleteComment)

	v1.GET("/archives", archiveHandler.List)
	v1.GET("/archives/:id", archiveHandler.Get)
	v1.POST("/archives/:id/restore", archiveHandler.Restore)
	v1.DELETE("/archives/:id", archiveHandler.Purge, admin)

	// Role requests are not admin-gated: the workflow admits a self-grant
	// while no administrator exists.
	v1.POST("/users/:id/roles/:role/:action", roleHandler.Request)
	v1.GET("/users/:id/roles/:role/:action/confirm", roleHandler.Confirm, admin)
	v1.POST("/users/:id/delete", deletionHandler.RequestUserDeletion, admin)
	v1.GET("/users/:id/delete/confirm", deletionHandler.ConfirmUserDeletion, admin)
	v1.POST("/users/:id/api-key/block", apiKeyHandler.Block, admin)
	v1.POST("/users/:id/api-key/unblock", apiKeyHandler.Unblock, admin)

	v1.GET("/deletion-requests", deletionHandler.Pending, admin)
	v1.GET("/deletion-requests/:id/approve", deletionHandler.Approve, admin)
	v1.GET("/deletion-requests/:id/reject", deletionHandler.Reject, admin)

	v1.POST("/support", supportHandler.Rotate, admin)

	v1.GET("/notifications", notificationHandler.List)
	v1.POST("/notifications/:id/read", notificationHandler.MarkRead)

	v1.POST("/admin/scrub", adminHandler.Scrub, admin)

	return e
}
