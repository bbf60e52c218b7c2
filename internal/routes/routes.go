package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/technotronz/symposium/internal/config"
	"github.com/technotronz/symposium/internal/handlers"
	"github.com/technotronz/symposium/internal/middleware"
	"github.com/technotronz/symposium/internal/services"
)

// Dependencies are the collaborators the HTTP layer is built from.
// Cache, Notifier and Mailer are optional.
type Dependencies struct {
	DB       *gorm.DB
	Config   *config.Config
	PayApp   services.PaymentGateway
	Cache    services.PaymentStatusCache
	Notifier services.PaymentNotifier
	Mailer   services.Mailer
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, deps Dependencies) {
	cfg := deps.Config
	db := deps.DB

	mailer := deps.Mailer
	if mailer == nil {
		mailer = services.LogMailer{}
	}

	pricing := services.NewPricing(cfg)
	users := services.NewUserStore(db)
	payments := services.NewPaymentStore(db)

	paymentService := services.NewPaymentService(deps.PayApp, payments, users, pricing, deps.Cache, cfg.BaseURL, cfg.PayAppProvider)
	verificationService := services.NewVerificationService(deps.PayApp, payments, users, pricing, deps.Cache, deps.Notifier)
	registrationService := services.NewRegistrationService(users, payments)

	authHandler := handlers.NewAuthHandler(db, cfg)
	resetHandler := handlers.NewPasswordResetHandler(db, cfg, mailer)
	profileHandler := handlers.NewProfileHandler(db, cfg, users, payments)
	catalogHandler := handlers.NewCatalogHandler()
	paymentHandler := handlers.NewPaymentHandler(paymentService, verificationService, cfg.BaseURL)
	registrationHandler := handlers.NewRegistrationHandler(registrationService)
	adminHandler := handlers.NewAdminHandler(db)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/logout", authHandler.Logout)
	auth.Get("/session", authHandler.Session)
	auth.Post("/forgot-password", resetHandler.ForgotPassword)
	auth.Get("/reset-password", middleware.HeadGuard(), resetHandler.CheckResetLink)
	auth.Post("/reset-password", resetHandler.ResetPassword)

	// Catalog
	api.Get("/events", catalogHandler.ListEvents)
	api.Get("/events/:id", catalogHandler.GetEvent)
	api.Get("/workshops", catalogHandler.ListWorkshops)
	api.Get("/workshops/:id", catalogHandler.GetWorkshop)

	// PayApp callback. PayApp may redirect the browser (GET) or post the payload.
	payment := api.Group("/payment")
	payment.Get("/verify", middleware.HeadGuard(), paymentHandler.VerifyGet)
	payment.Post("/verify", paymentHandler.VerifyPost)

	// Protected routes
	protected := api.Group("", middleware.AuthMiddleware(cfg))

	protected.Post("/payment/initiate", paymentHandler.Initiate)

	protected.Post("/user/complete-registration", profileHandler.CompleteRegistration)
	protected.Get("/user/me", profileHandler.Me)
	protected.Get("/user/payment-status", paymentHandler.Status)
	protected.Post("/user/register-event", registrationHandler.RegisterEvent)
	protected.Post("/user/register-workshop", registrationHandler.RegisterWorkshop)

	admin := protected.Group("/admin", middleware.RequireAdmin(db))
	admin.Get("/stats", adminHandler.DashboardStats)
	admin.Get("/transactions", adminHandler.ListTransactions)
}
