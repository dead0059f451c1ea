package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/shop-api-nosql/internal/application/auth"
	"github.com/shop-api-nosql/internal/application/catalog"
	"github.com/shop-api-nosql/internal/application/driver"
	"github.com/shop-api-nosql/internal/application/order"
	"github.com/shop-api-nosql/internal/application/sale"
	"github.com/shop-api-nosql/internal/application/user"
	"github.com/shop-api-nosql/internal/application/verification"
	"github.com/shop-api-nosql/internal/config"
	"github.com/shop-api-nosql/internal/domain"
	"github.com/shop-api-nosql/internal/infrastructure/smtp"
	"github.com/shop-api-nosql/internal/transport/http/handler"
	appmiddleware "github.com/shop-api-nosql/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second, burst of 10 — applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	verificationSvc := verification.NewService(verification.ServiceDeps{
		CodeRepo:   deps.VerificationRepo,
		CodeLength: cfg.OTPLength,
		Validity:   cfg.OTPValidity,
	})
	authSvc := auth.NewService(auth.ServiceDeps{
		UserRepo:                 deps.UserRepo,
		SessionRepo:              deps.SessionRepo,
		Verification:             verificationSvc,
		Mailer:                   deps.Mailer,
		JWTProvider:              deps.JWTProvider,
		RefreshTokenDur:          cfg.RefreshTokenDur,
		OTPValidity:              cfg.OTPValidity,
		RenderVerificationEmail:  smtp.VerificationEmailBody,
		RenderPasswordResetEmail: smtp.PasswordResetEmailBody,
	})
	driverSvc := driver.NewService(driver.ServiceDeps{
		DriverRepo:              deps.DriverRepo,
		SessionRepo:             deps.SessionRepo,
		Verification:            verificationSvc,
		Mailer:                  deps.Mailer,
		SMSSender:               deps.SMSSender,
		JWTProvider:             deps.JWTProvider,
		RefreshTokenDur:         cfg.RefreshTokenDur,
		OTPValidity:             cfg.OTPValidity,
		RenderVerificationEmail: smtp.VerificationEmailBody,
		RenderKYCSubmittedEmail: smtp.KYCSubmittedEmailBody,
	})
	userSvc := user.NewService(deps.UserRepo)
	catalogDeps := catalog.ServiceDeps{ProductRepo: deps.ProductRepo}
	if deps.S3Store != nil {
		catalogDeps.ImageStore = deps.S3Store
	}
	catalogSvc := catalog.NewService(catalogDeps)
	orderSvc := order.NewService(order.ServiceDeps{
		OrderRepo:   deps.OrderRepo,
		ProductRepo: deps.ProductRepo,
		SaleRepo:    deps.SaleRepo,
	})
	saleSvc := sale.NewService(sale.ServiceDeps{
		SaleRepo:    deps.SaleRepo,
		OrderRepo:   deps.OrderRepo,
		ProductRepo: deps.ProductRepo,
	})

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(authSvc)
	userH := handler.NewUserHandler(userSvc)
	driverH := handler.NewDriverHandler(driverSvc)
	productH := handler.NewProductHandler(catalogSvc)
	orderH := handler.NewOrderHandler(orderSvc)
	saleH := handler.NewSaleHandler(saleSvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/auth/register", authH.Register)
		r.With(sensitiveRL.Limit).Post("/auth/login", authH.Login)
		r.Post("/auth/refresh", authH.Refresh)
		r.With(sensitiveRL.Limit).Post("/auth/verify-email", authH.VerifyEmail)
		r.With(sensitiveRL.Limit).Post("/auth/resend-code", authH.ResendCode)
		r.With(sensitiveRL.Limit).Post("/auth/password-reset/request", authH.RequestPasswordReset)
		r.With(sensitiveRL.Limit).Post("/auth/password-reset/confirm", authH.ConfirmPasswordReset)
		r.With(sensitiveRL.Limit).Post("/drivers/register", driverH.Register)
		r.With(sensitiveRL.Limit).Post("/drivers/login", driverH.Login)
		r.With(sensitiveRL.Limit).Post("/drivers/verify", driverH.Verify)
		r.With(sensitiveRL.Limit).Post("/drivers/resend-code", driverH.ResendCode)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Post("/auth/logout", authH.Logout)
			r.Post("/auth/logout-all", authH.LogoutAll)
			r.Post("/auth/change-password", authH.ChangePassword)

			r.Get("/profile", userH.GetProfile)
			r.Put("/profile", userH.UpdateProfile)

			r.Get("/products", productH.List)
			r.Get("/products/{id}", productH.Get)

			r.Post("/orders", orderH.Create)
			r.Get("/orders", orderH.ListMine)
			r.Get("/orders/{id}", orderH.Get)

			// Driver self-service
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleDriver))

				r.Get("/drivers/profile", driverH.GetProfile)
				r.Post("/drivers/kyc", driverH.SubmitKYC)
			})

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Get("/users", userH.List)
				r.Get("/users/{id}", userH.Get)
				r.Put("/users/{id}", userH.AdminUpdate)
				r.Delete("/users/{id}", userH.Disable)

				r.Put("/drivers/{id}/kyc", driverH.ReviewKYC)

				r.Post("/products", productH.Create)
				r.Put("/products/{id}", productH.Update)
				r.Delete("/products/{id}", productH.Disable)
				r.Post("/products/{id}/image", productH.UploadImage)

				r.Put("/orders/{id}/status", orderH.UpdateStatus)

				r.Get("/sales", saleH.List)
				r.Get("/sales/summary", saleH.Summary)
				r.Get("/sales/product-analytics", saleH.ProductAnalytics)
				r.Get("/sales/{id}", saleH.Get)
			})
		})
	})

	return r
}
