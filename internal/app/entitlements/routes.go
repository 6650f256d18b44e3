// Package entitlements собирает HTTP-приложение движка доступа.
package entitlements

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	// Регистрация сгенерированной swagger-спецификации.
	_ "github.com/magabrotheeeer/entitlements/docs"
	"github.com/magabrotheeeer/entitlements/internal/config"
	"github.com/magabrotheeeer/entitlements/internal/http/handlers/access/batch"
	"github.com/magabrotheeeer/entitlements/internal/http/handlers/access/check"
	"github.com/magabrotheeeer/entitlements/internal/http/handlers/access/grant"
	"github.com/magabrotheeeer/entitlements/internal/http/handlers/access/mine"
	"github.com/magabrotheeeer/entitlements/internal/http/handlers/access/revoke"
	"github.com/magabrotheeeer/entitlements/internal/http/handlers/admin/adminrole"
	"github.com/magabrotheeeer/entitlements/internal/http/handlers/admin/usercreate"
	"github.com/magabrotheeeer/entitlements/internal/http/handlers/admin/userremove"
	"github.com/magabrotheeeer/entitlements/internal/http/handlers/admin/userupdate"
	contentlist "github.com/magabrotheeeer/entitlements/internal/http/handlers/content/list"
	"github.com/magabrotheeeer/entitlements/internal/http/handlers/content/locked"
	"github.com/magabrotheeeer/entitlements/internal/http/handlers/content/read"
	"github.com/magabrotheeeer/entitlements/internal/http/handlers/health"
	"github.com/magabrotheeeer/entitlements/internal/http/handlers/me/password"
	"github.com/magabrotheeeer/entitlements/internal/http/handlers/me/profile"
	meremove "github.com/magabrotheeeer/entitlements/internal/http/handlers/me/remove"
	meupdate "github.com/magabrotheeeer/entitlements/internal/http/handlers/me/update"
	purchasecreate "github.com/magabrotheeeer/entitlements/internal/http/handlers/purchase/create"
	purchaselist "github.com/magabrotheeeer/entitlements/internal/http/handlers/purchase/list"
	purchaseread "github.com/magabrotheeeer/entitlements/internal/http/handlers/purchase/read"
	"github.com/magabrotheeeer/entitlements/internal/http/handlers/purchase/reject"
	"github.com/magabrotheeeer/entitlements/internal/http/handlers/purchase/verify"
	"github.com/magabrotheeeer/entitlements/internal/http/handlers/subscription/cancel"
	subcreate "github.com/magabrotheeeer/entitlements/internal/http/handlers/subscription/create"
	"github.com/magabrotheeeer/entitlements/internal/http/handlers/subscription/renew"
	"github.com/magabrotheeeer/entitlements/internal/http/handlers/subscription/status"
	"github.com/magabrotheeeer/entitlements/internal/http/middlewarectx"
	"github.com/magabrotheeeer/entitlements/internal/models"
	contentservice "github.com/magabrotheeeer/entitlements/internal/services/content"
	guardservice "github.com/magabrotheeeer/entitlements/internal/services/guard"
	ledgerservice "github.com/magabrotheeeer/entitlements/internal/services/ledger"
	profileservice "github.com/magabrotheeeer/entitlements/internal/services/profiles"
	subservice "github.com/magabrotheeeer/entitlements/internal/services/subscription"
	userservice "github.com/magabrotheeeer/entitlements/internal/services/users"
)

// Services — зависимости маршрутов.
type Services struct {
	Tokens        middlewarectx.TokenParser
	DB            health.Pinger
	Profiles      *profileservice.Loader
	Users         *userservice.UserService
	Subscriptions *subservice.SubscriptionService
	Content       *contentservice.Service
	Ledger        *ledgerservice.Service
	Guard         *guardservice.Guard
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, limits config.RateLimit, s Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	manageUsers := guardservice.Requirement{Permissions: []models.Permission{models.PermManageUsers}}
	managePurchases := guardservice.Requirement{Permissions: []models.Permission{models.PermManagePurchases}}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(logger, limits.RPS, limits.Burst))

		r.Get("/health", health.New(logger, s.DB).ServeHTTP)

		// Каталог доступен и анонимам: без токена отдаётся только публичное.
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.OptionalJWT(s.Tokens, logger))
			r.Use(middlewarectx.EnsureProfile(logger, s.Users))
			r.Get("/content", contentlist.New(logger, s.Content).ServeHTTP)
			r.Get("/content/{id}", read.New(logger, s.Content).ServeHTTP)
			r.Get("/content/categories/{category}/locked", locked.New(logger, s.Content).ServeHTTP)
		})

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(s.Tokens, logger))
			r.Use(middlewarectx.EnsureProfile(logger, s.Users))

			r.Get("/me", profile.New(logger, s.Profiles).ServeHTTP)
			r.Patch("/me", meupdate.New(logger, s.Users).ServeHTTP)
			r.Delete("/me", meremove.New(logger, s.Users).ServeHTTP)
			r.Post("/me/password", password.New(logger, s.Users).ServeHTTP)

			r.Post("/subscriptions", subcreate.New(logger, s.Subscriptions).ServeHTTP)
			r.Post("/subscriptions/renew", renew.New(logger, s.Subscriptions).ServeHTTP)
			r.Post("/subscriptions/cancel", cancel.New(logger, s.Subscriptions).ServeHTTP)
			r.Get("/subscriptions/status", status.New(logger, s.Subscriptions).ServeHTTP)

			r.Post("/purchases", purchasecreate.New(logger, s.Ledger).ServeHTTP)
			r.Get("/purchases", purchaselist.New(logger, s.Ledger).ServeHTTP)
			r.Get("/purchases/{id}", purchaseread.New(logger, s.Ledger).ServeHTTP)

			r.Get("/files/{fileID}/access", check.New(logger, s.Ledger).ServeHTTP)
			r.Post("/files/access", batch.New(logger, s.Ledger).ServeHTTP)
			r.Get("/files/access/mine", mine.New(logger, s.Ledger).ServeHTTP)

			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.Guard(s.Guard, managePurchases))
				r.Post("/purchases/{id}/verify", verify.New(logger, s.Ledger).ServeHTTP)
				r.Post("/purchases/{id}/reject", reject.New(logger, s.Ledger).ServeHTTP)
				r.Post("/admin/access", grant.New(logger, s.Ledger).ServeHTTP)
				r.Delete("/admin/access", revoke.New(logger, s.Ledger).ServeHTTP)
			})

			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.Guard(s.Guard, manageUsers))
				r.Post("/admin/users", usercreate.New(logger, s.Users).ServeHTTP)
				r.Patch("/admin/users/{uid}", userupdate.New(logger, s.Users).ServeHTTP)
				r.Delete("/admin/users/{uid}", userremove.New(logger, s.Users).ServeHTTP)
				r.Post("/admin/users/{uid}/admin", adminrole.New(logger, s.Users, false).ServeHTTP)
				r.Delete("/admin/users/{uid}/admin", adminrole.New(logger, s.Users, true).ServeHTTP)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
