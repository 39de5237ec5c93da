package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/confdesk/conference-system/handlers"
	"github.com/confdesk/conference-system/middleware"
	"github.com/confdesk/conference-system/models"
)

func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	authHandler *handlers.AuthHandler,
	teamHandler *handlers.TeamHandler,
	reviewHandler *handlers.ReviewHandler,
	adminHandler *handlers.AdminHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate([]byte(jwtSecret))

	// Public endpoints.
	router.Post("/auth/team/login", authHandler.LoginTeam)
	router.Post("/auth/reviewer/login", authHandler.LoginReviewer)
	router.Post("/auth/admin/login", authHandler.LoginAdmin)
	router.Post("/teams/register", teamHandler.Register)

	// Team portal.
	router.Route("/teams/me/paper", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(middleware.Authorize(models.RoleTeam))

		r.Get("/", teamHandler.GetMyPaper)
		r.Post("/payment", teamHandler.UploadPayment)
		r.Post("/final", teamHandler.SubmitFinal)
	})

	// Reviewer portal.
	router.Route("/reviews", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(middleware.Authorize(models.RoleReviewer))

		r.Get("/", reviewHandler.ListAssigned)
		r.Get("/{reviewID}", reviewHandler.Get)
		r.Post("/{reviewID}/submit", reviewHandler.Submit)
	})

	// Admin console.
	router.Route("/admin", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(middleware.Authorize(models.RoleAdmin))

		r.Get("/papers", adminHandler.ListPapers)
		r.Get("/dashboard", adminHandler.Dashboard)
		r.Post("/papers/{paperID}/decision", adminHandler.Decide)
		r.Post("/papers/decision", adminHandler.BulkDecide)
		r.Post("/papers/{paperID}/verify-payment", adminHandler.VerifyPayment)
		r.Post("/papers/verify-payment", adminHandler.BulkVerifyPayment)
	})

	// Live status feed for the admin dashboard.
	router.Get("/ws/admin", webSocketHandler.ServeStatusFeed)
}
