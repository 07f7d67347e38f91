package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/phrazzld/memorai/internal/api/middleware"
)

// RegisterRoutes mounts the health check and the owner-scoped /api routes.
func RegisterRoutes(r chi.Router, reviewFiles *ReviewFileHandler, notifications *NotificationHandler) {
	r.Get("/health", Health)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RequireOwner)

		r.Post("/decks/{deckID}/review-files", reviewFiles.StartReview)
		r.Get("/decks/{deckID}/review-files", reviewFiles.ListReviewFiles)
		r.Get("/review-files/{id}", reviewFiles.GetReviewFile)
		r.Post("/review-files/{id}/feedback", reviewFiles.SubmitFeedback)

		r.Get("/notifications", notifications.ListNotifications)
		r.Post("/notifications/{id}/read", notifications.MarkRead)
	})
}
