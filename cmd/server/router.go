package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/phrazzld/memorai/internal/api"
	apimiddleware "github.com/phrazzld/memorai/internal/api/middleware"
)

func (app *application) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if app.config.Server.RequestTimeout > 0 {
		r.Use(middleware.Timeout(app.config.Server.RequestTimeout))
	}
	r.Use(apimiddleware.Trace(app.logger))

	api.RegisterRoutes(r,
		api.NewReviewFileHandler(app.dispatcher, app.feedback, app.logger),
		api.NewNotificationHandler(app.feedback))

	return r
}
