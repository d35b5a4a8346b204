package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/phrazzld/taskman-api/internal/api"
	apiMiddleware "github.com/phrazzld/taskman-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: app.config.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{apiMiddleware.TraceIDHeader},
		MaxAge:         300,
	}))

	userHandler := api.NewUserHandler(app.userService, app.logger)
	taskHandler := api.NewTaskHandler(app.taskService, app.logger)
	avatarHandler := api.NewAvatarHandler(app.userService, app.config.Avatar.MaxBytes, app.logger)
	healthHandler := api.NewHealthHandler(app.stores.users)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.userService, app.logger)

	r.Get("/health", healthHandler.Health)

	r.Route("/users", func(r chi.Router) {
		r.Post("/", userHandler.SignUp)
		r.Post("/login", userHandler.Login)
		r.Get("/{id}/avatar", avatarHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Post("/logout", userHandler.Logout)
			r.Post("/logoutAll", userHandler.LogoutAll)
			r.Get("/me", userHandler.Me)
			r.Patch("/me", userHandler.UpdateMe)
			r.Delete("/me", userHandler.DeleteMe)
			r.Post("/me/avatar", avatarHandler.Upload)
			r.Delete("/me/avatar", avatarHandler.Delete)
		})
	})

	r.Route("/tasks", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)
		r.Post("/", taskHandler.CreateTask)
		r.Get("/", taskHandler.ListTasks)
		r.Get("/{id}", taskHandler.GetTask)
		r.Patch("/{id}", taskHandler.UpdateTask)
		r.Delete("/{id}", taskHandler.DeleteTask)
	})

	return r
}
