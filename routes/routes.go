package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/permguard/app"
	"github.com/upb/permguard/handlers"
	"github.com/upb/permguard/middleware"
	"github.com/upb/permguard/models"
	"github.com/upb/permguard/services"
	"github.com/upb/permguard/utils"
)

// editDeniedMessage is returned when a post edit is refused by the custom check
const editDeniedMessage = "You can only edit your own draft posts"

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	if timeout := deps.Config.Server.RequestTimeout; timeout > 0 {
		r.Use(chimw.Timeout(timeout))
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Server.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	var health *handlers.HealthHandler
	if deps.DB != nil {
		health = handlers.NewHealthHandler(deps.DB, deps.Logger)
	} else {
		health = handlers.NewHealthHandler(nil, deps.Logger)
	}
	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)

	// Development identity provider
	if !deps.Config.IsProduction() && !deps.Config.Auth.UsesJWKS() {
		auth := handlers.NewAuthHandler(deps.Authenticator, false, deps.Logger)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/token", auth.HandleIssueToken)
			r.Post("/logout", auth.HandleLogout)
		})
	}

	perms := deps.Permissions
	posts := handlers.NewPostHandler(services.NewPostService(deps.Posts, deps.Logger), deps.Guard, deps.Logger)

	var userSvc *services.UserService
	if deps.Users != nil {
		userSvc = services.NewUserService(deps.Users, deps.TxManager, deps.Logger)
	}
	users := handlers.NewUserHandler(userSvc, deps.Guard, deps.Logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.With(perms.WithAuthentication).Get("/me", users.HandleMe)

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", posts.HandleList)
			r.With(perms.WithPermission(models.PermPostCreate)).Post("/", posts.HandleCreate)
			r.With(posts.LoadPost).Get("/{id}", posts.HandleGet)
			r.With(
				posts.LoadPost,
				perms.WithCustomPermission(posts.CanEditPost, middleware.CustomPermissionOptions{
					ErrorMessage: editDeniedMessage,
				}),
			).Put("/{id}", posts.HandleUpdate)
			r.With(
				perms.WithAnyPermission(models.PermPostDelete, models.PermPostDeleteAny),
				posts.LoadPost,
			).Delete("/{id}", posts.HandleDelete)
		})

		// Account status lives in the users table
		if userSvc != nil {
			r.With(perms.WithPermission(models.PermUserBan)).Post("/users/{id}/status", users.HandleUpdateStatus)
		}
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
	})

	return r
}
