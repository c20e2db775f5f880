package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"souqly/internal/handler"
	"souqly/internal/httputil"
	authmw "souqly/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler         *handler.AuthHandler
	UserHandler         *handler.UserHandler
	FollowHandler       *handler.FollowHandler
	FeedHandler         *handler.FeedHandler
	NotificationHandler *handler.NotificationHandler
	JWTSecret           string
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, 200, map[string]string{"status": "ok"})
	})

	// Public routes - no authentication required
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", cfg.AuthHandler.Register)
		r.Post("/login", cfg.AuthHandler.Login)
	})

	// Public user endpoints with optional authentication; the responses
	// carry viewer-relative flags when a token is present
	r.Route("/users", func(r chi.Router) {
		r.With(authmw.OptionalAuthMiddleware(cfg.JWTSecret)).Get("/search", cfg.UserHandler.Search)
		r.With(authmw.OptionalAuthMiddleware(cfg.JWTSecret)).Get("/{id}", cfg.UserHandler.GetProfile)
		r.With(authmw.OptionalAuthMiddleware(cfg.JWTSecret)).Get("/{id}/followers", cfg.FollowHandler.GetFollowers)
		r.With(authmw.OptionalAuthMiddleware(cfg.JWTSecret)).Get("/{id}/following", cfg.FollowHandler.GetFollowing)
	})

	// Public catalog endpoints
	r.Get("/products", cfg.FeedHandler.List)
	r.Get("/products/search", cfg.FeedHandler.Search)
	r.Get("/products/{id}", cfg.FeedHandler.Get)
	r.Get("/categories", cfg.FeedHandler.Categories)

	// Protected routes - require authentication
	r.Group(func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.JWTSecret))

		// Current user endpoints
		r.Patch("/users/me", cfg.UserHandler.UpdateProfile)
		r.Post("/users/me/avatar", cfg.UserHandler.UploadAvatar)

		// Follow/unfollow actions
		r.Post("/users/{id}/follow", cfg.FollowHandler.Follow)
		r.Delete("/users/{id}/follow", cfg.FollowHandler.Unfollow)

		// Listing actions
		r.Post("/products", cfg.FeedHandler.Create)
		r.Delete("/products/{id}", cfg.FeedHandler.Delete)
		r.Post("/products/{id}/like", cfg.FeedHandler.Like)
		r.Delete("/products/{id}/like", cfg.FeedHandler.Unlike)
		r.Get("/products/liked", cfg.FeedHandler.LikedIDs)
		r.Post("/products/photo", cfg.FeedHandler.UploadPhoto)

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", cfg.NotificationHandler.List)
			r.Post("/read", cfg.NotificationHandler.MarkRead)
			r.Get("/unread-count", cfg.NotificationHandler.UnreadCount)
			r.Post("/device-tokens", cfg.NotificationHandler.RegisterDeviceToken)
			r.Delete("/device-tokens", cfg.NotificationHandler.RemoveDeviceToken)
		})
	})

	return r
}
