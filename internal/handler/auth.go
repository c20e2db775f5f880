package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"souqly/internal/httputil"
	"souqly/internal/model"
	"souqly/internal/service"
)

// AuthHandler groups auth-related HTTP endpoints and their dependencies.
type AuthHandler struct {
	userService *service.UserService
	authService *service.AuthService
}

func NewAuthHandler(userService *service.UserService, authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		authService: authService,
	}
}

// authResponse bundles the account and its freshly issued token.
type authResponse struct {
	User  *model.User          `json:"user"`
	Token *model.TokenResponse `json:"token"`
}

// Register handles account creation
// POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	user, err := h.userService.Register(r.Context(), &req)
	if err != nil {
		if errors.Is(err, model.ErrUsernameExists) {
			httputil.WriteConflict(w, "Username already exists")
			return
		}
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	token, err := h.authService.GenerateAccessToken(user.ID)
	if err != nil {
		log.Printf("[ERROR] Register token issue: %v", err)
		httputil.WriteInternalError(w, "Failed to issue token")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, authResponse{User: user, Token: token})
}

// Login handles user login
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	user, err := h.userService.Login(r.Context(), &req)
	if err != nil {
		if errors.Is(err, model.ErrInvalidCredentials) {
			httputil.WriteUnauthorized(w, "Invalid username or password")
			return
		}
		log.Printf("[ERROR] Login handler: %v", err)
		httputil.WriteInternalError(w, "Failed to log in")
		return
	}

	token, err := h.authService.GenerateAccessToken(user.ID)
	if err != nil {
		log.Printf("[ERROR] Login token issue: %v", err)
		httputil.WriteInternalError(w, "Failed to issue token")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, authResponse{User: user, Token: token})
}
