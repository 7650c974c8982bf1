package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/AnshRaj112/mindnest-backend/internal/middleware"
	"github.com/AnshRaj112/mindnest-backend/internal/models"
	"github.com/AnshRaj112/mindnest-backend/internal/services"
	"github.com/AnshRaj112/mindnest-backend/pkg/utils"
)

type SignupRequest struct {
	Name     string      `json:"name" validate:"required"`
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required"`
	Role     models.Role `json:"role" validate:"omitempty,oneof=client therapist"`
}

type LoginRequest struct {
	Email    string      `json:"email" validate:"required"`
	Password string      `json:"password" validate:"required"`
	Role     models.Role `json:"role" validate:"required,oneof=client therapist"`
}

type AuthResponse struct {
	Message string       `json:"message"`
	Token   string       `json:"token"`
	User    *models.User `json:"user"`
}

// Signup creates an account and returns a token for it.
func Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if err := utils.ValidateName(req.Name); err != nil {
		writeServiceError(w, r, err, "User")
		return
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		writeServiceError(w, r, err, "User")
		return
	}
	if req.Role == "" {
		req.Role = models.RoleClient
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		writeServiceError(w, r, err, "User")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	user := &models.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    utils.NormalizeEmail(req.Email),
		Password: hashed,
		Role:     req.Role,
	}
	if err := store.CreateUser(ctx, user); err != nil {
		writeServiceError(w, r, err, "User")
		return
	}

	token, err := tokens.Issue(user)
	if err != nil {
		writeServiceError(w, r, err, "User")
		return
	}

	logger.InfoContext(ctx, "✅ user signed up", slog.String("user_id", user.ID.Hex()), slog.String("role", string(user.Role)))
	writeJSON(w, http.StatusCreated, AuthResponse{
		Message: "User created successfully",
		Token:   token,
		User:    user,
	})
}

// Login checks credentials and the requested role.
func Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	user, err := store.GetUserByEmail(ctx, utils.NormalizeEmail(req.Email))
	if errors.Is(err, services.ErrNotFound) {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		writeServiceError(w, r, err, "User")
		return
	}

	ok, err := utils.VerifyPassword(req.Password, user.Password)
	if err != nil || !ok {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if user.Role != req.Role {
		writeError(w, http.StatusForbidden, fmt.Sprintf("This account is registered as a %s, not a %s", user.Role, req.Role))
		return
	}

	token, err := tokens.Issue(user)
	if err != nil {
		writeServiceError(w, r, err, "User")
		return
	}
	writeJSON(w, http.StatusOK, AuthResponse{
		Message: "Login successful",
		Token:   token,
		User:    user,
	})
}

// Logout revokes the caller's token until it expires.
func Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Access token required")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	if err := tokens.Revoke(ctx, claims); err != nil {
		writeServiceError(w, r, err, "Token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}
