package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/AnshRaj112/mindnest-backend/internal/models"
	"github.com/AnshRaj112/mindnest-backend/internal/services"
	"github.com/AnshRaj112/mindnest-backend/pkg/utils"
)

type ProfileUpdateRequest struct {
	Name           *string `json:"name"`
	Email          *string `json:"email"`
	ProfilePicture *string `json:"profilePicture" validate:"omitempty,url"`
}

// GetProfile returns the caller's account.
func GetProfile(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	user, err := store.GetUserByID(ctx, userID)
	if err != nil {
		writeServiceError(w, r, err, "User")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

// UpdateProfile edits name, email and picture URL.
func UpdateProfile(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req ProfileUpdateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	upd := models.UserProfileUpdate{ProfilePicture: req.ProfilePicture}
	if req.Name != nil {
		if err := utils.ValidateName(*req.Name); err != nil {
			writeServiceError(w, r, err, "User")
			return
		}
		name := strings.TrimSpace(*req.Name)
		upd.Name = &name
	}
	if req.Email != nil {
		if err := utils.ValidateEmail(*req.Email); err != nil {
			writeServiceError(w, r, err, "User")
			return
		}
		email := utils.NormalizeEmail(*req.Email)
		upd.Email = &email
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	user, err := store.UpdateUserProfile(ctx, userID, upd)
	if err != nil {
		if errors.Is(err, services.ErrDuplicateEmail) {
			writeError(w, http.StatusBadRequest, "Email is already in use")
			return
		}
		writeServiceError(w, r, err, "User")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Profile updated successfully",
		"user":    user,
	})
}

// DeleteProfile accepts a deletion request. Accounts are never hard-deleted.
func DeleteProfile(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	logger.InfoContext(r.Context(), "account deletion requested", slog.String("user_id", userID.Hex()))
	writeJSON(w, http.StatusAccepted, map[string]string{
		"message": "Account deletion requested. Your data will be reviewed before removal.",
	})
}
