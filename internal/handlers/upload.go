package handlers

import (
	"net/http"
	"strings"

	"github.com/AnshRaj112/mindnest-backend/internal/models"
	"github.com/AnshRaj112/mindnest-backend/internal/services"
)

const (
	maxUploadBytes       = 10 << 20 // 10MB
	profilePictureFolder = "mindnest/profile-pictures"
)

// UploadProfilePicture stores an image on Cloudinary and sets it as the caller's picture.
func UploadProfilePicture(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	if uploader == nil {
		writeError(w, http.StatusServiceUnavailable, "File uploads are not available")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Failed to parse form: "+err.Error())
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	file.Close()

	if !strings.HasPrefix(fileHeader.Header.Get("Content-Type"), "image/") {
		writeError(w, http.StatusBadRequest, "Only image files are allowed")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	url, err := services.UploadFileHeader(ctx, uploader, fileHeader, profilePictureFolder)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to upload file")
		logger.ErrorContext(ctx, "profile picture upload failed", "error", err)
		return
	}

	user, err := store.UpdateUserProfile(ctx, userID, models.UserProfileUpdate{ProfilePicture: &url})
	if err != nil {
		writeServiceError(w, r, err, "User")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Profile picture updated",
		"url":     url,
		"user":    user,
	})
}
