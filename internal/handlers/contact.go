package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/AnshRaj112/mindnest-backend/internal/models"
	"github.com/AnshRaj112/mindnest-backend/pkg/utils"
)

// SubmitContactRequest represents the request to submit contact form
type SubmitContactRequest struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"max=200"`
	Message string `json:"message" validate:"required,max=5000"`
}

// SubmitContact stores a contact form message in PostgreSQL.
func SubmitContact(w http.ResponseWriter, r *http.Request) {
	if contacts == nil {
		writeError(w, http.StatusServiceUnavailable, "Contact form is not available")
		return
	}

	var req SubmitContactRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	msg := &models.ContactMessage{
		Name:    strings.TrimSpace(req.Name),
		Email:   utils.NormalizeEmail(req.Email),
		Subject: strings.TrimSpace(req.Subject),
		Message: strings.TrimSpace(req.Message),
	}
	if err := contacts.SaveContactMessage(ctx, msg); err != nil {
		writeServiceError(w, r, err, "Contact message")
		return
	}

	logger.InfoContext(ctx, "contact message received", slog.Int64("id", msg.ID))
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Thank you for contacting us. We'll get back to you soon.",
		"id":      msg.ID,
	})
}
