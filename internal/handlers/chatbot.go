package handlers

import (
	"net/http"
)

type ChatRequest struct {
	Message string `json:"message" validate:"required,max=2000"`
}

// Chat answers one chatbot message.
func Chat(w http.ResponseWriter, r *http.Request) {
	claims, _, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req ChatRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	reply, err := chatbot.Reply(r.Context(), claims.UserID, req.Message)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, reply)
}
