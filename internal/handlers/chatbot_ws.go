package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/AnshRaj112/mindnest-backend/internal/middleware"
	"github.com/AnshRaj112/mindnest-backend/internal/services"
	"github.com/gorilla/websocket"
)

const (
	chatReadTimeout  = 90 * time.Second
	chatWriteTimeout = 10 * time.Second
	chatReplyTimeout = 20 * time.Second
)

var chatUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browsers cannot send an Authorization header on upgrade; the token is
	// checked below and CORS is enforced on the HTTP routes.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ChatClientMessage is a frame sent by the browser.
type ChatClientMessage struct {
	Type string `json:"type"` // "message" or "ping"
	Text string `json:"text,omitempty"`
}

// ChatServerEvent is a frame sent back to the browser.
type ChatServerEvent struct {
	Type  string              `json:"type"` // "reply", "pong" or "error"
	Reply *services.ChatReply `json:"reply,omitempty"`
	Error string              `json:"error,omitempty"`
}

// ChatbotWebSocket relays chatbot exchanges over a WebSocket.
// The token comes from the Authorization header or the ?token= query parameter.
func ChatbotWebSocket(w http.ResponseWriter, r *http.Request) {
	token := middleware.ExtractBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		writeError(w, http.StatusUnauthorized, "Access token required")
		return
	}
	claims, err := tokens.Parse(r.Context(), token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	conn, err := chatUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn.SetReadLimit(16 * 1024)
	_ = conn.SetReadDeadline(time.Now().Add(chatReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(chatReadTimeout))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(chatReadTimeout))

		var msg ChatClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		var evt ChatServerEvent
		switch msg.Type {
		case "message":
			if !middleware.AllowChatbotMessage(claims.UserID) {
				evt = ChatServerEvent{Type: "error", Error: middleware.ChatbotRateLimitMessage}
				break
			}
			replyCtx, cancelReply := context.WithTimeout(ctx, chatReplyTimeout)
			reply, err := chatbot.Reply(replyCtx, claims.UserID, msg.Text)
			cancelReply()
			if err != nil {
				evt = ChatServerEvent{Type: "error", Error: err.Error()}
			} else {
				evt = ChatServerEvent{Type: "reply", Reply: &reply}
			}
		case "ping":
			evt = ChatServerEvent{Type: "pong"}
		default:
			continue
		}

		_ = conn.SetWriteDeadline(time.Now().Add(chatWriteTimeout))
		if err := conn.WriteJSON(evt); err != nil {
			logger.DebugContext(ctx, "chatbot websocket write failed", slog.Any("error", err))
			return
		}
	}
}
