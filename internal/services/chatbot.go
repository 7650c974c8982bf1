package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/AnshRaj112/mindnest-backend/internal/metrics"
	"github.com/tidwall/gjson"
)

const (
	placeholderReply = "I'm here to help you with your mental health journey. How can I assist you today?"
	crisisReply      = "It sounds like you are going through something really painful, and you don't have to face it alone. " +
		"If you are in immediate danger, please call your local emergency number now. " +
		"You can also reach a crisis line any time: call or text 988 (US), or find a local helpline at https://findahelpline.com. " +
		"When you're ready, a therapist on MindNest can support you too."
	maxChatMessageLength = 2000
)

var crisisSuggestions = []string{"Crisis support", "Find therapist", "Breathing exercise"}

// ChatReply is the chatbot's answer to one message.
type ChatReply struct {
	Message     string    `json:"message"`
	Suggestions []string  `json:"suggestions,omitempty"`
	Crisis      bool      `json:"crisis"`
	Timestamp   time.Time `json:"timestamp"`
}

// Chatbot answers user messages. Crisis language is always answered locally
// with helpline information; other messages go to the external chatbot
// service when one is configured.
type Chatbot struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
	now     func() time.Time
}

func NewChatbot(baseURL string, timeout time.Duration, logger *slog.Logger) *Chatbot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chatbot{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
		now:     time.Now,
	}
}

// Reply answers message on behalf of userID. Only an empty or oversized message is an error.
func (c *Chatbot) Reply(ctx context.Context, userID, message string) (ChatReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return ChatReply{}, fmt.Errorf("message is required")
	}
	if len(message) > maxChatMessageLength {
		return ChatReply{}, fmt.Errorf("message must be at most %d characters", maxChatMessageLength)
	}

	if crisis, _ := DetectCrisis(message); crisis {
		metrics.CrisisMessages.Inc()
		c.logger.WarnContext(ctx, "crisis language detected in chatbot message", slog.String("user_id", userID))
		return ChatReply{
			Message:     crisisReply,
			Suggestions: crisisSuggestions,
			Crisis:      true,
			Timestamp:   c.now().UTC(),
		}, nil
	}

	if c.baseURL != "" {
		reply, err := c.remote(ctx, userID, message)
		if err == nil {
			return reply, nil
		}
		c.logger.WarnContext(ctx, "chatbot service unavailable, sending placeholder", slog.Any("error", err))
	}

	return ChatReply{Message: placeholderReply, Timestamp: c.now().UTC()}, nil
}

func (c *Chatbot) remote(ctx context.Context, userID, message string) (ChatReply, error) {
	body, err := json.Marshal(map[string]string{"message": message, "user_id": userID})
	if err != nil {
		return ChatReply{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return ChatReply{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return ChatReply{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return ChatReply{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return ChatReply{}, fmt.Errorf("chatbot service returned %d", resp.StatusCode)
	}

	doc := gjson.ParseBytes(raw)
	text := doc.Get("message").String()
	if text == "" {
		text = doc.Get("response").String()
	}
	if text == "" {
		return ChatReply{}, fmt.Errorf("chatbot service returned no message")
	}
	return ChatReply{
		Message:     text,
		Suggestions: stringArray(doc.Get("suggestions")),
		Timestamp:   c.now().UTC(),
	}, nil
}
