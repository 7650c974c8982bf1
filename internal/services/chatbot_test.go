package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatbotPlaceholderWithoutService(t *testing.T) {
	bot := NewChatbot("", time.Second, nil)

	reply, err := bot.Reply(context.Background(), "u1", "hello")
	require.NoError(t, err)
	assert.Equal(t, placeholderReply, reply.Message)
	assert.False(t, reply.Crisis)
	assert.False(t, reply.Timestamp.IsZero())
}

func TestChatbotRejectsEmptyAndOversizedMessages(t *testing.T) {
	bot := NewChatbot("", time.Second, nil)

	_, err := bot.Reply(context.Background(), "u1", "   ")
	assert.Error(t, err)

	_, err = bot.Reply(context.Background(), "u1", strings.Repeat("a", maxChatMessageLength+1))
	assert.Error(t, err)
}

func TestChatbotCrisisShortCircuits(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	bot := NewChatbot(srv.URL, time.Second, nil)
	reply, err := bot.Reply(context.Background(), "u1", "I want to end my life")
	require.NoError(t, err)

	assert.True(t, reply.Crisis)
	assert.Contains(t, reply.Message, "988")
	assert.False(t, called)
}

func TestChatbotRelaysServiceReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "u1", body["user_id"])
		w.Write([]byte(`{"message":"Try box breathing.","suggestions":["Breathing exercise"]}`))
	}))
	defer srv.Close()

	reply, err := NewChatbot(srv.URL, time.Second, nil).Reply(context.Background(), "u1", "I feel anxious")
	require.NoError(t, err)
	assert.Equal(t, "Try box breathing.", reply.Message)
	assert.Equal(t, []string{"Breathing exercise"}, reply.Suggestions)
}

func TestChatbotFallsBackWhenServiceFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	reply, err := NewChatbot(srv.URL, time.Second, nil).Reply(context.Background(), "u1", "hi")
	require.NoError(t, err)
	assert.Equal(t, placeholderReply, reply.Message)
}
