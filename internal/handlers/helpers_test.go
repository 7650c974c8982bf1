package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/AnshRaj112/mindnest-backend/internal/handlers"
	"github.com/AnshRaj112/mindnest-backend/internal/middleware"
	"github.com/AnshRaj112/mindnest-backend/internal/models"
	"github.com/AnshRaj112/mindnest-backend/internal/routes"
	"github.com/AnshRaj112/mindnest-backend/internal/services"
	"github.com/AnshRaj112/mindnest-backend/internal/services/servicetest"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var testNotesKey = []byte("0123456789abcdef0123456789abcdef")

type testEnv struct {
	t        *testing.T
	store    *servicetest.MemStore
	locker   *servicetest.MemLocker
	cache    *servicetest.MemCache
	mailer   *servicetest.RecordingMailer
	uploader *servicetest.FakeUploader
	contacts *servicetest.MemContactStore
	deps     handlers.Deps
	router   *chi.Mux
}

// newEnv wires the handlers to in-memory services. opts may adjust the deps
// before they are installed.
func newEnv(t *testing.T, opts ...func(*handlers.Deps)) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	env := &testEnv{
		t:        t,
		store:    servicetest.NewMemStore(),
		locker:   servicetest.NewMemLocker(),
		cache:    servicetest.NewMemCache(),
		mailer:   &servicetest.RecordingMailer{},
		uploader: &servicetest.FakeUploader{},
		contacts: &servicetest.MemContactStore{},
	}
	tokens := services.NewTokenService("test-secret", time.Hour, servicetest.NewMemRevoker())

	env.deps = handlers.Deps{
		Store:    env.store,
		Tokens:   tokens,
		Scorer:   services.NewScorer(nil, logger),
		Booking:  services.NewBookingService(env.store, env.locker, testNotesKey, logger),
		Notifier: services.NewNotifier(env.mailer, env.store, logger),
		Chatbot:  services.NewChatbot("", time.Second, logger),
		Uploader: env.uploader,
		Cache:    env.cache,
		Contacts: env.contacts,
		Logger:   logger,
	}
	for _, opt := range opts {
		opt(&env.deps)
	}
	handlers.Init(env.deps)

	env.router = chi.NewRouter()
	env.router.Use(middleware.AccessLog(logger))
	routes.SetupRoutes(env.router, tokens)
	return env
}

func (e *testEnv) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	e.t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	msg, _ := decode(t, rec)["error"].(string)
	return msg
}

type account struct {
	token string
	id    primitive.ObjectID
}

// signup creates an account and returns its token and id.
func (e *testEnv) signup(name, email string, role models.Role) account {
	e.t.Helper()
	rec := e.do(http.MethodPost, "/api/auth/signup", map[string]string{
		"name": name, "email": email, "password": "secret123", "role": string(role),
	}, "")
	require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(e.t, rec)
	user := body["user"].(map[string]interface{})
	id, err := primitive.ObjectIDFromHex(user["_id"].(string))
	require.NoError(e.t, err)
	return account{token: body["token"].(string), id: id}
}

// onboard creates an onboarded therapist profile for acct and returns its id.
func (e *testEnv) onboard(acct account, availability ...string) primitive.ObjectID {
	e.t.Helper()
	if availability == nil {
		availability = []string{}
	}
	rec := e.do(http.MethodPost, "/api/therapists/onboard", map[string]interface{}{
		"specialization": []string{"Anxiety", "Depression"},
		"licenseNumber":  "LIC-1001",
		"bio":            "Licensed counsellor.",
		"location":       "Remote",
		"availability":   availability,
	}, acct.token)
	require.Equal(e.t, http.StatusOK, rec.Code, rec.Body.String())
	t := decode(e.t, rec)["therapist"].(map[string]interface{})
	id, err := primitive.ObjectIDFromHex(t["_id"].(string))
	require.NoError(e.t, err)
	return id
}

// setVerified marks a therapist as verified directly in the store.
func (e *testEnv) setVerified(id primitive.ObjectID) {
	e.t.Helper()
	ctx := context.Background()
	th, err := e.store.GetTherapistByID(ctx, id)
	require.NoError(e.t, err)
	th.Verified = true
	require.NoError(e.t, e.store.SaveTherapist(ctx, th))
}

// daysFromNow formats a session date relative to today (UTC).
func daysFromNow(n int) string {
	return time.Now().UTC().AddDate(0, 0, n).Format("2006-01-02")
}
