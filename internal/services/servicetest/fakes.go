package servicetest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/AnshRaj112/mindnest-backend/internal/models"
	"github.com/AnshRaj112/mindnest-backend/internal/services"
)

// MemLocker is an in-process services.SlotLocker.
type MemLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

var _ services.SlotLocker = (*MemLocker)(nil)

func NewMemLocker() *MemLocker {
	return &MemLocker{held: map[string]bool{}}
}

func (l *MemLocker) Acquire(_ context.Context, key string, _ time.Duration) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return nil, false, nil
	}
	l.held[key] = true
	return func() {
		l.mu.Lock()
		delete(l.held, key)
		l.mu.Unlock()
	}, true, nil
}

// Hold takes key without releasing it, to simulate a concurrent booking.
func (l *MemLocker) Hold(key string) {
	l.mu.Lock()
	l.held[key] = true
	l.mu.Unlock()
}

// MemCache is an in-memory services.Cache. TTLs are ignored.
type MemCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

var _ services.Cache = (*MemCache)(nil)

func NewMemCache() *MemCache {
	return &MemCache{items: map[string][]byte{}}
}

func (c *MemCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	data, ok := c.items[key]
	c.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dest)
}

func (c *MemCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.items[key] = data
	c.mu.Unlock()
	return nil
}

func (c *MemCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.items, k)
	}
	return nil
}

// Has reports whether key is cached.
func (c *MemCache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[key]
	return ok
}

// MemRevoker is an in-memory services.Revoker.
type MemRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

var _ services.Revoker = (*MemRevoker)(nil)

func NewMemRevoker() *MemRevoker {
	return &MemRevoker{revoked: map[string]time.Time{}}
}

func (r *MemRevoker) Revoke(_ context.Context, tokenID string, until time.Time) error {
	r.mu.Lock()
	r.revoked[tokenID] = until
	r.mu.Unlock()
	return nil
}

func (r *MemRevoker) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	until, ok := r.revoked[tokenID]
	return ok && time.Now().Before(until), nil
}

// FakeUploader records uploads and returns a predictable URL.
type FakeUploader struct {
	mu      sync.Mutex
	Folders []string
}

var _ services.Uploader = (*FakeUploader)(nil)

func (u *FakeUploader) Upload(_ context.Context, file io.Reader, folder string) (string, error) {
	if _, err := io.Copy(io.Discard, file); err != nil {
		return "", err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.Folders = append(u.Folders, folder)
	return fmt.Sprintf("https://cdn.example.com/%s/%d.png", folder, len(u.Folders)), nil
}

// SentMail is one message captured by RecordingMailer.
type SentMail struct {
	To, Subject, Body string
}

// RecordingMailer captures messages instead of sending them.
type RecordingMailer struct {
	mu   sync.Mutex
	sent []SentMail
}

var _ services.Mailer = (*RecordingMailer)(nil)

func (m *RecordingMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	m.sent = append(m.sent, SentMail{To: to, Subject: subject, Body: body})
	m.mu.Unlock()
	return nil
}

// Sent returns a copy of the captured messages.
func (m *RecordingMailer) Sent() []SentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMail(nil), m.sent...)
}

// MemContactStore keeps contact messages in memory.
type MemContactStore struct {
	mu       sync.Mutex
	Messages []models.ContactMessage
}

var _ services.ContactStore = (*MemContactStore)(nil)

func (s *MemContactStore) SaveContactMessage(_ context.Context, m *models.ContactMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = int64(len(s.Messages) + 1)
	m.CreatedAt = time.Now().UTC()
	s.Messages = append(s.Messages, *m)
	return nil
}
