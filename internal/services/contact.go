package services

import (
	"context"

	"github.com/AnshRaj112/mindnest-backend/internal/models"
	"github.com/jmoiron/sqlx"
)

// ContactStore persists contact form messages.
type ContactStore interface {
	SaveContactMessage(ctx context.Context, m *models.ContactMessage) error
}

// PostgresContactStore writes to the contact_messages table.
type PostgresContactStore struct {
	db *sqlx.DB
}

func NewPostgresContactStore(db *sqlx.DB) *PostgresContactStore {
	return &PostgresContactStore{db: db}
}

func (s *PostgresContactStore) SaveContactMessage(ctx context.Context, m *models.ContactMessage) error {
	rows, err := s.db.NamedQueryContext(ctx, `
		INSERT INTO contact_messages (name, email, subject, message)
		VALUES (:name, :email, :subject, :message)
		RETURNING id, created_at
	`, m)
	if err != nil {
		return err
	}
	defer rows.Close()
	if rows.Next() {
		return rows.Scan(&m.ID, &m.CreatedAt)
	}
	return rows.Err()
}
