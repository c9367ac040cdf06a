// Package postgres provides Postgres-backed persistence implementations.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/JakeFAU/marketing-site/internal/database"
	"github.com/JakeFAU/marketing-site/internal/site"
)

const insertContactSQL = `
INSERT INTO contacts (
	name,
	email,
	phone,
	company,
	interest,
	message,
	utm_source,
	utm_medium,
	utm_campaign,
	utm_term,
	utm_content,
	referrer,
	ip_address,
	user_agent,
	status
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15
) RETURNING id, created_at`

// ContactStore writes contact submissions into Postgres.
type ContactStore struct {
	db *database.Manager
}

// NewContactStore constructs a ContactStore on top of the shared Manager.
func NewContactStore(db *database.Manager) (*ContactStore, error) {
	if db == nil {
		return nil, errors.New("database manager is required")
	}
	return &ContactStore{db: db}, nil
}

// CreateContact inserts a contact row and returns it with the generated id.
func (s *ContactStore) CreateContact(ctx context.Context, contact site.Contact) (site.Contact, error) {
	contact.Email = site.NormalizeEmail(contact.Email)
	if contact.Status == "" {
		contact.Status = site.ContactStatusNew
	}
	args := []any{
		contact.Name,
		contact.Email,
		nullable(contact.Phone),
		nullable(contact.Company),
		contact.Interest,
		contact.Message,
		nullable(contact.UTMSource),
		nullable(contact.UTMMedium),
		nullable(contact.UTMCampaign),
		nullable(contact.UTMTerm),
		nullable(contact.UTMContent),
		nullable(contact.Referrer),
		contact.IPAddress,
		contact.UserAgent,
		string(contact.Status),
	}
	if err := s.db.QueryRow(ctx, insertContactSQL, args, &contact.ID, &contact.CreatedAt); err != nil {
		return site.Contact{}, fmt.Errorf("insert contact: %w", err)
	}
	return contact, nil
}

// nullable stores empty optional fields as NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
