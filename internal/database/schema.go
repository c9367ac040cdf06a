package database

import (
	"context"
	"fmt"
)

// schemaStatements create the site tables. Every statement is idempotent.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS contacts (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL,
	phone TEXT,
	company TEXT,
	interest TEXT NOT NULL,
	message TEXT NOT NULL,
	utm_source TEXT,
	utm_medium TEXT,
	utm_campaign TEXT,
	utm_term TEXT,
	utm_content TEXT,
	referrer TEXT,
	ip_address TEXT NOT NULL DEFAULT '',
	user_agent TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'new'
		CHECK (status IN ('new', 'contacted', 'qualified', 'closed', 'spam')),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ
)`,
	`CREATE INDEX IF NOT EXISTS idx_contacts_email ON contacts (email)`,
	`CREATE INDEX IF NOT EXISTS idx_contacts_created_at ON contacts (created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_contacts_status ON contacts (status)`,
	`CREATE TABLE IF NOT EXISTS subscribers (
	id BIGSERIAL PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	name TEXT,
	utm_source TEXT,
	utm_medium TEXT,
	utm_campaign TEXT,
	ip_address TEXT NOT NULL DEFAULT '',
	subscribed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	is_active BOOLEAN NOT NULL DEFAULT TRUE
)`,
	`CREATE INDEX IF NOT EXISTS idx_subscribers_email ON subscribers (email)`,
	`CREATE INDEX IF NOT EXISTS idx_subscribers_subscribed_at ON subscribers (subscribed_at)`,
}

// Migrate creates the contacts and subscribers tables and their indexes.
func (m *Manager) Migrate(ctx context.Context) error {
	for i, stmt := range schemaStatements {
		if _, err := m.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}
	m.logger.Info("database schema applied")
	return nil
}
