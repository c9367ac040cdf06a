package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/JakeFAU/marketing-site/internal/database"
	"github.com/JakeFAU/marketing-site/internal/site"
)

const selectSubscriberSQL = `
SELECT
	id,
	email,
	COALESCE(name, ''),
	COALESCE(utm_source, ''),
	COALESCE(utm_medium, ''),
	COALESCE(utm_campaign, ''),
	ip_address,
	is_active,
	subscribed_at,
	created_at
FROM subscribers
WHERE email = $1`

const insertSubscriberSQL = `
INSERT INTO subscribers (
	email,
	name,
	utm_source,
	utm_medium,
	utm_campaign,
	ip_address
) VALUES (
	$1,$2,$3,$4,$5,$6
) RETURNING id, is_active, subscribed_at, created_at`

// SubscriberStore reads and writes newsletter subscribers in Postgres.
type SubscriberStore struct {
	db *database.Manager
}

// NewSubscriberStore constructs a SubscriberStore on top of the shared Manager.
func NewSubscriberStore(db *database.Manager) (*SubscriberStore, error) {
	if db == nil {
		return nil, errors.New("database manager is required")
	}
	return &SubscriberStore{db: db}, nil
}

// FindSubscriber looks up a subscriber by normalized email.
func (s *SubscriberStore) FindSubscriber(ctx context.Context, email string) (site.Subscriber, bool, error) {
	var sub site.Subscriber
	err := s.db.QueryRow(ctx, selectSubscriberSQL, []any{site.NormalizeEmail(email)},
		&sub.ID,
		&sub.Email,
		&sub.Name,
		&sub.UTMSource,
		&sub.UTMMedium,
		&sub.UTMCampaign,
		&sub.IPAddress,
		&sub.IsActive,
		&sub.SubscribedAt,
		&sub.CreatedAt,
	)
	if errors.Is(err, database.ErrNoRows) {
		return site.Subscriber{}, false, nil
	}
	if err != nil {
		return site.Subscriber{}, false, fmt.Errorf("find subscriber: %w", err)
	}
	return sub, true, nil
}

// CreateSubscriber inserts a subscriber. A concurrent insert of the same
// email surfaces as site.ErrAlreadySubscribed.
func (s *SubscriberStore) CreateSubscriber(ctx context.Context, sub site.Subscriber) (site.Subscriber, error) {
	sub.Email = site.NormalizeEmail(sub.Email)
	args := []any{
		sub.Email,
		nullable(sub.Name),
		nullable(sub.UTMSource),
		nullable(sub.UTMMedium),
		nullable(sub.UTMCampaign),
		sub.IPAddress,
	}
	err := s.db.QueryRow(ctx, insertSubscriberSQL, args,
		&sub.ID, &sub.IsActive, &sub.SubscribedAt, &sub.CreatedAt)
	if database.IsUniqueViolation(err) {
		return site.Subscriber{}, site.ErrAlreadySubscribed
	}
	if err != nil {
		return site.Subscriber{}, fmt.Errorf("insert subscriber: %w", err)
	}
	return sub, nil
}
