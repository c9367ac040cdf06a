// Package memory provides in-memory stores for development and testing.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/JakeFAU/marketing-site/internal/site"
)

// Store holds contacts and subscribers in process memory.
type Store struct {
	mu          sync.RWMutex
	nextID      int64
	contacts    []site.Contact
	subscribers map[string]site.Subscriber
	now         func() time.Time
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{
		subscribers: make(map[string]site.Subscriber),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// CreateContact appends a contact and assigns it an id.
func (s *Store) CreateContact(_ context.Context, contact site.Contact) (site.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	contact.ID = s.nextID
	contact.Email = site.NormalizeEmail(contact.Email)
	if contact.Status == "" {
		contact.Status = site.ContactStatusNew
	}
	contact.CreatedAt = s.now()
	s.contacts = append(s.contacts, contact)
	return contact, nil
}

// FindSubscriber looks up a subscriber by normalized email.
func (s *Store) FindSubscriber(_ context.Context, email string) (site.Subscriber, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subscribers[site.NormalizeEmail(email)]
	return sub, ok, nil
}

// CreateSubscriber stores a subscriber, enforcing email uniqueness.
func (s *Store) CreateSubscriber(_ context.Context, sub site.Subscriber) (site.Subscriber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub.Email = site.NormalizeEmail(sub.Email)
	if _, exists := s.subscribers[sub.Email]; exists {
		return site.Subscriber{}, site.ErrAlreadySubscribed
	}
	s.nextID++
	now := s.now()
	sub.ID = s.nextID
	sub.IsActive = true
	sub.SubscribedAt = now
	sub.CreatedAt = now
	s.subscribers[sub.Email] = sub
	return sub, nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error {
	return nil
}

// Contacts returns a copy of every stored contact.
func (s *Store) Contacts() []site.Contact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]site.Contact, len(s.contacts))
	copy(out, s.contacts)
	return out
}

// SubscriberCount reports how many subscribers are stored.
func (s *Store) SubscriberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers)
}
