package site

import (
	"strings"
	"time"
)

// ContactStatus represents the back-office lifecycle state of a contact.
type ContactStatus string

// Contact status values persisted in the contacts table.
const (
	ContactStatusNew       ContactStatus = "new"
	ContactStatusContacted ContactStatus = "contacted"
	ContactStatusQualified ContactStatus = "qualified"
	ContactStatusClosed    ContactStatus = "closed"
	ContactStatusSpam      ContactStatus = "spam"
)

// Attribution captures marketing attribution fields sent alongside a form.
type Attribution struct {
	UTMSource   string `json:"utm_source"`
	UTMMedium   string `json:"utm_medium"`
	UTMCampaign string `json:"utm_campaign"`
	UTMTerm     string `json:"utm_term"`
	UTMContent  string `json:"utm_content"`
	Referrer    string `json:"referrer"`
}

// ContactForm is the JSON body accepted by POST /api/contacts.
type ContactForm struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Company  string `json:"company"`
	Interest string `json:"interest"`
	Message  string `json:"message"`
	Attribution
}

// SubscribeForm is the JSON body accepted by POST /api/subscribe.
type SubscribeForm struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	UTMSource   string `json:"utm_source"`
	UTMMedium   string `json:"utm_medium"`
	UTMCampaign string `json:"utm_campaign"`
}

// Contact is a persisted contact-form submission.
type Contact struct {
	ID        int64         `json:"id"`
	Name      string        `json:"name"`
	Email     string        `json:"email"`
	Phone     string        `json:"phone,omitempty"`
	Company   string        `json:"company,omitempty"`
	Interest  string        `json:"interest"`
	Message   string        `json:"message"`
	IPAddress string        `json:"ip_address"`
	UserAgent string        `json:"user_agent"`
	Status    ContactStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt *time.Time    `json:"updated_at,omitempty"`
	Attribution
}

// Subscriber is a persisted newsletter subscription.
type Subscriber struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
	UTMSource    string    `json:"utm_source,omitempty"`
	UTMMedium    string    `json:"utm_medium,omitempty"`
	UTMCampaign  string    `json:"utm_campaign,omitempty"`
	IPAddress    string    `json:"ip_address"`
	IsActive     bool      `json:"is_active"`
	SubscribedAt time.Time `json:"subscribed_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// EventKind names a lead lifecycle event.
type EventKind string

// Lead events emitted after a row is written.
const (
	EventContactCreated    EventKind = "contact.created"
	EventSubscriberCreated EventKind = "subscriber.created"
)

// Event is fanned out to notification sinks after a successful insert.
// Trace holds the originating request's propagation headers (traceparent and
// friends) so asynchronous sinks can continue the trace.
type Event struct {
	Kind       EventKind         `json:"kind"`
	OccurredAt time.Time         `json:"occurred_at"`
	Contact    *Contact          `json:"contact,omitempty"`
	Subscriber *Subscriber       `json:"subscriber,omitempty"`
	Trace      map[string]string `json:"-"`
}

// NormalizeEmail lower-cases and trims an address for storage and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
