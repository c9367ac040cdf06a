package notify

import (
	"fmt"

	"github.com/osteele/liquid"

	"github.com/JakeFAU/marketing-site/internal/site"
)

const contactSubjectTemplate = `New {{ interest }} inquiry from {{ name }}{% if company != "" %} ({{ company }}){% endif %}`

const contactBodyTemplate = `A new contact form submission arrived.

Name:     {{ name }}
Email:    {{ email }}
{% if phone != "" %}Phone:    {{ phone }}
{% endif %}{% if company != "" %}Company:  {{ company }}
{% endif %}Interest: {{ interest }}

{{ message }}
{% if utm_source != "" %}
Source:   {{ utm_source }}{% if utm_medium != "" %} / {{ utm_medium }}{% endif %}{% if utm_campaign != "" %} ({{ utm_campaign }}){% endif %}
{% endif %}{% if referrer != "" %}Referrer: {{ referrer }}
{% endif %}
Contact #{{ id }} received {{ created_at }}.
`

// Templates renders notification emails with Liquid.
type Templates struct {
	subject *liquid.Template
	body    *liquid.Template
}

// NewTemplates parses the contact notification templates.
func NewTemplates() (*Templates, error) {
	engine := liquid.NewEngine()
	subject, serr := engine.ParseString(contactSubjectTemplate)
	if serr != nil {
		return nil, fmt.Errorf("parse subject template: %w", serr)
	}
	body, berr := engine.ParseString(contactBodyTemplate)
	if berr != nil {
		return nil, fmt.Errorf("parse body template: %w", berr)
	}
	return &Templates{subject: subject, body: body}, nil
}

// RenderContact returns the subject and plain-text body for contact.
func (t *Templates) RenderContact(contact site.Contact) (string, string, error) {
	bindings := liquid.Bindings{
		"id":           contact.ID,
		"name":         contact.Name,
		"email":        contact.Email,
		"phone":        contact.Phone,
		"company":      contact.Company,
		"interest":     contact.Interest,
		"message":      contact.Message,
		"utm_source":   contact.UTMSource,
		"utm_medium":   contact.UTMMedium,
		"utm_campaign": contact.UTMCampaign,
		"referrer":     contact.Referrer,
		"created_at":   contact.CreatedAt.Format("2006-01-02 15:04 MST"),
	}
	subject, serr := t.subject.RenderString(bindings)
	if serr != nil {
		return "", "", fmt.Errorf("render subject: %w", serr)
	}
	body, berr := t.body.RenderString(bindings)
	if berr != nil {
		return "", "", fmt.Errorf("render body: %w", berr)
	}
	return subject, body, nil
}
