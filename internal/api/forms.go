package api

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/marketing-site/internal/logging"
	"github.com/JakeFAU/marketing-site/internal/metrics"
	"github.com/JakeFAU/marketing-site/internal/site"
	"github.com/JakeFAU/marketing-site/internal/validate"
)

// Client-facing messages for the form endpoints.
const (
	msgValidation        = "Validation error"
	msgContactThanks     = "Thank you for your message! We'll get back to you soon."
	msgContactFailed     = "Failed to submit contact form. Please try again later."
	msgSubscribed        = "Successfully subscribed to the newsletter!"
	msgAlreadySubscribed = "You're already subscribed!"
	msgSubscribeFailed   = "Failed to subscribe. Please try again later."
)

type contactResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	ContactID int64  `json:"contactId"`
}

func (s *Server) createContact(w http.ResponseWriter, r *http.Request) {
	var form site.ContactForm
	if err := decodeJSON(w, r, &form); err != nil {
		metrics.ObserveForm("contact", metrics.OutcomeInvalid)
		writeJSON(w, http.StatusBadRequest, response{
			Message: msgValidation,
			Error:   validate.FieldErrors{"body": "Invalid JSON body"},
		})
		return
	}
	if errs := validate.ValidateContact(form); errs != nil {
		metrics.ObserveForm("contact", metrics.OutcomeInvalid)
		writeJSON(w, http.StatusBadRequest, response{Message: msgValidation, Error: errs})
		return
	}

	ip := clientIP(r)
	if decision := s.deps.Spam.Screen(form.Message); !decision.Persist {
		metrics.ObserveForm("contact", metrics.OutcomeSpam)
		s.logger.Warn("spam contact submission dropped",
			zap.String("reason", decision.Reason),
			logging.Email("email", form.Email),
			zap.String("ip", ip),
		)
		writeJSON(w, http.StatusCreated, contactResponse{
			Success:   true,
			Message:   msgContactThanks,
			ContactID: s.now().UnixMilli(),
		})
		return
	}

	attribution := form.Attribution
	if attribution.Referrer == "" {
		attribution.Referrer = r.Referer()
	}
	contact, err := s.deps.Contacts.CreateContact(r.Context(), site.Contact{
		Name:        strings.TrimSpace(form.Name),
		Email:       site.NormalizeEmail(form.Email),
		Phone:       strings.TrimSpace(form.Phone),
		Company:     strings.TrimSpace(form.Company),
		Interest:    strings.TrimSpace(form.Interest),
		Message:     strings.TrimSpace(form.Message),
		IPAddress:   ip,
		UserAgent:   r.UserAgent(),
		Status:      site.ContactStatusNew,
		Attribution: attribution,
	})
	if err != nil {
		metrics.ObserveForm("contact", metrics.OutcomeError)
		s.logger.Error("contact insert failed", logging.Email("email", form.Email), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, response{Message: msgContactFailed, Error: s.detail(err)})
		return
	}

	metrics.ObserveForm("contact", metrics.OutcomeCreated)
	s.logger.Info("contact created", zap.Int64("contact_id", contact.ID), logging.Email("email", contact.Email))
	s.publish(r.Context(), site.Event{Kind: site.EventContactCreated, OccurredAt: s.now(), Contact: &contact})

	writeJSON(w, http.StatusCreated, contactResponse{
		Success:   true,
		Message:   msgContactThanks,
		ContactID: contact.ID,
	})
}

func (s *Server) subscribe(w http.ResponseWriter, r *http.Request) {
	var form site.SubscribeForm
	if err := decodeJSON(w, r, &form); err != nil {
		metrics.ObserveForm("subscribe", metrics.OutcomeInvalid)
		writeJSON(w, http.StatusBadRequest, response{Message: "Invalid JSON body"})
		return
	}
	if msg := validate.ValidateSubscription(form.Email); msg != "" {
		metrics.ObserveForm("subscribe", metrics.OutcomeInvalid)
		writeJSON(w, http.StatusBadRequest, response{Message: msg})
		return
	}

	email := site.NormalizeEmail(form.Email)
	_, found, err := s.deps.Subscribers.FindSubscriber(r.Context(), email)
	if err != nil {
		s.subscribeFailed(w, email, err)
		return
	}
	if found {
		s.alreadySubscribed(w)
		return
	}

	sub, err := s.deps.Subscribers.CreateSubscriber(r.Context(), site.Subscriber{
		Email:       email,
		Name:        strings.TrimSpace(form.Name),
		UTMSource:   form.UTMSource,
		UTMMedium:   form.UTMMedium,
		UTMCampaign: form.UTMCampaign,
		IPAddress:   clientIP(r),
	})
	if errors.Is(err, site.ErrAlreadySubscribed) {
		s.alreadySubscribed(w)
		return
	}
	if err != nil {
		s.subscribeFailed(w, email, err)
		return
	}

	metrics.ObserveForm("subscribe", metrics.OutcomeCreated)
	s.logger.Info("subscriber created", zap.Int64("subscriber_id", sub.ID), logging.Email("email", sub.Email))
	s.publish(r.Context(), site.Event{Kind: site.EventSubscriberCreated, OccurredAt: s.now(), Subscriber: &sub})

	writeJSON(w, http.StatusCreated, response{Success: true, Message: msgSubscribed})
}

func (s *Server) alreadySubscribed(w http.ResponseWriter) {
	metrics.ObserveForm("subscribe", metrics.OutcomeDuplicate)
	writeJSON(w, http.StatusOK, response{Success: true, Message: msgAlreadySubscribed})
}

func (s *Server) subscribeFailed(w http.ResponseWriter, email string, err error) {
	metrics.ObserveForm("subscribe", metrics.OutcomeError)
	s.logger.Error("subscribe failed", logging.Email("email", email), zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, response{Message: msgSubscribeFailed, Error: s.detail(err)})
}
