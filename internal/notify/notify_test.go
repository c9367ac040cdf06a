package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/JakeFAU/marketing-site/internal/site"
)

type fakeSES struct {
	inputs []*sesv2.SendEmailInput
	err    error
}

func (f *fakeSES) SendEmail(
	_ context.Context,
	params *sesv2.SendEmailInput,
	_ ...func(*sesv2.Options),
) (*sesv2.SendEmailOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func sampleContact() *site.Contact {
	return &site.Contact{
		ID:        12,
		Name:      "Grace Hopper",
		Email:     "grace@example.com",
		Company:   "Navy",
		Interest:  "consulting",
		Message:   "We need a compiler.",
		CreatedAt: time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
		Attribution: site.Attribution{
			UTMSource: "linkedin",
		},
	}
}

func TestRenderContact(t *testing.T) {
	t.Parallel()

	tpl, err := NewTemplates()
	require.NoError(t, err)

	subject, body, err := tpl.RenderContact(*sampleContact())
	require.NoError(t, err)
	require.Equal(t, "New consulting inquiry from Grace Hopper (Navy)", subject)
	require.Contains(t, body, "Email:    grace@example.com")
	require.Contains(t, body, "Company:  Navy")
	require.NotContains(t, body, "Phone:")
	require.Contains(t, body, "Source:   linkedin")
	require.Contains(t, body, "Contact #12 received 2024-05-01 09:30 UTC.")
}

func TestMailerSendsContactNotification(t *testing.T) {
	t.Parallel()

	ses := &fakeSES{}
	m, err := NewMailer(ses, MailerConfig{From: "site@example.com", FromName: "Website", To: []string{"sales@example.com"}})
	require.NoError(t, err)
	require.Equal(t, "email", m.Name())

	require.NoError(t, m.Deliver(context.Background(), site.Event{Kind: site.EventContactCreated, Contact: sampleContact()}))
	require.Len(t, ses.inputs, 1)

	in := ses.inputs[0]
	require.Equal(t, "Website <site@example.com>", aws.ToString(in.FromEmailAddress))
	require.Equal(t, []string{"sales@example.com"}, in.Destination.ToAddresses)
	require.Equal(t, []string{"grace@example.com"}, in.ReplyToAddresses)
	require.Contains(t, aws.ToString(in.Content.Simple.Subject.Data), "Grace Hopper")
}

func TestMailerIgnoresSubscriberEvents(t *testing.T) {
	t.Parallel()

	ses := &fakeSES{}
	m, err := NewMailer(ses, MailerConfig{From: "site@example.com", To: []string{"sales@example.com"}})
	require.NoError(t, err)

	require.NoError(t, m.Deliver(context.Background(), site.Event{
		Kind:       site.EventSubscriberCreated,
		Subscriber: &site.Subscriber{Email: "reader@example.com"},
	}))
	require.Empty(t, ses.inputs)
}

func TestMailerWrapsSendErrors(t *testing.T) {
	t.Parallel()

	ses := &fakeSES{err: errors.New("MessageRejected")}
	m, err := NewMailer(ses, MailerConfig{From: "site@example.com", To: []string{"sales@example.com"}})
	require.NoError(t, err)

	err = m.Deliver(context.Background(), site.Event{Kind: site.EventContactCreated, Contact: sampleContact()})
	require.ErrorContains(t, err, "MessageRejected")
}

func TestNewMailerValidatesConfig(t *testing.T) {
	t.Parallel()

	_, err := NewMailer(nil, MailerConfig{From: "a@example.com", To: []string{"b@example.com"}})
	require.Error(t, err)
	_, err = NewMailer(&fakeSES{}, MailerConfig{From: "a@example.com"})
	require.Error(t, err)
}

func TestLogSinkRedactsEmail(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	sink := NewLogSink(zap.New(core))
	require.Equal(t, "log", sink.Name())

	require.NoError(t, sink.Deliver(context.Background(), site.Event{Kind: site.EventContactCreated, Contact: sampleContact()}))

	entries := logs.FilterMessage("lead event").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, "contact.created", fields["kind"])
	require.NotEqual(t, "grace@example.com", fields["email"])
	require.Contains(t, fields["email"], "@example.com")
}
