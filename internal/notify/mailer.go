// Package notify turns lead events into notifications for the sales team.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/JakeFAU/marketing-site/internal/site"
)

// SESAPI is the subset of the SES v2 client used by Mailer.
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// MailerConfig addresses notification emails.
type MailerConfig struct {
	From     string
	FromName string
	To       []string
}

// Mailer emails the sales inbox for each new contact.
type Mailer struct {
	client    SESAPI
	cfg       MailerConfig
	templates *Templates
}

// NewMailer constructs a Mailer.
func NewMailer(client SESAPI, cfg MailerConfig) (*Mailer, error) {
	if client == nil {
		return nil, errors.New("ses client is required")
	}
	if cfg.From == "" || len(cfg.To) == 0 {
		return nil, errors.New("from and to addresses are required")
	}
	templates, err := NewTemplates()
	if err != nil {
		return nil, err
	}
	return &Mailer{client: client, cfg: cfg, templates: templates}, nil
}

// NewSESClient builds an SES v2 client. Static credentials are used when
// both keys are set, otherwise the default AWS credential chain applies.
func NewSESClient(ctx context.Context, region, accessKey, secretKey string) (*sesv2.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return sesv2.NewFromConfig(cfg), nil
}

// Name implements site.EventSink.
func (m *Mailer) Name() string { return "email" }

// Deliver sends a notification for contact.created events and ignores the rest.
func (m *Mailer) Deliver(ctx context.Context, event site.Event) error {
	if event.Kind != site.EventContactCreated || event.Contact == nil {
		return nil
	}
	subject, body, err := m.templates.RenderContact(*event.Contact)
	if err != nil {
		return err
	}

	from := m.cfg.From
	if m.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", m.cfg.FromName, m.cfg.From)
	}
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination:      &types.Destination{ToAddresses: append([]string(nil), m.cfg.To...)},
		ReplyToAddresses: []string{event.Contact.Email},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body), Charset: aws.String("UTF-8")},
				},
			},
		},
		EmailTags: []types.MessageTag{
			{Name: aws.String("event"), Value: aws.String("contact_created")},
		},
	}
	if _, err := m.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("ses send email: %w", err)
	}
	return nil
}
