// Package notify e-mails staff when a new registration is stored.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/osteele/liquid"
	"github.com/samber/lo"

	"github.com/careconnect/intake/internal/config"
	"github.com/careconnect/intake/internal/domain"
	"github.com/careconnect/intake/internal/pkg/logger"
)

const (
	subjectTemplate = `New {{ kind }} registration: {{ headline }}`
	bodyTemplate    = `A new {{ kind }} registration was received at {{ timestamp }}.

{% for f in fields %}{{ f.name }}: {{ f.value }}
{% endfor %}
Stored as record #{{ id }} in {{ table }}.
`
)

// Sender is the subset of the SES v2 client used here.
type Sender interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESNotifier sends one plain-text message per stored registration.
type SESNotifier struct {
	sender     Sender
	from       string
	recipients []string
	timeout    time.Duration
	subject    *liquid.Template
	body       *liquid.Template
}

// NewSESClient builds an SES v2 client. Static credentials are used when both
// keys are set; otherwise the default AWS credential chain applies.
func NewSESClient(ctx context.Context, cfg config.NotifyConfig) (*sesv2.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return sesv2.NewFromConfig(awsCfg), nil
}

// NewSESNotifier compiles the message templates and returns a notifier that
// delivers through sender.
func NewSESNotifier(sender Sender, cfg config.NotifyConfig) (*SESNotifier, error) {
	engine := liquid.NewEngine()
	subject, err := engine.ParseString(subjectTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse subject template: %w", err)
	}
	body, err := engine.ParseString(bodyTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse body template: %w", err)
	}

	return &SESNotifier{
		sender:     sender,
		from:       cfg.From,
		recipients: cfg.Recipients,
		timeout:    cfg.Timeout(),
		subject:    subject,
		body:       body,
	}, nil
}

// Notify renders and sends the message for rec.
func (n *SESNotifier) Notify(ctx context.Context, schema domain.Schema, rec domain.Record) error {
	subject, body, err := n.render(schema, rec)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	out, err := n.sender.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(n.from),
		Destination:      &types.Destination{ToAddresses: n.recipients},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body), Charset: aws.String("UTF-8")},
				},
			},
		},
		EmailTags: []types.MessageTag{
			{Name: aws.String("kind"), Value: aws.String(string(schema.Kind))},
		},
	})
	if err != nil {
		return fmt.Errorf("send notification for %s #%d: %w", schema.Table, rec.ID, err)
	}

	logger.Info("registration notification sent",
		"kind", schema.Kind,
		"id", rec.ID,
		"recipients", strings.Join(n.recipients, ","),
		"message_id", aws.ToString(out.MessageId),
	)
	return nil
}

func (n *SESNotifier) render(schema domain.Schema, rec domain.Record) (string, string, error) {
	bindings := liquid.Bindings{
		"kind":      string(schema.Kind),
		"table":     schema.Table,
		"id":        rec.ID,
		"timestamp": rec.Timestamp,
		"headline":  rec.Value(schema.Required[0]),
		"fields": lo.Map(schema.Fields, func(f string, _ int) map[string]any {
			return map[string]any{"name": f, "value": rec.Value(f)}
		}),
	}

	subject, err := n.subject.RenderString(bindings)
	if err != nil {
		return "", "", fmt.Errorf("render subject: %w", err)
	}
	body, err := n.body.RenderString(bindings)
	if err != nil {
		return "", "", fmt.Errorf("render body: %w", err)
	}
	return subject, body, nil
}
