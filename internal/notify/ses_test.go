package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careconnect/intake/internal/config"
	"github.com/careconnect/intake/internal/domain"
)

type fakeSender struct {
	inputs   []*sesv2.SendEmailInput
	deadline bool
	err      error
}

func (f *fakeSender) SendEmail(ctx context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	_, f.deadline = ctx.Deadline()
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func notifyConfig() config.NotifyConfig {
	return config.NotifyConfig{
		Enabled:        true,
		Region:         "us-east-1",
		From:           "intake@careconnect.test",
		Recipients:     []string{"staff@careconnect.test", "lead@careconnect.test"},
		TimeoutSeconds: 2,
	}
}

func volunteerRecord() (domain.Schema, domain.Record) {
	schema, _ := domain.SchemaFor(domain.KindVolunteer)
	return schema, domain.Record{
		ID:        42,
		Timestamp: "2026-04-01T12:00:00Z",
		Fields: map[string]string{
			"name":         "Jane Doe",
			"email":        "jane@example.com",
			"city":         "Austin",
			"availability": "weekends",
		},
	}
}

func TestNotify(t *testing.T) {
	sender := &fakeSender{}
	n, err := NewSESNotifier(sender, notifyConfig())
	require.NoError(t, err)

	schema, rec := volunteerRecord()
	require.NoError(t, n.Notify(context.Background(), schema, rec))

	require.Len(t, sender.inputs, 1)
	in := sender.inputs[0]
	assert.True(t, sender.deadline, "send runs under a timeout")
	assert.Equal(t, "intake@careconnect.test", aws.ToString(in.FromEmailAddress))
	assert.Equal(t, []string{"staff@careconnect.test", "lead@careconnect.test"}, in.Destination.ToAddresses)
	assert.Equal(t, "New volunteer registration: Jane Doe", aws.ToString(in.Content.Simple.Subject.Data))

	body := aws.ToString(in.Content.Simple.Body.Text.Data)
	assert.Contains(t, body, "received at 2026-04-01T12:00:00Z")
	assert.Contains(t, body, "name: Jane Doe\n")
	assert.Contains(t, body, "availability: weekends\n")
	assert.Contains(t, body, "interests: \n")
	assert.Contains(t, body, "record #42 in volunteers")
}

func TestNotify_SendError(t *testing.T) {
	sender := &fakeSender{err: errors.New("MessageRejected")}
	n, err := NewSESNotifier(sender, notifyConfig())
	require.NoError(t, err)

	schema, rec := volunteerRecord()
	err = n.Notify(context.Background(), schema, rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "volunteers #42")
	assert.Contains(t, err.Error(), "MessageRejected")
}

func TestNewSESNotifier_UsesConfiguredTimeout(t *testing.T) {
	n, err := NewSESNotifier(&fakeSender{}, notifyConfig())
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, n.timeout)
}
