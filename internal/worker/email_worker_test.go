package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailWorker_SendsWithAttachment(t *testing.T) {
	fastRetries(t)
	storage := newMemStorage()
	storage.objects["reports/a.pdf"] = []byte("%PDF-1.3")
	mailer := &stubMailer{enabled: true}
	w := NewEmailWorker(mailer, storage, (&deadLetters{}).record)

	w.Process(context.Background(), mustJSON(EmailJobPayload{
		To:                 "gerant@baobab.ci",
		Subject:            "Clôture",
		Body:               "ci-joint",
		Attachment:         "reports/a.pdf",
		AttachmentFilename: "fiche.pdf",
	}))

	require.Len(t, mailer.sent, 1)
	msg := mailer.sent[0]
	assert.Equal(t, []string{"gerant@baobab.ci"}, msg.To)
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "fiche.pdf", msg.Attachments[0].Filename)
	assert.Equal(t, []byte("%PDF-1.3"), msg.Attachments[0].Data)
}

func TestEmailWorker_DisabledMailerSkips(t *testing.T) {
	mailer := &stubMailer{enabled: false}
	w := NewEmailWorker(mailer, newMemStorage(), (&deadLetters{}).record)
	w.Process(context.Background(), mustJSON(EmailJobPayload{To: "a@b.ci", Subject: "x"}))
	assert.Zero(t, mailer.calls)
}

func TestEmailWorker_EmptyRecipientSkips(t *testing.T) {
	mailer := &stubMailer{enabled: true}
	w := NewEmailWorker(mailer, newMemStorage(), (&deadLetters{}).record)
	w.Process(context.Background(), mustJSON(EmailJobPayload{Subject: "x"}))
	assert.Zero(t, mailer.calls)
}

func TestEmailWorker_PersistentFailureGoesToDLQ(t *testing.T) {
	fastRetries(t)
	mailer := &stubMailer{enabled: true, err: errors.New("connection refused")}
	dlq := &deadLetters{}
	w := NewEmailWorker(mailer, newMemStorage(), dlq.record)

	w.Process(context.Background(), mustJSON(EmailJobPayload{To: "a@b.ci", Subject: "x"}))

	assert.Equal(t, maxEmailAttempts, mailer.calls)
	require.Len(t, dlq.entries, 1)
	assert.Equal(t, QueueEmail, dlq.entries[0].OriginalQueue)
	assert.Contains(t, dlq.entries[0].Reason, "connection refused")
}

func TestEmailWorker_MissingAttachmentGoesToDLQ(t *testing.T) {
	mailer := &stubMailer{enabled: true}
	dlq := &deadLetters{}
	w := NewEmailWorker(mailer, newMemStorage(), dlq.record)

	w.Process(context.Background(), mustJSON(EmailJobPayload{To: "a@b.ci", Attachment: "missing.pdf"}))

	assert.Zero(t, mailer.calls)
	assert.Len(t, dlq.entries, 1)
}
