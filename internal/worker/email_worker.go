package worker

// email_worker.go sends account notifications and closure reports. The
// attachment, when any, is read back from storage by name so the queue only
// carries small payloads.

import (
	"context"
	"encoding/json"
	"fmt"

	"ravito/internal/infra"

	"github.com/rs/zerolog/log"
)

const maxEmailAttempts = 3

type EmailJobPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	// Attachment is a storage name; AttachmentFilename is what the recipient sees.
	Attachment         string `json:"attachment,omitempty"`
	AttachmentFilename string `json:"attachment_filename,omitempty"`
}

// Mailer is implemented by *infra.Mailer.
type Mailer interface {
	Enabled() bool
	Send(msg infra.Message) error
}

// ObjectReader is the read half of infra.Storage.
type ObjectReader interface {
	Get(ctx context.Context, name string) ([]byte, error)
}

type EmailWorker struct {
	mailer  Mailer
	storage ObjectReader
	dlq     DeadLetterFunc
}

func NewEmailWorker(mailer Mailer, storage ObjectReader, dlq DeadLetterFunc) *EmailWorker {
	return &EmailWorker{mailer: mailer, storage: storage, dlq: dlq}
}

func (w *EmailWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("email_worker: invalid payload")
		return
	}
	if payload.To == "" {
		log.Warn().Msg("email_worker: empty recipient, skipping")
		return
	}
	if !w.mailer.Enabled() {
		log.Debug().Str("to", payload.To).Str("subject", payload.Subject).Msg("email_worker: SMTP not configured, skipping")
		return
	}

	msg := infra.Message{To: []string{payload.To}, Subject: payload.Subject, Text: payload.Body}
	if payload.Attachment != "" {
		data, err := w.storage.Get(ctx, payload.Attachment)
		if err != nil {
			log.Error().Err(err).Str("attachment", payload.Attachment).Msg("email_worker: attachment unavailable")
			w.dlq(ctx, QueueEmail, JobEmail, raw, fmt.Sprintf("attachment: %v", err), 0)
			return
		}
		msg.Attachments = []infra.Attachment{{
			Filename:    payload.AttachmentFilename,
			ContentType: "application/pdf",
			Data:        data,
		}}
	}

	err := withRetry(ctx, maxEmailAttempts, func(attempt int) error {
		err := w.mailer.Send(msg)
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempt+1).Str("to", payload.To).Msg("email_worker: send failed")
		}
		return err
	})
	if err != nil {
		w.dlq(ctx, QueueEmail, JobEmail, raw, err.Error(), maxEmailAttempts)
		return
	}
	log.Info().Str("to", payload.To).Str("subject", payload.Subject).Msg("email_worker: sent")
}
