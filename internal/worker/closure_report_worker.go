package worker

// closure_report_worker.go renders the PDF of a closed daily sheet, stores it
// and mails it to the organization owner. Failures are recorded on the sheet;
// the retry cron picks them up again until MaxReportAttempts.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ravito/internal/closure"
	"ravito/internal/infra"
	"ravito/internal/model"
	"ravito/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// MaxReportAttempts bounds the number of failed report runs per sheet.
const MaxReportAttempts = 5

type ClosureReportPayload struct {
	SheetID string `json:"sheet_id"`
}

// ObjectWriter is the write half of infra.Storage.
type ObjectWriter interface {
	Put(ctx context.Context, name string, data []byte, contentType string) (string, error)
}

type emailEnqueuer interface {
	EnqueueEmail(ctx context.Context, payload EmailJobPayload) error
}

type ClosureReportConfig struct {
	Sheets            repository.DailySheetRepository
	Orgs              repository.OrganizationRepository
	Users             repository.UserRepository
	Storage           ObjectWriter
	Emails            emailEnqueuer
	DeadLetter        DeadLetterFunc
	LowStockThreshold int
	// EstablishmentFallback titles the PDF when the organization has no name.
	EstablishmentFallback string
}

type ClosureReportWorker struct {
	cfg ClosureReportConfig
	now func() time.Time
}

func NewClosureReportWorker(cfg ClosureReportConfig) *ClosureReportWorker {
	return &ClosureReportWorker{cfg: cfg, now: time.Now}
}

// ReportName is the storage name of a sheet's PDF.
func ReportName(sheet *model.DailySheet) string {
	return fmt.Sprintf("reports/%s/fiche-%s.pdf", sheet.OrganizationID, sheet.SheetDate.Format("2006-01-02"))
}

func (w *ClosureReportWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload ClosureReportPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("closure_report: invalid payload")
		return
	}
	sheetID, err := uuid.Parse(payload.SheetID)
	if err != nil {
		log.Error().Str("sheet_id", payload.SheetID).Msg("closure_report: invalid sheet_id")
		return
	}

	sheet, err := w.cfg.Sheets.FindByID(ctx, sheetID)
	if err != nil {
		log.Error().Err(err).Str("sheet_id", payload.SheetID).Msg("closure_report: sheet not found")
		return
	}
	if sheet.Status != model.SheetClosed {
		log.Warn().Str("sheet_id", payload.SheetID).Msg("closure_report: sheet is not closed, skipping")
		return
	}
	if sheet.ReportPath != nil {
		log.Debug().Str("sheet_id", payload.SheetID).Msg("closure_report: already produced")
		return
	}

	name := w.cfg.EstablishmentFallback
	if org, err := w.cfg.Orgs.FindByID(ctx, sheet.OrganizationID); err == nil && org.Name != "" {
		name = org.Name
	}

	pdf, err := infra.DailySheetPDF(name, sheet, closure.Summarize(sheet, w.cfg.LowStockThreshold))
	if err != nil {
		w.fail(ctx, sheet, raw, err)
		return
	}

	var path string
	err = withRetry(ctx, 3, func(attempt int) error {
		p, err := w.cfg.Storage.Put(ctx, ReportName(sheet), pdf, "application/pdf")
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempt+1).Str("sheet_id", payload.SheetID).Msg("closure_report: store failed")
			return err
		}
		path = p
		return nil
	})
	if err != nil {
		w.fail(ctx, sheet, raw, err)
		return
	}

	if err := w.cfg.Sheets.RecordReport(ctx, sheet.ID, path); err != nil {
		log.Error().Err(err).Str("sheet_id", payload.SheetID).Msg("closure_report: could not record report path")
		return
	}
	log.Info().Str("sheet_id", payload.SheetID).Str("path", path).Msg("closure_report: stored")

	to, err := w.cfg.Users.FindOwnerEmail(ctx, sheet.OrganizationID)
	if err != nil || to == "" {
		return
	}
	date := sheet.SheetDate.Format("02/01/2006")
	if err := w.cfg.Emails.EnqueueEmail(ctx, EmailJobPayload{
		To:                 to,
		Subject:            fmt.Sprintf("Clôture du %s - %s", date, name),
		Body:               fmt.Sprintf("Bonjour,\n\nVous trouverez ci-joint la fiche journalière du %s.\n\nRAVITO", date),
		Attachment:         ReportName(sheet),
		AttachmentFilename: fmt.Sprintf("fiche-%s.pdf", sheet.SheetDate.Format("2006-01-02")),
	}); err != nil {
		log.Error().Err(err).Str("sheet_id", payload.SheetID).Msg("closure_report: could not enqueue email")
	}
}

func (w *ClosureReportWorker) fail(ctx context.Context, sheet *model.DailySheet, raw json.RawMessage, cause error) {
	attempts := sheet.ReportAttempts + 1
	next := w.now().Add(reportBackoff(attempts))
	if err := w.cfg.Sheets.RecordReportFailure(ctx, sheet.ID, cause.Error(), next); err != nil {
		log.Error().Err(err).Str("sheet_id", sheet.ID.String()).Msg("closure_report: could not record failure")
	}
	if attempts >= MaxReportAttempts {
		w.cfg.DeadLetter(ctx, QueueClosureReport, JobClosureReport, raw,
			fmt.Sprintf("max attempts (%d) exceeded: %v", MaxReportAttempts, cause), attempts)
		return
	}
	log.Warn().Err(cause).Str("sheet_id", sheet.ID.String()).Int("attempts", attempts).
		Time("next_report_at", next).Msg("closure_report: failed, scheduled retry")
}

// reportBackoff is 1, 2, 4, 8… minutes, capped at one hour.
func reportBackoff(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	d := time.Minute << uint(attempts-1)
	if d > time.Hour {
		return time.Hour
	}
	return d
}
