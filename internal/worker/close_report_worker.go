package worker

// close_report_worker.go
// Processes register close-report jobs from QueueCloseReport: renders the
// reconciliation PDF for the closed session and enqueues an email job so
// the supervisor receives it. The close itself already succeeded — this
// pipeline is delivery only, so failures go to the DLQ instead of
// affecting register state.

import (
	"context"
	"encoding/json"
	"fmt"

	"caixapos/internal/dto"
	"caixapos/internal/infra"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// CloseReportJobPayload is the job envelope sent to QueueCloseReport.
type CloseReportJobPayload struct {
	SessionID string `json:"session_id"`
}

// SessionViewProvider supplies the session projection the report is
// rendered from. Satisfied by service.ViewService; declared here to keep
// the dependency direction service → worker.
type SessionViewProvider interface {
	GetSessionView(ctx context.Context, sessionID uuid.UUID) (*dto.RegisterViewResponse, error)
}

type CloseReportWorker struct {
	views           SessionViewProvider
	dispatcher      *Dispatcher
	rdb             *redis.Client
	pdfStoragePath  string
	supervisorEmail string
}

func NewCloseReportWorker(
	views SessionViewProvider,
	dispatcher *Dispatcher,
	rdb *redis.Client,
	pdfStoragePath string,
	supervisorEmail string,
) *CloseReportWorker {
	return &CloseReportWorker{
		views:           views,
		dispatcher:      dispatcher,
		rdb:             rdb,
		pdfStoragePath:  pdfStoragePath,
		supervisorEmail: supervisorEmail,
	}
}

// Process handles a single close-report job:
//  1. Parse CloseReportJobPayload from the job envelope
//  2. Fetch the session view (session + summary + payments)
//  3. Render the reconciliation PDF
//  4. Enqueue an email job addressed to the supervisor
func (w *CloseReportWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload CloseReportJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("close_report_worker: invalid payload")
		return
	}

	sessionID, err := uuid.Parse(payload.SessionID)
	if err != nil {
		log.Error().Str("session_id", payload.SessionID).Msg("close_report_worker: invalid session_id")
		return
	}

	view, err := w.views.GetSessionView(ctx, sessionID)
	if err != nil {
		SendToDLQ(ctx, w.rdb, QueueCloseReport, "close_report", raw, fmt.Sprintf("fetch view: %v", err), 1)
		return
	}

	pdfPath, err := infra.GenerateCloseReportPDF(view, w.pdfStoragePath)
	if err != nil {
		SendToDLQ(ctx, w.rdb, QueueCloseReport, "close_report", raw, fmt.Sprintf("render pdf: %v", err), 1)
		return
	}
	log.Info().Str("session_id", payload.SessionID).Str("pdf", pdfPath).Msg("close_report_worker: report generated")

	if w.supervisorEmail == "" {
		log.Warn().Msg("close_report_worker: no supervisor email configured — skipping notification")
		return
	}

	emailJob := EmailJobPayload{
		ToEmail: w.supervisorEmail,
		Subject: fmt.Sprintf("Register close report — session %s", shortID(payload.SessionID)),
		Body:    closeReportBody(view),
		PDFPath: pdfPath,
	}
	if err := w.dispatcher.EnqueueEmail(ctx, emailJob); err != nil {
		SendToDLQ(ctx, w.rdb, QueueCloseReport, "close_report", raw, fmt.Sprintf("enqueue email: %v", err), 1)
	}
}

func closeReportBody(view *dto.RegisterViewResponse) string {
	body := fmt.Sprintf(
		"Register session %s was closed.\n\nOpening balance: %s\nExpected balance: %s\n",
		view.SessionID, view.OpeningBalance.StringFixed(2), view.CurrentBalance.StringFixed(2),
	)
	if view.ClosingBalance != nil {
		body += fmt.Sprintf("Declared closing balance: %s\n", view.ClosingBalance.StringFixed(2))
	}
	if view.Discrepancy != nil {
		body += fmt.Sprintf("Discrepancy: %s\n", view.Discrepancy.StringFixed(2))
	}
	return body + "\nThe full reconciliation report is attached."
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
