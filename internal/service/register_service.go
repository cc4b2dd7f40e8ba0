package service

import (
	"context"
	"time"

	"caixapos/internal/apierror"
	"caixapos/internal/dto"
	"caixapos/internal/model"
	"caixapos/internal/repository"
	"caixapos/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type RegisterService interface {
	// Open creates the single open session. Fails with a conflict error
	// when another session is already open — the repository's atomic
	// insert decides, not a prior read.
	Open(ctx context.Context, operatorID uuid.UUID, req dto.OpenRegisterRequest) (*dto.RegisterViewResponse, error)
	// Close reconciles the declared closing balance against the ledger,
	// freezes the session and returns the result. Shortages and surpluses
	// are reported, never rejected.
	Close(ctx context.Context, sessionID uuid.UUID, req dto.CloseRegisterRequest, operatorID uuid.UUID) (*dto.CloseRegisterResponse, error)
	// GetOpen returns the currently open session view, or (nil, nil)
	// when no register is open.
	GetOpen(ctx context.Context) (*dto.RegisterViewResponse, error)
	Summarize(ctx context.Context, sessionID uuid.UUID) (*dto.SummaryResponse, error)
	History(ctx context.Context, page, limit int) (*dto.RegisterListResponse, error)
}

type registerService struct {
	repo       repository.RegisterRepository
	ledger     repository.PaymentRepository
	views      ViewService
	dispatcher *worker.Dispatcher
}

// NewRegisterService wires the session lifecycle manager. dispatcher may
// be nil (unit tests); then no close-report job is enqueued.
func NewRegisterService(
	repo repository.RegisterRepository,
	ledger repository.PaymentRepository,
	views ViewService,
	dispatcher *worker.Dispatcher,
) RegisterService {
	return &registerService{repo: repo, ledger: ledger, views: views, dispatcher: dispatcher}
}

// ── Open ──────────────────────────────────────────────────────────────────────

func (s *registerService) Open(ctx context.Context, operatorID uuid.UUID, req dto.OpenRegisterRequest) (*dto.RegisterViewResponse, error) {
	if req.OpeningBalance.IsNegative() {
		return nil, apierror.Invalid("opening balance must not be negative")
	}

	session := &model.RegisterSession{
		Status:         model.SessionOpen,
		OpeningBalance: req.OpeningBalance,
		CurrentBalance: req.OpeningBalance,
		OpenedBy:       operatorID,
		Observations:   req.Observations,
		OpenedAt:       time.Now(),
	}
	// CreateOpen is atomic: on a concurrent double-open exactly one insert
	// succeeds and the other surfaces as a conflict, leaving no partial
	// session behind.
	if err := s.repo.CreateOpen(ctx, session); err != nil {
		return nil, err
	}

	return s.views.BuildView(session, nil), nil
}

// ── Close ─────────────────────────────────────────────────────────────────────

func (s *registerService) Close(ctx context.Context, sessionID uuid.UUID, req dto.CloseRegisterRequest, operatorID uuid.UUID) (*dto.CloseRegisterResponse, error) {
	if req.ClosingBalance.IsNegative() {
		return nil, apierror.Invalid("closing balance must not be negative")
	}

	session, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsOpen() {
		return nil, apierror.InvalidState("register session is already closed")
	}

	payments, err := s.ledger.FindBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	rec := Reconcile(session.OpeningBalance, req.ClosingBalance, payments)

	now := time.Now()
	closing := rec.ClosingBalance
	session.Status = model.SessionClosed
	session.CurrentBalance = rec.Summary.ExpectedBalance
	session.ClosingBalance = &closing
	session.ClosedBy = &operatorID
	session.ClosedAt = &now
	if req.Observations != nil {
		session.Observations = req.Observations
	}

	// A failed update leaves the session open and untouched — partial
	// closes are never persisted.
	if err := s.repo.UpdateOnClose(ctx, session); err != nil {
		return nil, err
	}

	resp := &dto.CloseRegisterResponse{
		SessionID:      session.ID.String(),
		Summary:        summaryToResponse(rec.Summary),
		ClosingBalance: rec.ClosingBalance,
		Discrepancy:    dto.DiscrepancyResponse{Amount: rec.Discrepancy},
		Status:         string(model.SessionClosed),
	}

	// Best-effort: the close succeeded regardless of report delivery.
	if s.dispatcher != nil {
		job := worker.CloseReportJobPayload{SessionID: session.ID.String()}
		if err := s.dispatcher.EnqueueCloseReport(ctx, job); err != nil {
			log.Error().Err(err).Str("session_id", job.SessionID).Msg("failed to enqueue close report")
		}
	}

	return resp, nil
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (s *registerService) GetOpen(ctx context.Context) (*dto.RegisterViewResponse, error) {
	session, err := s.repo.FindOpen(ctx)
	if err != nil || session == nil {
		return nil, err
	}
	return s.views.GetSessionView(ctx, session.ID)
}

func (s *registerService) Summarize(ctx context.Context, sessionID uuid.UUID) (*dto.SummaryResponse, error) {
	session, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	payments, err := s.ledger.FindBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	resp := summaryToResponse(Summarize(session.OpeningBalance, payments))
	return &resp, nil
}

func (s *registerService) History(ctx context.Context, page, limit int) (*dto.RegisterListResponse, error) {
	sessions, total, err := s.repo.ListClosed(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	data := make([]dto.RegisterViewResponse, 0, len(sessions))
	for i := range sessions {
		view, err := s.views.GetSessionView(ctx, sessions[i].ID)
		if err != nil {
			return nil, err
		}
		data = append(data, *view)
	}
	return &dto.RegisterListResponse{Data: data, Page: page, Limit: limit, Total: total}, nil
}

func summaryToResponse(sum Summary) dto.SummaryResponse {
	return dto.SummaryResponse{
		SalesTotal:        sum.SalesTotal,
		ExpensesTotal:     sum.ExpensesTotal,
		DebtPaymentsTotal: sum.DebtPaymentsTotal,
		ExpectedBalance:   sum.ExpectedBalance,
	}
}
