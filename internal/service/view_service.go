package service

import (
	"context"
	"time"

	"caixapos/internal/dto"
	"caixapos/internal/model"
	"caixapos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ViewService assembles the read-only session projection consumed by the
// UI and the PDF export: session core fields + derived summary + payment
// list. It never mutates state.
type ViewService interface {
	// GetSessionView returns the combined view. When the payment ledger
	// read fails, the session's core identity (dates, balances, status)
	// is still returned with SummaryAvailable=false instead of failing
	// the whole view.
	GetSessionView(ctx context.Context, sessionID uuid.UUID) (*dto.RegisterViewResponse, error)
	// BuildView maps an already-loaded session and payment set.
	BuildView(session *model.RegisterSession, payments []model.Payment) *dto.RegisterViewResponse
}

type viewService struct {
	repo   repository.RegisterRepository
	ledger repository.PaymentRepository
}

func NewViewService(repo repository.RegisterRepository, ledger repository.PaymentRepository) ViewService {
	return &viewService{repo: repo, ledger: ledger}
}

func (s *viewService) GetSessionView(ctx context.Context, sessionID uuid.UUID) (*dto.RegisterViewResponse, error) {
	session, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	payments, err := s.ledger.FindBySession(ctx, sessionID)
	if err != nil {
		// Degraded view: the register's identity must remain displayable
		// even when the movement breakdown cannot be computed.
		log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("payment ledger unavailable — partial view")
		view := s.buildCore(session)
		view.SummaryAvailable = false
		view.Payments = []dto.PaymentResponse{}
		return view, nil
	}

	return s.BuildView(session, payments), nil
}

func (s *viewService) BuildView(session *model.RegisterSession, payments []model.Payment) *dto.RegisterViewResponse {
	view := s.buildCore(session)

	sum := Summarize(session.OpeningBalance, payments)
	summary := summaryToResponse(sum)
	view.Summary = &summary
	view.SummaryAvailable = true

	// The live balance is always recomputed from the ledger, so a
	// post-close cancellation shows up in re-queried views (documented
	// trade-off: audit transparency over frozen snapshots).
	view.CurrentBalance = sum.ExpectedBalance
	if session.ClosingBalance != nil {
		d := session.ClosingBalance.Sub(sum.ExpectedBalance).Round(2)
		view.Discrepancy = &d
	}

	view.Payments = make([]dto.PaymentResponse, 0, len(payments))
	for i := range payments {
		view.Payments = append(view.Payments, paymentToResponse(&payments[i]))
	}
	return view
}

// buildCore maps the persisted session fields only — no ledger access.
func (s *viewService) buildCore(session *model.RegisterSession) *dto.RegisterViewResponse {
	view := &dto.RegisterViewResponse{
		SessionID:      session.ID.String(),
		Status:         string(session.Status),
		OpeningBalance: session.OpeningBalance,
		CurrentBalance: session.CurrentBalance,
		ClosingBalance: session.ClosingBalance,
		OpenedBy:       session.OpenedBy.String(),
		Observations:   session.Observations,
		OpenedAt:       session.OpenedAt.Format(time.RFC3339),
	}
	if session.ClosedBy != nil {
		cb := session.ClosedBy.String()
		view.ClosedBy = &cb
	}
	if session.ClosedAt != nil {
		ca := session.ClosedAt.Format(time.RFC3339)
		view.ClosedAt = &ca
	}
	return view
}

func paymentToResponse(p *model.Payment) dto.PaymentResponse {
	resp := dto.PaymentResponse{
		ID:                p.ID.String(),
		RegisterSessionID: p.RegisterSessionID.String(),
		Type:              string(p.Type),
		Method:            string(p.Method),
		Amount:            p.Amount,
		Status:            string(p.Status),
		Date:              p.Date.Format(time.RFC3339),
		Category:          p.Category,
		Description:       p.Description,
	}
	if p.Installments != nil {
		resp.Installments = &dto.InstallmentResponse{
			Current: p.Installments.Current,
			Total:   p.Installments.Total,
			Value:   p.Installments.Value,
		}
	}
	if p.Check != nil {
		resp.Check = &dto.CheckResponse{
			Bank:        p.Check.Bank,
			Number:      p.Check.Number,
			Holder:      p.Check.Holder,
			Compensated: p.Check.Compensated,
		}
	}
	if p.CancelledAt != nil {
		ca := p.CancelledAt.Format(time.RFC3339)
		resp.CancelledAt = &ca
	}
	if p.CancelledBy != nil {
		cb := p.CancelledBy.String()
		resp.CancelledBy = &cb
	}
	return resp
}
