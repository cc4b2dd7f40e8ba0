package service

import (
	"context"
	"fmt"
	"time"

	"caixapos/internal/apierror"
	"caixapos/internal/dto"
	"caixapos/internal/model"
	"caixapos/internal/repository"

	"github.com/google/uuid"
)

type PaymentService interface {
	// Create attaches a payment to the referenced session, which must be
	// open. Check payments start pending until compensation; everything
	// else is created completed.
	Create(ctx context.Context, operatorID uuid.UUID, req dto.CreatePaymentRequest) (*dto.PaymentResponse, error)
	// Cancel soft-cancels a completed or pending payment. Permitted even
	// after the owning session is closed — summaries recompute from
	// current payment state, so the cancellation retroactively changes
	// re-queried totals.
	Cancel(ctx context.Context, paymentID, operatorID uuid.UUID) (*dto.PaymentResponse, error)
	// CompensateCheck marks a pending check as cleared by the bank; the
	// payment becomes completed and starts counting toward balances.
	CompensateCheck(ctx context.Context, paymentID uuid.UUID) (*dto.PaymentResponse, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]dto.PaymentResponse, error)
}

type paymentService struct {
	ledger    repository.PaymentRepository
	registers repository.RegisterRepository
}

func NewPaymentService(ledger repository.PaymentRepository, registers repository.RegisterRepository) PaymentService {
	return &paymentService{ledger: ledger, registers: registers}
}

// ── Create ────────────────────────────────────────────────────────────────────

func (s *paymentService) Create(ctx context.Context, operatorID uuid.UUID, req dto.CreatePaymentRequest) (*dto.PaymentResponse, error) {
	sessionID, err := uuid.Parse(req.RegisterSessionID)
	if err != nil {
		return nil, apierror.Invalid(fmt.Sprintf("invalid register_session_id: %v", err))
	}
	if !req.Amount.IsPositive() {
		return nil, apierror.Invalid("amount must be positive")
	}
	if model.PaymentMethod(req.Method) == model.MethodCheck && req.Check == nil {
		return nil, apierror.Invalid("check payments require check details")
	}
	if model.PaymentType(req.Type) != model.PaymentExpense && req.Category != "" {
		return nil, apierror.Invalid("category is only valid for expenses")
	}

	session, err := s.registers.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsOpen() {
		return nil, apierror.InvalidState("register session is closed — payments can no longer be attached")
	}

	payment := &model.Payment{
		RegisterSessionID: session.ID,
		Type:              model.PaymentType(req.Type),
		Method:            model.PaymentMethod(req.Method),
		Amount:            req.Amount.Round(2),
		Status:            model.PaymentCompleted,
		Date:              time.Now(),
		Category:          req.Category,
		Description:       req.Description,
		CreatedBy:         operatorID,
	}
	if req.Installments != nil {
		payment.Installments = &model.Installment{
			Current: req.Installments.Current,
			Total:   req.Installments.Total,
			Value:   req.Installments.Value.Round(2),
		}
	}
	if req.Check != nil {
		payment.Check = &model.CheckDetail{
			Bank:   req.Check.Bank,
			Number: req.Check.Number,
			Holder: req.Check.Holder,
		}
		// Pending is a display state for uncompensated checks; the amount
		// does not enter the balance until the bank clears it.
		payment.Status = model.PaymentPending
	}

	if err := s.ledger.Create(ctx, payment); err != nil {
		return nil, err
	}

	resp := paymentToResponse(payment)
	return &resp, nil
}

// ── Cancel ────────────────────────────────────────────────────────────────────

func (s *paymentService) Cancel(ctx context.Context, paymentID, operatorID uuid.UUID) (*dto.PaymentResponse, error) {
	payment, err := s.ledger.FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.IsCancelled() {
		return nil, apierror.InvalidState("payment is already cancelled")
	}

	now := time.Now()
	payment.Status = model.PaymentCancelled
	payment.CancelledAt = &now
	payment.CancelledBy = &operatorID

	if err := s.ledger.UpdateStatus(ctx, payment); err != nil {
		return nil, err
	}

	resp := paymentToResponse(payment)
	return &resp, nil
}

// ── CompensateCheck ───────────────────────────────────────────────────────────

func (s *paymentService) CompensateCheck(ctx context.Context, paymentID uuid.UUID) (*dto.PaymentResponse, error) {
	payment, err := s.ledger.FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Method != model.MethodCheck || payment.Check == nil {
		return nil, apierror.Invalid("payment is not a check")
	}
	if payment.Status != model.PaymentPending {
		return nil, apierror.InvalidState("check is not awaiting compensation")
	}

	payment.Status = model.PaymentCompleted
	payment.Check.Compensated = true

	if err := s.ledger.UpdateStatus(ctx, payment); err != nil {
		return nil, err
	}

	resp := paymentToResponse(payment)
	return &resp, nil
}

// ── ListBySession ─────────────────────────────────────────────────────────────

func (s *paymentService) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]dto.PaymentResponse, error) {
	if _, err := s.registers.FindByID(ctx, sessionID); err != nil {
		return nil, err
	}
	payments, err := s.ledger.FindBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.PaymentResponse, 0, len(payments))
	for i := range payments {
		resp = append(resp, paymentToResponse(&payments[i]))
	}
	return resp, nil
}
