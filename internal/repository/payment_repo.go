package repository

import (
	"context"
	"errors"

	"caixapos/internal/apierror"
	"caixapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentRepository is the payment ledger store. Payments are created
// and status-transitioned, never deleted — cancellation keeps the row
// for audit.
type PaymentRepository interface {
	Create(ctx context.Context, p *model.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Payment, error)
	// FindBySession returns all payments for a session, every status,
	// oldest-first.
	FindBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Payment, error)
	// UpdateStatus persists a status transition plus the cancellation
	// audit fields when present. Amount and session reference are never
	// touched.
	UpdateStatus(ctx context.Context, p *model.Payment) error
}

type paymentRepo struct{ db *gorm.DB }

func NewPaymentRepository(db *gorm.DB) PaymentRepository { return &paymentRepo{db: db} }

func (r *paymentRepo) Create(ctx context.Context, p *model.Payment) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *paymentRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	var p model.Payment
	err := r.db.WithContext(ctx).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("payment not found")
	}
	return &p, err
}

func (r *paymentRepo) FindBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Payment, error) {
	var payments []model.Payment
	err := r.db.WithContext(ctx).
		Where("register_session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&payments).Error
	return payments, err
}

func (r *paymentRepo) UpdateStatus(ctx context.Context, p *model.Payment) error {
	updates := map[string]interface{}{
		"status":            p.Status,
		"check_compensated": p.Check != nil && p.Check.Compensated,
		"cancelled_at":      p.CancelledAt,
		"cancelled_by":      p.CancelledBy,
	}
	if p.Check == nil {
		delete(updates, "check_compensated")
	}
	return r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Where("id = ?", p.ID).
		Updates(updates).Error
}
