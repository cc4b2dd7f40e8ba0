package repository

import (
	"context"
	"errors"
	"strings"

	"caixapos/internal/apierror"
	"caixapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RegisterRepository persists register sessions.
//
// CreateOpen is the atomicity contract for the single-open invariant:
// the insert and the "no other open session" check happen in one
// statement, backed by the partial unique index on status='open'
// (see infra.applySchemaPatches). A naive check-then-create would leave
// a race window where two concurrent opens both succeed.
type RegisterRepository interface {
	// CreateOpen inserts a new open session. Returns apierror.Conflict
	// when another open session already exists.
	CreateOpen(ctx context.Context, s *model.RegisterSession) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.RegisterSession, error)
	// FindOpen returns the single open session, or (nil, nil) when none.
	FindOpen(ctx context.Context) (*model.RegisterSession, error)
	// UpdateOnClose persists the close-time fields, conditional on the row
	// still being open. Returns apierror.InvalidState when another close
	// won the race.
	UpdateOnClose(ctx context.Context, s *model.RegisterSession) error
	// ListClosed returns closed sessions newest-first, paginated.
	ListClosed(ctx context.Context, page, limit int) ([]model.RegisterSession, int64, error)
}

type registerRepo struct{ db *gorm.DB }

func NewRegisterRepository(db *gorm.DB) RegisterRepository { return &registerRepo{db: db} }

func (r *registerRepo) CreateOpen(ctx context.Context, s *model.RegisterSession) error {
	s.Status = model.SessionOpen
	err := r.db.WithContext(ctx).Create(s).Error
	if err != nil && isUniqueViolation(err) {
		return apierror.Conflict("a register session is already open")
	}
	return err
}

func (r *registerRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.RegisterSession, error) {
	var s model.RegisterSession
	err := r.db.WithContext(ctx).First(&s, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("register session not found")
	}
	return &s, err
}

func (r *registerRepo) FindOpen(ctx context.Context) (*model.RegisterSession, error) {
	var s model.RegisterSession
	err := r.db.WithContext(ctx).Where("status = ?", model.SessionOpen).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *registerRepo) UpdateOnClose(ctx context.Context, s *model.RegisterSession) error {
	// Conditional update: two concurrent closes both read the session as
	// open, but only the first matches status='open' here. The loser sees
	// zero rows affected instead of silently overwriting closed_by/closed_at.
	res := r.db.WithContext(ctx).
		Model(&model.RegisterSession{}).
		Where("id = ? AND status = ?", s.ID, model.SessionOpen).
		Updates(map[string]interface{}{
			"status":          s.Status,
			"current_balance": s.CurrentBalance,
			"closing_balance": s.ClosingBalance,
			"closed_by":       s.ClosedBy,
			"closed_at":       s.ClosedAt,
			"observations":    s.Observations,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apierror.InvalidState("register session is already closed")
	}
	return nil
}

func (r *registerRepo) ListClosed(ctx context.Context, page, limit int) ([]model.RegisterSession, int64, error) {
	var sessions []model.RegisterSession
	var total int64

	q := r.db.WithContext(ctx).Model(&model.RegisterSession{}).Where("status = ?", model.SessionClosed)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("closed_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&sessions).Error
	return sessions, total, err
}

// isUniqueViolation detects the Postgres duplicate-key error (SQLSTATE
// 23505) raised by the single-open partial unique index.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "SQLSTATE 23505") ||
		strings.Contains(err.Error(), "duplicate key")
}
