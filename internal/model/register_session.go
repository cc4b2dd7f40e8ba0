package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SessionStatus is the register session lifecycle state.
// A session is created "open" and transitions exactly once to "closed".
type SessionStatus string

const (
	SessionOpen   SessionStatus = "open"
	SessionClosed SessionStatus = "closed"
)

// RegisterSession represents the lifecycle of a cash drawer: a bounded
// period between an open and a close during which payments may be attached.
// At most one row with status='open' may exist — enforced by a partial
// unique index (see infra.applySchemaPatches), not by application checks.
type RegisterSession struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Status         SessionStatus   `gorm:"type:varchar(20);not null;default:'open';index"`
	OpeningBalance decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// CurrentBalance is derived from payments while open and frozen at the
	// expected balance computed at close time. Reads recompute from the
	// ledger; this column exists for reporting on closed sessions.
	CurrentBalance decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// ClosingBalance is the amount declared (counted) by the closing
	// operator. Present only once closed.
	ClosingBalance *decimal.Decimal `gorm:"type:decimal(12,2)"`
	OpenedBy       uuid.UUID        `gorm:"type:uuid;not null"`
	ClosedBy       *uuid.UUID       `gorm:"type:uuid"`
	Observations   *string
	OpenedAt       time.Time
	ClosedAt       *time.Time

	Payments []Payment `gorm:"foreignKey:RegisterSessionID"`
}

func (RegisterSession) TableName() string { return "register_sessions" }

// IsOpen reports whether payments may still be attached to the session.
func (s *RegisterSession) IsOpen() bool { return s.Status == SessionOpen }
