package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentType classifies a monetary movement against the register.
// Tipo: "sale" (revenue in) | "expense" (funds out) | "debt_payment"
// (collection of a previously owed amount, in).
type PaymentType string

const (
	PaymentSale        PaymentType = "sale"
	PaymentExpense     PaymentType = "expense"
	PaymentDebtPayment PaymentType = "debt_payment"
)

// PaymentMethod is the instrument used for the movement. Closed set —
// adding a method is a breaking change for API consumers.
type PaymentMethod string

const (
	MethodCash           PaymentMethod = "cash"
	MethodCreditCard     PaymentMethod = "credit_card"
	MethodDebitCard      PaymentMethod = "debit_card"
	MethodPix            PaymentMethod = "pix"
	MethodBankSlip       PaymentMethod = "bank_slip"
	MethodCheck          PaymentMethod = "check"
	MethodPromissoryNote PaymentMethod = "promissory_note"
	MethodMercadoPago    PaymentMethod = "mercado_pago"
)

// PaymentStatus drives inclusion in balances and summaries.
// Payments are created "completed", except checks awaiting compensation
// which start "pending" and only count once compensated. Cancellation is
// a soft transition completed→cancelled — the record is retained for
// audit and the amount is never mutated.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentCancelled PaymentStatus = "cancelled"
)

// Payment is an entry in the register ledger. Its RegisterSessionID must
// reference a session that was open at creation time and is never
// re-pointed afterwards.
type Payment struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RegisterSessionID uuid.UUID       `gorm:"type:uuid;index;not null"`
	Type              PaymentType     `gorm:"type:varchar(20);not null"`
	Method            PaymentMethod   `gorm:"type:varchar(20);not null"`
	Amount            decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status            PaymentStatus   `gorm:"type:varchar(20);not null;index"`
	Date              time.Time       `gorm:"not null"`
	// Category is free-form and only meaningful for expenses.
	Category    string `gorm:"type:varchar(60)"`
	Description string

	Installments *Installment `gorm:"embedded;embeddedPrefix:installment_"`
	Check        *CheckDetail `gorm:"embedded;embeddedPrefix:check_"`

	CancelledAt *time.Time
	CancelledBy *uuid.UUID `gorm:"type:uuid"`
	CreatedBy   uuid.UUID  `gorm:"type:uuid;not null"`
	CreatedAt   time.Time
}

func (Payment) TableName() string { return "payments" }

// Installment describes a credit payment split across N charges.
type Installment struct {
	Current int             `gorm:"column:current"`
	Total   int             `gorm:"column:total"`
	Value   decimal.Decimal `gorm:"column:value;type:decimal(12,2)"`
}

// CheckDetail carries the bank check metadata for method="check".
// Compensated flips when the bank clears the check; until then the
// payment stays pending and is excluded from all sums.
type CheckDetail struct {
	Bank        string `gorm:"column:bank;type:varchar(60)"`
	Number      string `gorm:"column:number;type:varchar(30)"`
	Holder      string `gorm:"column:holder;type:varchar(120)"`
	Compensated bool   `gorm:"column:compensated"`
}

// IsCancelled reports whether the payment was soft-cancelled.
func (p *Payment) IsCancelled() bool { return p.Status == PaymentCancelled }

// CountsTowardBalance reports whether the payment enters balance and
// summary computations. Only completed payments count; pending checks
// and cancelled payments never do.
func (p *Payment) CountsTowardBalance() bool { return p.Status == PaymentCompleted }

// SignedAmount returns the payment's contribution to the register
// balance: positive for sales and debt collections, negative for
// expenses.
func (p *Payment) SignedAmount() decimal.Decimal {
	if p.Type == PaymentExpense {
		return p.Amount.Neg()
	}
	return p.Amount
}
