package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type InstallmentRequest struct {
	Current int             `json:"current" validate:"required,min=1"`
	Total   int             `json:"total"   validate:"required,min=1"`
	Value   decimal.Decimal `json:"value"   validate:"required"`
}

type CheckRequest struct {
	Bank   string `json:"bank"   validate:"required,min=2"`
	Number string `json:"number" validate:"required,min=1"`
	Holder string `json:"holder" validate:"required,min=2"`
}

type CreatePaymentRequest struct {
	RegisterSessionID string          `json:"register_session_id" validate:"required,uuid"`
	Type              string          `json:"type"   validate:"required,oneof=sale expense debt_payment"`
	Method            string          `json:"method" validate:"required,oneof=cash credit_card debit_card pix bank_slip check promissory_note mercado_pago"`
	Amount            decimal.Decimal `json:"amount" validate:"required,gt=0"`
	// Category is only meaningful for expenses.
	Category     string              `json:"category"     validate:"omitempty,max=60"`
	Description  string              `json:"description"  validate:"omitempty,max=255"`
	Installments *InstallmentRequest `json:"installments"`
	Check        *CheckRequest       `json:"check"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type InstallmentResponse struct {
	Current int             `json:"current"`
	Total   int             `json:"total"`
	Value   decimal.Decimal `json:"value"`
}

type CheckResponse struct {
	Bank        string `json:"bank"`
	Number      string `json:"number"`
	Holder      string `json:"holder"`
	Compensated bool   `json:"compensated"`
}

type PaymentResponse struct {
	ID                string               `json:"id"`
	RegisterSessionID string               `json:"register_session_id"`
	Type              string               `json:"type"`
	Method            string               `json:"method"`
	Amount            decimal.Decimal      `json:"amount"`
	Status            string               `json:"status"`
	Date              string               `json:"date"`
	Category          string               `json:"category,omitempty"`
	Description       string               `json:"description,omitempty"`
	Installments      *InstallmentResponse `json:"installments,omitempty"`
	Check             *CheckResponse       `json:"check,omitempty"`
	CancelledAt       *string              `json:"cancelled_at,omitempty"`
	CancelledBy       *string              `json:"cancelled_by,omitempty"`
}
