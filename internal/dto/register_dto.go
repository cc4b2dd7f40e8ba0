package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OpenRegisterRequest struct {
	OpeningBalance decimal.Decimal `json:"opening_balance" validate:"min=0"`
	Observations   *string         `json:"observations"`
}

type CloseRegisterRequest struct {
	// ClosingBalance is the cash amount counted by the operator.
	ClosingBalance decimal.Decimal `json:"closing_balance" validate:"min=0"`
	Observations   *string         `json:"observations"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// SummaryResponse is the reconciliation breakdown for a session.
// Totals cover completed payments only.
type SummaryResponse struct {
	SalesTotal        decimal.Decimal `json:"sales_total"`
	ExpensesTotal     decimal.Decimal `json:"expenses_total"`
	DebtPaymentsTotal decimal.Decimal `json:"debt_payments_total"`
	ExpectedBalance   decimal.Decimal `json:"expected_balance"`
}

// DiscrepancyResponse is declared minus expected at close time.
// Negative = shortage, positive = surplus.
type DiscrepancyResponse struct {
	Amount decimal.Decimal `json:"amount"`
}

type CloseRegisterResponse struct {
	SessionID      string              `json:"session_id"`
	Summary        SummaryResponse     `json:"summary"`
	ClosingBalance decimal.Decimal     `json:"closing_balance"`
	Discrepancy    DiscrepancyResponse `json:"discrepancy"`
	Status         string              `json:"status"`
}

// RegisterViewResponse combines the session core fields with the derived
// summary and the payment list. When the summary cannot be computed
// (ledger unavailable) the core fields are still populated and
// SummaryAvailable is false.
type RegisterViewResponse struct {
	SessionID        string            `json:"session_id"`
	Status           string            `json:"status"`
	OpeningBalance   decimal.Decimal   `json:"opening_balance"`
	CurrentBalance   decimal.Decimal   `json:"current_balance"`
	ClosingBalance   *decimal.Decimal  `json:"closing_balance,omitempty"`
	Discrepancy      *decimal.Decimal  `json:"discrepancy,omitempty"`
	OpenedBy         string            `json:"opened_by"`
	ClosedBy         *string           `json:"closed_by,omitempty"`
	Observations     *string           `json:"observations,omitempty"`
	OpenedAt         string            `json:"opened_at"`
	ClosedAt         *string           `json:"closed_at,omitempty"`
	Summary          *SummaryResponse  `json:"summary,omitempty"`
	SummaryAvailable bool              `json:"summary_available"`
	Payments         []PaymentResponse `json:"payments"`
}

type RegisterListResponse struct {
	Data  []RegisterViewResponse `json:"data"`
	Page  int                    `json:"page"`
	Limit int                    `json:"limit"`
	Total int64                  `json:"total"`
}
