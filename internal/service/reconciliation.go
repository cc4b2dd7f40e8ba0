package service

// reconciliation.go — balance accumulation and close-time reconciliation.
// Pure functions over a payment slice: no I/O, no mutation, safe to call
// repeatedly. The running balance is always recomputed from the ledger
// rather than kept as a stored counter, so it cannot drift.

import (
	"caixapos/internal/model"

	"github.com/shopspring/decimal"
)

// Summary classifies and totals a session's payments by type.
// Only completed payments count: cancelled payments are excluded, and so
// are pending ones (checks awaiting bank compensation).
type Summary struct {
	SalesTotal        decimal.Decimal
	ExpensesTotal     decimal.Decimal
	DebtPaymentsTotal decimal.Decimal
	ExpectedBalance   decimal.Decimal
}

// Reconciliation is the close-time comparison of the declared (counted)
// closing balance against the computed expected balance.
type Reconciliation struct {
	Summary        Summary
	ClosingBalance decimal.Decimal
	// Discrepancy = declared − expected. Negative = shortage, positive =
	// surplus. Informational only; a non-zero value never blocks a close.
	Discrepancy decimal.Decimal
}

// Summarize totals the session's payments grouped by type and derives
// expectedBalance = opening + sales + debtPayments − expenses.
// The sum is commutative, so payment ordering is irrelevant. A session
// with zero payments summarizes to expectedBalance = openingBalance.
func Summarize(openingBalance decimal.Decimal, payments []model.Payment) Summary {
	sales := decimal.Zero
	expenses := decimal.Zero
	debts := decimal.Zero

	for i := range payments {
		p := &payments[i]
		if !p.CountsTowardBalance() {
			continue
		}
		switch p.Type {
		case model.PaymentSale:
			sales = sales.Add(p.Amount)
		case model.PaymentExpense:
			expenses = expenses.Add(p.Amount)
		case model.PaymentDebtPayment:
			debts = debts.Add(p.Amount)
		}
	}

	expected := openingBalance.Add(sales).Add(debts).Sub(expenses).Round(2)

	return Summary{
		SalesTotal:        sales.Round(2),
		ExpensesTotal:     expenses.Round(2),
		DebtPaymentsTotal: debts.Round(2),
		ExpectedBalance:   expected,
	}
}

// ComputeCurrentBalance derives the live balance for a session from its
// opening balance plus the signed contributions of completed payments.
// Single source of truth for "how much is in the register right now".
func ComputeCurrentBalance(openingBalance decimal.Decimal, payments []model.Payment) decimal.Decimal {
	balance := openingBalance
	for i := range payments {
		p := &payments[i]
		if !p.CountsTowardBalance() {
			continue
		}
		balance = balance.Add(p.SignedAmount())
	}
	return balance.Round(2)
}

// Reconcile computes the summary and the discrepancy against the
// operator-declared closing balance.
func Reconcile(openingBalance, declaredClosing decimal.Decimal, payments []model.Payment) Reconciliation {
	summary := Summarize(openingBalance, payments)
	return Reconciliation{
		Summary:        summary,
		ClosingBalance: declaredClosing.Round(2),
		Discrepancy:    declaredClosing.Sub(summary.ExpectedBalance).Round(2),
	}
}
