package service

import (
	"testing"

	"caixapos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func pay(typ model.PaymentType, status model.PaymentStatus, amount string) model.Payment {
	return model.Payment{
		ID:     uuid.New(),
		Type:   typ,
		Method: model.MethodCash,
		Amount: decimal.RequireFromString(amount),
		Status: status,
	}
}

func TestSummarizeEmptySession(t *testing.T) {
	sum := Summarize(decimal.NewFromFloat(100), nil)

	assert.True(t, sum.SalesTotal.IsZero())
	assert.True(t, sum.ExpensesTotal.IsZero())
	assert.True(t, sum.DebtPaymentsTotal.IsZero())
	assert.Equal(t, "100", sum.ExpectedBalance.String())
}

func TestSummarizeMixedPayments(t *testing.T) {
	payments := []model.Payment{
		pay(model.PaymentSale, model.PaymentCompleted, "50"),
		pay(model.PaymentExpense, model.PaymentCompleted, "20"),
		pay(model.PaymentDebtPayment, model.PaymentCompleted, "15.25"),
	}

	sum := Summarize(decimal.NewFromFloat(100), payments)

	assert.Equal(t, "50", sum.SalesTotal.String())
	assert.Equal(t, "20", sum.ExpensesTotal.String())
	assert.Equal(t, "15.25", sum.DebtPaymentsTotal.String())
	// 100 + 50 + 15.25 − 20
	assert.Equal(t, "145.25", sum.ExpectedBalance.String())
}

func TestSummarizeExcludesCancelled(t *testing.T) {
	payments := []model.Payment{
		pay(model.PaymentSale, model.PaymentCompleted, "50"),
		pay(model.PaymentSale, model.PaymentCancelled, "999"),
	}

	sum := Summarize(decimal.NewFromFloat(100), payments)

	assert.Equal(t, "50", sum.SalesTotal.String())
	assert.Equal(t, "150", sum.ExpectedBalance.String())
}

func TestSummarizeExcludesPendingChecks(t *testing.T) {
	check := pay(model.PaymentSale, model.PaymentPending, "300")
	check.Method = model.MethodCheck
	check.Check = &model.CheckDetail{Bank: "Itaú", Number: "001234", Holder: "Maria Souza"}

	sum := Summarize(decimal.NewFromFloat(100), []model.Payment{check})
	assert.Equal(t, "100", sum.ExpectedBalance.String())

	// After compensation the same check counts.
	check.Status = model.PaymentCompleted
	check.Check.Compensated = true
	sum = Summarize(decimal.NewFromFloat(100), []model.Payment{check})
	assert.Equal(t, "400", sum.ExpectedBalance.String())
}

func TestSummarizeOrderIndependent(t *testing.T) {
	a := []model.Payment{
		pay(model.PaymentSale, model.PaymentCompleted, "10.10"),
		pay(model.PaymentExpense, model.PaymentCompleted, "3.33"),
		pay(model.PaymentDebtPayment, model.PaymentCompleted, "7"),
	}
	b := []model.Payment{a[2], a[0], a[1]}

	sumA := Summarize(decimal.Zero, a)
	sumB := Summarize(decimal.Zero, b)

	assert.Equal(t, sumA.ExpectedBalance.String(), sumB.ExpectedBalance.String())
}

func TestComputeCurrentBalance(t *testing.T) {
	payments := []model.Payment{
		pay(model.PaymentSale, model.PaymentCompleted, "50"),
		pay(model.PaymentExpense, model.PaymentCompleted, "20"),
		pay(model.PaymentSale, model.PaymentCancelled, "40"),
	}

	balance := ComputeCurrentBalance(decimal.NewFromFloat(100), payments)

	// 100 + 50 − 20; the cancelled sale is ignored.
	assert.Equal(t, "130", balance.String())
}

func TestReconcileShortage(t *testing.T) {
	payments := []model.Payment{
		pay(model.PaymentSale, model.PaymentCompleted, "50"),
	}

	rec := Reconcile(decimal.NewFromFloat(100), decimal.NewFromFloat(145), payments)

	assert.Equal(t, "150", rec.Summary.ExpectedBalance.String())
	assert.Equal(t, "-5", rec.Discrepancy.String())
	assert.True(t, rec.Discrepancy.IsNegative())
}

func TestReconcileSurplus(t *testing.T) {
	rec := Reconcile(decimal.NewFromFloat(100), decimal.NewFromFloat(102.50), nil)

	assert.Equal(t, "2.5", rec.Discrepancy.String())
	assert.True(t, rec.Discrepancy.IsPositive())
}

func TestReconcileRounding(t *testing.T) {
	payments := []model.Payment{
		pay(model.PaymentSale, model.PaymentCompleted, "0.105"),
	}

	rec := Reconcile(decimal.Zero, decimal.Zero, payments)

	// Half-up at two decimals.
	assert.Equal(t, "0.11", rec.Summary.ExpectedBalance.String())
	assert.Equal(t, "-0.11", rec.Discrepancy.String())
}
