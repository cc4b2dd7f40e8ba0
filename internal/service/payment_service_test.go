package service

import (
	"context"
	"testing"

	"caixapos/internal/apierror"
	"caixapos/internal/dto"
	"caixapos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPaymentFixture(t *testing.T) (*fakeRegisterRepo, *fakePaymentRepo, PaymentService, uuid.UUID) {
	t.Helper()
	regRepo := newFakeRegisterRepo()
	payRepo := &fakePaymentRepo{}
	svc := NewPaymentService(payRepo, regRepo)

	session := &model.RegisterSession{
		OpeningBalance: decimal.NewFromFloat(100),
		CurrentBalance: decimal.NewFromFloat(100),
		OpenedBy:       uuid.New(),
	}
	require.NoError(t, regRepo.CreateOpen(context.Background(), session))
	return regRepo, payRepo, svc, session.ID
}

func TestCreatePaymentSale(t *testing.T) {
	_, payRepo, svc, sessionID := newPaymentFixture(t)

	resp, err := svc.Create(context.Background(), uuid.New(), dto.CreatePaymentRequest{
		RegisterSessionID: sessionID.String(),
		Type:              "sale",
		Method:            "pix",
		Amount:            decimal.NewFromFloat(50),
	})

	require.NoError(t, err)
	assert.Equal(t, "completed", resp.Status)
	assert.Equal(t, "50", resp.Amount.String())
	assert.Len(t, payRepo.payments, 1)
}

func TestCreatePaymentOnClosedSession(t *testing.T) {
	regRepo, _, svc, sessionID := newPaymentFixture(t)

	regRepo.sessions[sessionID].Status = model.SessionClosed

	_, err := svc.Create(context.Background(), uuid.New(), dto.CreatePaymentRequest{
		RegisterSessionID: sessionID.String(),
		Type:              "sale",
		Method:            "cash",
		Amount:            decimal.NewFromFloat(50),
	})

	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindInvalidState))
}

func TestCreatePaymentUnknownSession(t *testing.T) {
	_, _, svc, _ := newPaymentFixture(t)

	_, err := svc.Create(context.Background(), uuid.New(), dto.CreatePaymentRequest{
		RegisterSessionID: uuid.NewString(),
		Type:              "sale",
		Method:            "cash",
		Amount:            decimal.NewFromFloat(50),
	})

	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindNotFound))
}

func TestCreatePaymentNonPositiveAmount(t *testing.T) {
	_, _, svc, sessionID := newPaymentFixture(t)

	_, err := svc.Create(context.Background(), uuid.New(), dto.CreatePaymentRequest{
		RegisterSessionID: sessionID.String(),
		Type:              "sale",
		Method:            "cash",
		Amount:            decimal.Zero,
	})

	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindValidation))
}

func TestCreatePaymentCategoryOnlyForExpenses(t *testing.T) {
	_, _, svc, sessionID := newPaymentFixture(t)

	_, err := svc.Create(context.Background(), uuid.New(), dto.CreatePaymentRequest{
		RegisterSessionID: sessionID.String(),
		Type:              "sale",
		Method:            "cash",
		Amount:            decimal.NewFromFloat(10),
		Category:          "supplies",
	})
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindValidation))

	resp, err := svc.Create(context.Background(), uuid.New(), dto.CreatePaymentRequest{
		RegisterSessionID: sessionID.String(),
		Type:              "expense",
		Method:            "cash",
		Amount:            decimal.NewFromFloat(10),
		Category:          "supplies",
	})
	require.NoError(t, err)
	assert.Equal(t, "supplies", resp.Category)
}

func TestCreateCheckStartsPending(t *testing.T) {
	_, _, svc, sessionID := newPaymentFixture(t)

	resp, err := svc.Create(context.Background(), uuid.New(), dto.CreatePaymentRequest{
		RegisterSessionID: sessionID.String(),
		Type:              "sale",
		Method:            "check",
		Amount:            decimal.NewFromFloat(300),
		Check: &dto.CheckRequest{
			Bank:   "Bradesco",
			Number: "004589",
			Holder: "João Pereira",
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "pending", resp.Status)
	require.NotNil(t, resp.Check)
	assert.False(t, resp.Check.Compensated)
}

func TestCreateCheckWithoutDetails(t *testing.T) {
	_, _, svc, sessionID := newPaymentFixture(t)

	_, err := svc.Create(context.Background(), uuid.New(), dto.CreatePaymentRequest{
		RegisterSessionID: sessionID.String(),
		Type:              "sale",
		Method:            "check",
		Amount:            decimal.NewFromFloat(300),
	})

	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindValidation))
}

func TestCompensateCheck(t *testing.T) {
	_, payRepo, svc, sessionID := newPaymentFixture(t)

	created, err := svc.Create(context.Background(), uuid.New(), dto.CreatePaymentRequest{
		RegisterSessionID: sessionID.String(),
		Type:              "sale",
		Method:            "check",
		Amount:            decimal.NewFromFloat(300),
		Check: &dto.CheckRequest{
			Bank:   "Itaú",
			Number: "001234",
			Holder: "Maria Souza",
		},
	})
	require.NoError(t, err)

	// Pending check does not count yet.
	sum := Summarize(decimal.NewFromFloat(100), payRepo.payments)
	assert.Equal(t, "100", sum.ExpectedBalance.String())

	resp, err := svc.CompensateCheck(context.Background(), uuid.MustParse(created.ID))
	require.NoError(t, err)
	assert.Equal(t, "completed", resp.Status)
	require.NotNil(t, resp.Check)
	assert.True(t, resp.Check.Compensated)

	// Compensated check now enters the balance.
	sum = Summarize(decimal.NewFromFloat(100), payRepo.payments)
	assert.Equal(t, "400", sum.ExpectedBalance.String())

	// Second compensation is an invalid transition.
	_, err = svc.CompensateCheck(context.Background(), uuid.MustParse(created.ID))
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindInvalidState))
}

func TestCompensateNonCheck(t *testing.T) {
	_, _, svc, sessionID := newPaymentFixture(t)

	created, err := svc.Create(context.Background(), uuid.New(), dto.CreatePaymentRequest{
		RegisterSessionID: sessionID.String(),
		Type:              "sale",
		Method:            "cash",
		Amount:            decimal.NewFromFloat(50),
	})
	require.NoError(t, err)

	_, err = svc.CompensateCheck(context.Background(), uuid.MustParse(created.ID))
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindValidation))
}

func TestCancelPayment(t *testing.T) {
	_, payRepo, svc, sessionID := newPaymentFixture(t)
	supervisor := uuid.New()

	created, err := svc.Create(context.Background(), uuid.New(), dto.CreatePaymentRequest{
		RegisterSessionID: sessionID.String(),
		Type:              "sale",
		Method:            "cash",
		Amount:            decimal.NewFromFloat(50),
	})
	require.NoError(t, err)

	resp, err := svc.Cancel(context.Background(), uuid.MustParse(created.ID), supervisor)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", resp.Status)
	require.NotNil(t, resp.CancelledBy)
	assert.Equal(t, supervisor.String(), *resp.CancelledBy)
	assert.NotNil(t, resp.CancelledAt)

	// The record survives for audit, amount untouched.
	require.Len(t, payRepo.payments, 1)
	assert.Equal(t, "50", payRepo.payments[0].Amount.String())

	// Cancelled payments are excluded from sums.
	sum := Summarize(decimal.NewFromFloat(100), payRepo.payments)
	assert.Equal(t, "100", sum.ExpectedBalance.String())
}

func TestCancelAlreadyCancelled(t *testing.T) {
	_, _, svc, sessionID := newPaymentFixture(t)

	created, err := svc.Create(context.Background(), uuid.New(), dto.CreatePaymentRequest{
		RegisterSessionID: sessionID.String(),
		Type:              "sale",
		Method:            "cash",
		Amount:            decimal.NewFromFloat(50),
	})
	require.NoError(t, err)
	id := uuid.MustParse(created.ID)

	_, err = svc.Cancel(context.Background(), id, uuid.New())
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), id, uuid.New())
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindInvalidState))
}

func TestCancelAfterSessionClose(t *testing.T) {
	regRepo, payRepo, svc, sessionID := newPaymentFixture(t)

	created, err := svc.Create(context.Background(), uuid.New(), dto.CreatePaymentRequest{
		RegisterSessionID: sessionID.String(),
		Type:              "sale",
		Method:            "cash",
		Amount:            decimal.NewFromFloat(50),
	})
	require.NoError(t, err)

	// Close the owning session; cancellation is still allowed and
	// retroactively changes re-queried summaries.
	regRepo.sessions[sessionID].Status = model.SessionClosed

	sum := Summarize(decimal.NewFromFloat(100), payRepo.payments)
	assert.Equal(t, "150", sum.ExpectedBalance.String())

	_, err = svc.Cancel(context.Background(), uuid.MustParse(created.ID), uuid.New())
	require.NoError(t, err)

	sum = Summarize(decimal.NewFromFloat(100), payRepo.payments)
	assert.Equal(t, "100", sum.ExpectedBalance.String())
}

func TestListBySession(t *testing.T) {
	_, payRepo, svc, sessionID := newPaymentFixture(t)

	addPayment(payRepo, sessionID, model.PaymentSale, 50)
	addPayment(payRepo, sessionID, model.PaymentExpense, 20)
	addPayment(payRepo, uuid.New(), model.PaymentSale, 999)

	list, err := svc.ListBySession(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
