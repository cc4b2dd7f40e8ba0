package service

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"caixapos/internal/apierror"
	"caixapos/internal/dto"
	"caixapos/internal/model"
	"caixapos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── In-memory RegisterRepository ─────────────────────────────────────────────

// fakeRegisterRepo guards its state with a mutex so the single-open and
// single-close guarantees hold under concurrent calls, like the partial
// unique index and conditional update do against real Postgres.
type fakeRegisterRepo struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*model.RegisterSession
}

func newFakeRegisterRepo() *fakeRegisterRepo {
	return &fakeRegisterRepo{sessions: make(map[uuid.UUID]*model.RegisterSession)}
}

func (r *fakeRegisterRepo) CreateOpen(_ context.Context, s *model.RegisterSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Mirrors the partial unique index: at most one open session.
	for _, existing := range r.sessions {
		if existing.Status == model.SessionOpen {
			return apierror.Conflict("a register session is already open")
		}
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.Status = model.SessionOpen
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *fakeRegisterRepo) FindByID(_ context.Context, id uuid.UUID) (*model.RegisterSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, apierror.NotFound("register session not found")
	}
	cp := *s
	return &cp, nil
}

func (r *fakeRegisterRepo) FindOpen(_ context.Context) (*model.RegisterSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.Status == model.SessionOpen {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeRegisterRepo) UpdateOnClose(_ context.Context, s *model.RegisterSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Mirrors the conditional UPDATE ... WHERE status='open': the loser of
	// a concurrent double close gets an invalid-state error.
	existing, ok := r.sessions[s.ID]
	if !ok || existing.Status != model.SessionOpen {
		return apierror.InvalidState("register session is already closed")
	}
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *fakeRegisterRepo) ListClosed(_ context.Context, page, limit int) ([]model.RegisterSession, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var closed []model.RegisterSession
	for _, s := range r.sessions {
		if s.Status == model.SessionClosed {
			closed = append(closed, *s)
		}
	}
	sort.Slice(closed, func(i, j int) bool {
		return closed[i].ClosedAt.After(*closed[j].ClosedAt)
	})
	total := int64(len(closed))
	start := (page - 1) * limit
	if start >= len(closed) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(closed) {
		end = len(closed)
	}
	return closed[start:end], total, nil
}

var _ repository.RegisterRepository = (*fakeRegisterRepo)(nil)

// ── In-memory PaymentRepository ──────────────────────────────────────────────

type fakePaymentRepo struct {
	payments []model.Payment
	// listErr makes FindBySession fail, simulating an unreachable ledger.
	listErr error
}

func (r *fakePaymentRepo) Create(_ context.Context, p *model.Payment) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	r.payments = append(r.payments, *p)
	return nil
}

func (r *fakePaymentRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Payment, error) {
	for i := range r.payments {
		if r.payments[i].ID == id {
			cp := r.payments[i]
			return &cp, nil
		}
	}
	return nil, apierror.NotFound("payment not found")
}

func (r *fakePaymentRepo) FindBySession(_ context.Context, sessionID uuid.UUID) ([]model.Payment, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var result []model.Payment
	for _, p := range r.payments {
		if p.RegisterSessionID == sessionID {
			result = append(result, p)
		}
	}
	return result, nil
}

func (r *fakePaymentRepo) UpdateStatus(_ context.Context, p *model.Payment) error {
	for i := range r.payments {
		if r.payments[i].ID == p.ID {
			r.payments[i].Status = p.Status
			r.payments[i].CancelledAt = p.CancelledAt
			r.payments[i].CancelledBy = p.CancelledBy
			if p.Check != nil && r.payments[i].Check != nil {
				r.payments[i].Check.Compensated = p.Check.Compensated
			}
			return nil
		}
	}
	return apierror.NotFound("payment not found")
}

var _ repository.PaymentRepository = (*fakePaymentRepo)(nil)

func newRegisterFixture() (*fakeRegisterRepo, *fakePaymentRepo, RegisterService) {
	regRepo := newFakeRegisterRepo()
	payRepo := &fakePaymentRepo{}
	views := NewViewService(regRepo, payRepo)
	svc := NewRegisterService(regRepo, payRepo, views, nil)
	return regRepo, payRepo, svc
}

func addPayment(repo *fakePaymentRepo, sessionID uuid.UUID, typ model.PaymentType, amount float64) uuid.UUID {
	p := model.Payment{
		ID:                uuid.New(),
		RegisterSessionID: sessionID,
		Type:              typ,
		Method:            model.MethodCash,
		Amount:            decimal.NewFromFloat(amount),
		Status:            model.PaymentCompleted,
		Date:              time.Now(),
		CreatedBy:         uuid.New(),
	}
	repo.payments = append(repo.payments, p)
	return p.ID
}

// ── Open ─────────────────────────────────────────────────────────────────────

func TestOpenRegister(t *testing.T) {
	_, _, svc := newRegisterFixture()

	view, err := svc.Open(context.Background(), uuid.New(), dto.OpenRegisterRequest{
		OpeningBalance: decimal.NewFromFloat(100),
	})

	require.NoError(t, err)
	assert.Equal(t, "open", view.Status)
	assert.Equal(t, "100", view.OpeningBalance.String())
	assert.Equal(t, "100", view.CurrentBalance.String())
	assert.True(t, view.SummaryAvailable)
}

func TestOpenRegisterZeroBalance(t *testing.T) {
	_, _, svc := newRegisterFixture()

	view, err := svc.Open(context.Background(), uuid.New(), dto.OpenRegisterRequest{
		OpeningBalance: decimal.Zero,
	})

	require.NoError(t, err)
	assert.True(t, view.CurrentBalance.IsZero())
}

func TestOpenRegisterNegativeBalance(t *testing.T) {
	_, _, svc := newRegisterFixture()

	_, err := svc.Open(context.Background(), uuid.New(), dto.OpenRegisterRequest{
		OpeningBalance: decimal.NewFromFloat(-50),
	})

	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindValidation))
}

func TestOpenRegisterWhileAnotherOpen(t *testing.T) {
	_, _, svc := newRegisterFixture()

	_, err := svc.Open(context.Background(), uuid.New(), dto.OpenRegisterRequest{
		OpeningBalance: decimal.NewFromFloat(100),
	})
	require.NoError(t, err)

	// Second open must surface the store-level conflict.
	_, err = svc.Open(context.Background(), uuid.New(), dto.OpenRegisterRequest{
		OpeningBalance: decimal.NewFromFloat(200),
	})
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindConflict))
}

func TestOpenRegisterConcurrent(t *testing.T) {
	_, _, svc := newRegisterFixture()

	const attempts = 8
	var wg sync.WaitGroup
	var successes, conflicts int32
	start := make(chan struct{})

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.Open(context.Background(), uuid.New(), dto.OpenRegisterRequest{
				OpeningBalance: decimal.NewFromFloat(100),
			})
			switch {
			case err == nil:
				atomic.AddInt32(&successes, 1)
			case apierror.IsKind(err, apierror.KindConflict):
				atomic.AddInt32(&conflicts, 1)
			}
		}()
	}
	close(start)
	wg.Wait()

	// Exactly one open wins, every other attempt conflicts.
	assert.Equal(t, int32(1), successes)
	assert.Equal(t, int32(attempts-1), conflicts)
}

// ── Close ────────────────────────────────────────────────────────────────────

func TestCloseRegisterExactMatch(t *testing.T) {
	_, payRepo, svc := newRegisterFixture()

	view, err := svc.Open(context.Background(), uuid.New(), dto.OpenRegisterRequest{
		OpeningBalance: decimal.NewFromFloat(100),
	})
	require.NoError(t, err)
	sessionID := uuid.MustParse(view.SessionID)

	addPayment(payRepo, sessionID, model.PaymentSale, 50)
	addPayment(payRepo, sessionID, model.PaymentExpense, 20)

	// Expected: 100 + 50 − 20 = 130. Declare exactly that.
	resp, err := svc.Close(context.Background(), sessionID, dto.CloseRegisterRequest{
		ClosingBalance: decimal.NewFromFloat(130),
	}, uuid.New())

	require.NoError(t, err)
	assert.Equal(t, "closed", resp.Status)
	assert.Equal(t, "130", resp.Summary.ExpectedBalance.String())
	assert.True(t, resp.Discrepancy.Amount.IsZero())
}

func TestCloseRegisterShortage(t *testing.T) {
	_, payRepo, svc := newRegisterFixture()

	view, err := svc.Open(context.Background(), uuid.New(), dto.OpenRegisterRequest{
		OpeningBalance: decimal.NewFromFloat(100),
	})
	require.NoError(t, err)
	sessionID := uuid.MustParse(view.SessionID)

	addPayment(payRepo, sessionID, model.PaymentSale, 50)

	// Expected 150, declared 145 → shortage of 5. Close still succeeds.
	resp, err := svc.Close(context.Background(), sessionID, dto.CloseRegisterRequest{
		ClosingBalance: decimal.NewFromFloat(145),
	}, uuid.New())

	require.NoError(t, err)
	assert.Equal(t, "-5", resp.Discrepancy.Amount.String())
	assert.Equal(t, "closed", resp.Status)
}

func TestCloseRegisterAlreadyClosed(t *testing.T) {
	_, _, svc := newRegisterFixture()

	view, err := svc.Open(context.Background(), uuid.New(), dto.OpenRegisterRequest{
		OpeningBalance: decimal.NewFromFloat(100),
	})
	require.NoError(t, err)
	sessionID := uuid.MustParse(view.SessionID)

	_, err = svc.Close(context.Background(), sessionID, dto.CloseRegisterRequest{
		ClosingBalance: decimal.NewFromFloat(100),
	}, uuid.New())
	require.NoError(t, err)

	_, err = svc.Close(context.Background(), sessionID, dto.CloseRegisterRequest{
		ClosingBalance: decimal.NewFromFloat(100),
	}, uuid.New())
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindInvalidState))
}

func TestCloseRegisterUnknownID(t *testing.T) {
	_, _, svc := newRegisterFixture()

	_, err := svc.Close(context.Background(), uuid.New(), dto.CloseRegisterRequest{
		ClosingBalance: decimal.NewFromFloat(100),
	}, uuid.New())

	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindNotFound))
}

func TestCloseRegisterFreezesBalances(t *testing.T) {
	regRepo, payRepo, svc := newRegisterFixture()

	view, err := svc.Open(context.Background(), uuid.New(), dto.OpenRegisterRequest{
		OpeningBalance: decimal.NewFromFloat(100),
	})
	require.NoError(t, err)
	sessionID := uuid.MustParse(view.SessionID)

	addPayment(payRepo, sessionID, model.PaymentDebtPayment, 30)

	_, err = svc.Close(context.Background(), sessionID, dto.CloseRegisterRequest{
		ClosingBalance: decimal.NewFromFloat(125),
	}, uuid.New())
	require.NoError(t, err)

	stored := regRepo.sessions[sessionID]
	require.NotNil(t, stored.ClosingBalance)
	assert.Equal(t, "125", stored.ClosingBalance.String())
	assert.Equal(t, "130", stored.CurrentBalance.String())
	assert.NotNil(t, stored.ClosedAt)
	assert.NotNil(t, stored.ClosedBy)
}

func TestCloseRegisterConcurrent(t *testing.T) {
	regRepo, _, svc := newRegisterFixture()

	view, err := svc.Open(context.Background(), uuid.New(), dto.OpenRegisterRequest{
		OpeningBalance: decimal.NewFromFloat(100),
	})
	require.NoError(t, err)
	sessionID := uuid.MustParse(view.SessionID)

	const attempts = 4
	var wg sync.WaitGroup
	var successes, invalidState int32
	closers := make([]uuid.UUID, attempts)
	start := make(chan struct{})

	for i := 0; i < attempts; i++ {
		closers[i] = uuid.New()
		wg.Add(1)
		go func(operator uuid.UUID) {
			defer wg.Done()
			<-start
			_, err := svc.Close(context.Background(), sessionID, dto.CloseRegisterRequest{
				ClosingBalance: decimal.NewFromFloat(100),
			}, operator)
			switch {
			case err == nil:
				atomic.AddInt32(&successes, 1)
			case apierror.IsKind(err, apierror.KindInvalidState):
				atomic.AddInt32(&invalidState, 1)
			}
		}(closers[i])
	}
	close(start)
	wg.Wait()

	// One close wins; the losers fail instead of overwriting its
	// closed_by/closed_at fields.
	assert.Equal(t, int32(1), successes)
	assert.Equal(t, int32(attempts-1), invalidState)

	stored := regRepo.sessions[sessionID]
	require.NotNil(t, stored.ClosedBy)
	assert.Contains(t, closers, *stored.ClosedBy)
	assert.Equal(t, model.SessionClosed, stored.Status)
}

// ── Reads ────────────────────────────────────────────────────────────────────

func TestGetOpenNone(t *testing.T) {
	_, _, svc := newRegisterFixture()

	view, err := svc.GetOpen(context.Background())
	require.NoError(t, err)
	assert.Nil(t, view)
}

func TestGetOpenReturnsCurrentSession(t *testing.T) {
	_, payRepo, svc := newRegisterFixture()

	opened, err := svc.Open(context.Background(), uuid.New(), dto.OpenRegisterRequest{
		OpeningBalance: decimal.NewFromFloat(200),
	})
	require.NoError(t, err)
	sessionID := uuid.MustParse(opened.SessionID)

	addPayment(payRepo, sessionID, model.PaymentSale, 75.50)

	view, err := svc.GetOpen(context.Background())
	require.NoError(t, err)
	require.NotNil(t, view)
	assert.Equal(t, opened.SessionID, view.SessionID)
	assert.Equal(t, "275.5", view.CurrentBalance.String())
	assert.Len(t, view.Payments, 1)
}

func TestHistoryListsClosedNewestFirst(t *testing.T) {
	_, _, svc := newRegisterFixture()

	for i := 0; i < 3; i++ {
		view, err := svc.Open(context.Background(), uuid.New(), dto.OpenRegisterRequest{
			OpeningBalance: decimal.NewFromFloat(100),
		})
		require.NoError(t, err)
		_, err = svc.Close(context.Background(), uuid.MustParse(view.SessionID), dto.CloseRegisterRequest{
			ClosingBalance: decimal.NewFromFloat(100),
		}, uuid.New())
		require.NoError(t, err)
		time.Sleep(time.Millisecond)
	}

	list, err := svc.History(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Len(t, list.Data, 2)
	assert.Equal(t, int64(3), list.Total)
	require.NotNil(t, list.Data[0].ClosedAt)
	require.NotNil(t, list.Data[1].ClosedAt)
	assert.GreaterOrEqual(t, *list.Data[0].ClosedAt, *list.Data[1].ClosedAt)
}
