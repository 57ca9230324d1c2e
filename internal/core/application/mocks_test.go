package application_test

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/voltbridge/voltbridge/internal/core/application"
	"github.com/voltbridge/voltbridge/internal/core/domain"
	"github.com/voltbridge/voltbridge/internal/core/ports"
)

// fakeLnService stands in for the payment rail. Answers are canned via the
// struct fields; call counters let tests assert what was never reached.
type fakeLnService struct {
	connected  bool
	balance    uint64
	balanceErr error
	invoice    *ports.LnInvoice
	invoiceErr error
	payment    *ports.LnPayment
	payErr     error

	invoiceCalls int
	payCalls     int
}

func (f *fakeLnService) Connect(ctx context.Context, connectUrl string) error {
	f.connected = true
	return nil
}

func (f *fakeLnService) IsConnected() bool {
	return f.connected
}

func (f *fakeLnService) GetInfo(ctx context.Context) (string, string, error) {
	return "test-wallet", "02abcdef", nil
}

func (f *fakeLnService) GetBalance(ctx context.Context) (uint64, error) {
	return f.balance, f.balanceErr
}

func (f *fakeLnService) MakeInvoice(
	ctx context.Context, amountSat uint64, description string, expirySec uint64,
) (*ports.LnInvoice, error) {
	f.invoiceCalls++
	if f.invoiceErr != nil {
		return nil, f.invoiceErr
	}
	return f.invoice, nil
}

func (f *fakeLnService) PayInvoice(ctx context.Context, invoice string) (*ports.LnPayment, error) {
	f.payCalls++
	if f.payErr != nil {
		return nil, f.payErr
	}
	return f.payment, nil
}

func (f *fakeLnService) Disconnect() {
	f.connected = false
}

// fakeLedger keeps locks in a map and resolves them the way the contract
// would: first resolution wins, the other path is refused.
type fakeLedger struct {
	balance   *big.Int
	allowance *big.Int
	locks     map[string]*domain.Lock

	createCalls int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		balance:   big.NewInt(1000),
		allowance: big.NewInt(1_000_000),
		locks:     make(map[string]*domain.Lock),
	}
}

func (f *fakeLedger) SignerAddress() string {
	return testSigner
}

func (f *fakeLedger) ContractAddress() string {
	return testHtlcAddr
}

func (f *fakeLedger) BalanceOf(ctx context.Context, token, owner string) (*big.Int, error) {
	return new(big.Int).Set(f.balance), nil
}

func (f *fakeLedger) Allowance(ctx context.Context, token, owner, spender string) (*big.Int, error) {
	return new(big.Int).Set(f.allowance), nil
}

func (f *fakeLedger) GetLock(ctx context.Context, contractId string) (*domain.Lock, error) {
	lock, ok := f.locks[contractId]
	if !ok {
		return nil, domain.Errf(domain.ReasonContractError, "lock %s not found", contractId)
	}
	copied := *lock
	return &copied, nil
}

func (f *fakeLedger) CreateLock(
	ctx context.Context, paymentHash string, timelock int64, token string, amount *big.Int,
) (string, string, error) {
	f.createCalls++
	f.locks[testContractId] = &domain.Lock{
		ContractId:   testContractId,
		Sender:       testSigner,
		TokenAddress: token,
		Amount:       new(big.Int).Set(amount),
		PaymentHash:  paymentHash,
		Timelock:     timelock,
	}
	return testContractId, fmt.Sprintf("0xlocktx%d", f.createCalls), nil
}

func (f *fakeLedger) Claim(ctx context.Context, contractId, preimage string) (string, error) {
	lock, ok := f.locks[contractId]
	if !ok {
		return "", domain.Errf(domain.ReasonContractError, "lock %s not found", contractId)
	}
	if lock.Resolved() {
		return "", domain.Errf(domain.ReasonTransactionFailed, "transaction would revert")
	}
	lock.Withdrawn = true
	lock.Preimage = preimage
	return "0xclaimtx", nil
}

func (f *fakeLedger) Refund(ctx context.Context, contractId string) (string, error) {
	lock, ok := f.locks[contractId]
	if !ok {
		return "", domain.Errf(domain.ReasonContractError, "lock %s not found", contractId)
	}
	if lock.Resolved() {
		return "", domain.Errf(domain.ReasonTransactionFailed, "transaction would revert")
	}
	lock.Refunded = true
	return "0xrefundtx", nil
}

func (f *fakeLedger) Close() {}

type scheduledJob struct {
	at time.Time
	fn func()
}

// fakeScheduler records jobs instead of running them so tests can fire
// them deterministically.
type fakeScheduler struct {
	jobs []scheduledJob
}

func (f *fakeScheduler) Start() {}

func (f *fakeScheduler) Stop() {}

func (f *fakeScheduler) ScheduleRefundAtTime(at time.Time, refundFunc func()) error {
	f.jobs = append(f.jobs, scheduledJob{at: at, fn: refundFunc})
	return nil
}

func (f *fakeScheduler) WhenNextRefund() time.Time {
	if len(f.jobs) == 0 {
		return time.Time{}
	}
	return f.jobs[0].at
}

type inMemorySwapRepo struct {
	mu    sync.Mutex
	swaps map[string]domain.SwapAttempt
}

func newInMemorySwapRepo() *inMemorySwapRepo {
	return &inMemorySwapRepo{swaps: make(map[string]domain.SwapAttempt)}
}

func (r *inMemorySwapRepo) GetAll(ctx context.Context) ([]domain.SwapAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	swaps := make([]domain.SwapAttempt, 0, len(r.swaps))
	for _, swap := range r.swaps {
		swaps = append(swaps, swap)
	}
	return swaps, nil
}

func (r *inMemorySwapRepo) Get(ctx context.Context, swapId string) (*domain.SwapAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	swap, ok := r.swaps[swapId]
	if !ok {
		return nil, fmt.Errorf("swap %s not found", swapId)
	}
	return &swap, nil
}

func (r *inMemorySwapRepo) Add(ctx context.Context, swap domain.SwapAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.swaps[swap.Id]; ok {
		return fmt.Errorf("swap %s already exists", swap.Id)
	}
	r.swaps[swap.Id] = swap
	return nil
}

func (r *inMemorySwapRepo) Update(ctx context.Context, swap domain.SwapAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.swaps[swap.Id]; !ok {
		return fmt.Errorf("swap %s not found", swap.Id)
	}
	r.swaps[swap.Id] = swap
	return nil
}

func (r *inMemorySwapRepo) Close() {}

type fakeRepoManager struct {
	repo *inMemorySwapRepo
}

func (m *fakeRepoManager) Swaps() domain.SwapRepository {
	return m.repo
}

func (m *fakeRepoManager) Close() {}

func newTestService(t *testing.T, ln ports.LnService, ledger ports.HtlcLedger) *application.Service {
	return newTestServiceWith(t, ln, ledger, &fakeScheduler{})
}

func newTestServiceWith(
	t *testing.T, ln ports.LnService, ledger ports.HtlcLedger, sched ports.SchedulerService,
) *application.Service {
	svc, _ := newTestServiceAndRepo(t, ln, ledger, sched)
	return svc
}

func newTestServiceAndRepo(
	t *testing.T, ln ports.LnService, ledger ports.HtlcLedger, sched ports.SchedulerService,
) (*application.Service, domain.SwapRepository) {
	repoManager := &fakeRepoManager{repo: newInMemorySwapRepo()}
	svc, err := application.NewService(
		application.BuildInfo{Version: "test"}, ln, ledger, repoManager, sched, testToken,
	)
	require.NoError(t, err)
	return svc, repoManager.repo
}
