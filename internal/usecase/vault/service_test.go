package vault

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/simaogato/healthaid-backend/internal/domain"
	"github.com/simaogato/healthaid-backend/internal/usecase/authgate"
)

// MockAccountRepository is a mock implementation of AccountRepository for testing
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) GetByOwner(ctx context.Context, owner domain.Address) (*domain.Account, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

// MockProviderRegistry is a mock implementation of ProviderRegistry for testing
type MockProviderRegistry struct {
	mock.Mock
}

func (m *MockProviderRegistry) IsProvider(ctx context.Context, address domain.Address) (bool, error) {
	args := m.Called(ctx, address)
	return args.Bool(0), args.Error(1)
}

// MockLedgerRepository is a mock implementation of LedgerRepository for testing
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) Commit(ctx context.Context, accountID uuid.UUID, change *domain.StateChange) (*domain.Transaction, error) {
	args := m.Called(ctx, accountID, change)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerRepository) GetTransaction(ctx context.Context, accountID uuid.UUID, id uint64) (*domain.Transaction, error) {
	args := m.Called(ctx, accountID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerRepository) ListTransactions(ctx context.Context, accountID uuid.UUID) ([]*domain.Transaction, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Transaction), args.Error(1)
}

func (m *MockLedgerRepository) ListTransactionsByKind(ctx context.Context, accountID uuid.UUID, kind domain.TransactionKind) ([]*domain.Transaction, error) {
	args := m.Called(ctx, accountID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Transaction), args.Error(1)
}

func (m *MockLedgerRepository) CountTransactions(ctx context.Context, accountID uuid.UUID) (uint64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(uint64), args.Error(1)
}

// MockYieldVault is a mock implementation of YieldVault for testing
type MockYieldVault struct {
	mock.Mock
}

func (m *MockYieldVault) Deposit(ctx context.Context, amount, minShares decimal.Decimal, beneficiary domain.Address, allOrNothing bool) (decimal.Decimal, error) {
	args := m.Called(ctx, amount, minShares, beneficiary, allOrNothing)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockYieldVault) Withdraw(ctx context.Context, shares, minAmount decimal.Decimal, beneficiary domain.Address) (decimal.Decimal, error) {
	args := m.Called(ctx, shares, minAmount, beneficiary)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockYieldVault) SharesOutstanding(ctx context.Context) (decimal.Decimal, error) {
	args := m.Called(ctx)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockYieldVault) TotalManagedValue(ctx context.Context) (decimal.Decimal, error) {
	args := m.Called(ctx)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockStableAsset is a mock implementation of StableAsset for testing
type MockStableAsset struct {
	mock.Mock
}

func (m *MockStableAsset) Transfer(ctx context.Context, from, to domain.Address, amount decimal.Decimal) error {
	args := m.Called(ctx, from, to, amount)
	return args.Error(0)
}

func (m *MockStableAsset) BalanceOf(ctx context.Context, holder domain.Address) (decimal.Decimal, error) {
	args := m.Called(ctx, holder)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

const owner = domain.Address("GOWNER")

type fixture struct {
	service     *Service
	accountRepo *MockAccountRepository
	registry    *MockProviderRegistry
	ledgerRepo  *MockLedgerRepository
	vault       *MockYieldVault
	asset       *MockStableAsset
	account     *domain.Account
}

func newFixture() *fixture {
	f := &fixture{
		accountRepo: new(MockAccountRepository),
		registry:    new(MockProviderRegistry),
		ledgerRepo:  new(MockLedgerRepository),
		vault:       new(MockYieldVault),
		asset:       new(MockStableAsset),
	}

	gate := authgate.NewGate(f.accountRepo, f.registry)
	f.service = NewService(gate, f.ledgerRepo, f.vault, f.asset)

	f.account = &domain.Account{
		ID:               uuid.New(),
		Address:          "CWALLET",
		Owner:            owner,
		RegistryRef:      "CREGISTRY",
		AvailableBalance: decimal.NewFromInt(1000),
		InvestedAmount:   decimal.Zero,
		VaultShares:      decimal.Zero,
	}

	return f
}

func TestInvest_ExplicitAmount(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.accountRepo.On("GetByID", ctx, f.account.ID).Return(f.account, nil)
	f.vault.On("Deposit", ctx, decimal.NewFromInt(400), decimal.Zero, domain.Address("CWALLET"), true).
		Return(decimal.NewFromInt(400), nil)
	f.ledgerRepo.On("Commit", ctx, f.account.ID, mock.MatchedBy(func(change *domain.StateChange) bool {
		return change.Kind == domain.KindInvest &&
			change.AvailableDelta.Equal(decimal.NewFromInt(-400)) &&
			change.InvestedDelta.Equal(decimal.NewFromInt(400)) &&
			change.SharesDelta.Equal(decimal.NewFromInt(400))
	})).Return(&domain.Transaction{ID: 2, Kind: domain.KindInvest}, nil)

	tx, err := f.service.Invest(ctx, f.account.ID, owner, decimal.NewFromInt(400))

	assert.NoError(t, err)
	assert.Equal(t, domain.KindInvest, tx.Kind)
	f.vault.AssertExpectations(t)
	f.ledgerRepo.AssertExpectations(t)
}

func TestInvest_ZeroMeansAll(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.accountRepo.On("GetByID", ctx, f.account.ID).Return(f.account, nil)
	f.vault.On("Deposit", ctx, decimal.NewFromInt(1000), decimal.Zero, domain.Address("CWALLET"), true).
		Return(decimal.NewFromInt(1000), nil)
	f.ledgerRepo.On("Commit", ctx, f.account.ID, mock.MatchedBy(func(change *domain.StateChange) bool {
		return change.AvailableDelta.Equal(decimal.NewFromInt(-1000)) &&
			change.InvestedDelta.Equal(decimal.NewFromInt(1000))
	})).Return(&domain.Transaction{ID: 2, Kind: domain.KindInvest}, nil)

	_, err := f.service.Invest(ctx, f.account.ID, owner, decimal.Zero)

	assert.NoError(t, err)
	f.vault.AssertExpectations(t)
}

func TestInvest_MoreThanAvailable(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.accountRepo.On("GetByID", ctx, f.account.ID).Return(f.account, nil)

	tx, err := f.service.Invest(ctx, f.account.ID, owner, decimal.NewFromInt(1500))

	assert.Nil(t, tx)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
	f.vault.AssertNotCalled(t, "Deposit")
	f.ledgerRepo.AssertNotCalled(t, "Commit")
}

func TestInvest_NegativeAmount(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.accountRepo.On("GetByID", ctx, f.account.ID).Return(f.account, nil)

	tx, err := f.service.Invest(ctx, f.account.ID, owner, decimal.NewFromInt(-10))

	assert.Nil(t, tx)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	f.vault.AssertNotCalled(t, "Deposit")
}

func TestInvest_VaultFailureCommitsNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.accountRepo.On("GetByID", ctx, f.account.ID).Return(f.account, nil)
	f.vault.On("Deposit", ctx, decimal.NewFromInt(400), decimal.Zero, domain.Address("CWALLET"), true).
		Return(decimal.Zero, errors.New("pool is full"))

	tx, err := f.service.Invest(ctx, f.account.ID, owner, decimal.NewFromInt(400))

	assert.Nil(t, tx)
	assert.ErrorIs(t, err, domain.ErrFailedToDeposit)
	f.ledgerRepo.AssertNotCalled(t, "Commit")
}

func TestRedeem_ProportionalShares(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.account.AvailableBalance = decimal.Zero
	f.account.InvestedAmount = decimal.NewFromInt(1000)
	f.account.VaultShares = decimal.NewFromInt(1000)

	// Yield accrued: the pool now manages 1200 against 1000 shares,
	// so 400 of principal costs 400*1000/1200 = 333 shares (truncated)
	f.accountRepo.On("GetByID", ctx, f.account.ID).Return(f.account, nil)
	f.vault.On("SharesOutstanding", ctx).Return(decimal.NewFromInt(1000), nil)
	f.vault.On("TotalManagedValue", ctx).Return(decimal.NewFromInt(1200), nil)
	f.vault.On("Withdraw", ctx, decimal.NewFromInt(333), decimal.Zero, domain.Address("CWALLET")).
		Return(decimal.NewFromInt(399), nil)
	f.ledgerRepo.On("Commit", ctx, f.account.ID, mock.MatchedBy(func(change *domain.StateChange) bool {
		return change.Kind == domain.KindRedeem &&
			change.AvailableDelta.Equal(decimal.NewFromInt(399)) &&
			change.InvestedDelta.Equal(decimal.NewFromInt(-400)) &&
			change.SharesDelta.Equal(decimal.NewFromInt(-333)) &&
			change.Amount.Equal(decimal.NewFromInt(400))
	})).Return(&domain.Transaction{ID: 3, Kind: domain.KindRedeem}, nil)

	tx, err := f.service.Redeem(ctx, f.account.ID, owner, decimal.NewFromInt(400))

	assert.NoError(t, err)
	assert.Equal(t, domain.KindRedeem, tx.Kind)
	f.vault.AssertExpectations(t)
	f.ledgerRepo.AssertExpectations(t)
}

func TestRedeem_ZeroMeansAllInvested(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.account.InvestedAmount = decimal.NewFromInt(600)
	f.account.VaultShares = decimal.NewFromInt(600)

	f.accountRepo.On("GetByID", ctx, f.account.ID).Return(f.account, nil)
	f.vault.On("SharesOutstanding", ctx).Return(decimal.NewFromInt(600), nil)
	f.vault.On("TotalManagedValue", ctx).Return(decimal.NewFromInt(600), nil)
	f.vault.On("Withdraw", ctx, decimal.NewFromInt(600), decimal.Zero, domain.Address("CWALLET")).
		Return(decimal.NewFromInt(600), nil)
	f.ledgerRepo.On("Commit", ctx, f.account.ID, mock.MatchedBy(func(change *domain.StateChange) bool {
		return change.InvestedDelta.Equal(decimal.NewFromInt(-600))
	})).Return(&domain.Transaction{ID: 4, Kind: domain.KindRedeem}, nil)

	_, err := f.service.Redeem(ctx, f.account.ID, owner, decimal.Zero)

	assert.NoError(t, err)
	f.vault.AssertExpectations(t)
}

func TestRedeem_DepreciatedVaultNeverBurnsMoreSharesThanHeld(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.account.InvestedAmount = decimal.NewFromInt(1000)
	f.account.VaultShares = decimal.NewFromInt(1000)

	// The pool lost value: 1000 shares now back only 800. Pricing the full
	// 1000 of principal asks for 1250 shares, more than the account holds.
	f.accountRepo.On("GetByID", ctx, f.account.ID).Return(f.account, nil)
	f.vault.On("SharesOutstanding", ctx).Return(decimal.NewFromInt(1000), nil)
	f.vault.On("TotalManagedValue", ctx).Return(decimal.NewFromInt(800), nil)
	f.vault.On("Withdraw", ctx, decimal.NewFromInt(1000), decimal.Zero, domain.Address("CWALLET")).
		Return(decimal.NewFromInt(800), nil)
	f.ledgerRepo.On("Commit", ctx, f.account.ID, mock.MatchedBy(func(change *domain.StateChange) bool {
		return change.AvailableDelta.Equal(decimal.NewFromInt(800)) &&
			change.InvestedDelta.Equal(decimal.NewFromInt(-1000)) &&
			change.SharesDelta.Equal(decimal.NewFromInt(-1000))
	})).Return(&domain.Transaction{ID: 3, Kind: domain.KindRedeem}, nil)

	_, err := f.service.Redeem(ctx, f.account.ID, owner, decimal.Zero)

	assert.NoError(t, err)
	f.vault.AssertExpectations(t)
	f.ledgerRepo.AssertExpectations(t)
}

func TestRedeem_MoreThanInvested(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.account.InvestedAmount = decimal.NewFromInt(600)

	f.accountRepo.On("GetByID", ctx, f.account.ID).Return(f.account, nil)

	tx, err := f.service.Redeem(ctx, f.account.ID, owner, decimal.NewFromInt(601))

	assert.Nil(t, tx)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
	f.vault.AssertNotCalled(t, "Withdraw")
}

func TestRedeem_VaultFailureCommitsNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.account.InvestedAmount = decimal.NewFromInt(600)
	f.account.VaultShares = decimal.NewFromInt(600)

	f.accountRepo.On("GetByID", ctx, f.account.ID).Return(f.account, nil)
	f.vault.On("SharesOutstanding", ctx).Return(decimal.NewFromInt(600), nil)
	f.vault.On("TotalManagedValue", ctx).Return(decimal.NewFromInt(600), nil)
	f.vault.On("Withdraw", ctx, decimal.NewFromInt(400), decimal.Zero, domain.Address("CWALLET")).
		Return(decimal.Zero, errors.New("withdraw queue paused"))

	tx, err := f.service.Redeem(ctx, f.account.ID, owner, decimal.NewFromInt(400))

	assert.Nil(t, tx)
	assert.ErrorIs(t, err, domain.ErrFailedToWithdraw)
	f.ledgerRepo.AssertNotCalled(t, "Commit")
}

func TestPayFromVault_Success(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.account.InvestedAmount = decimal.NewFromInt(1000)
	f.account.VaultShares = decimal.NewFromInt(1000)

	f.accountRepo.On("GetByID", ctx, f.account.ID).Return(f.account, nil)
	f.registry.On("IsProvider", ctx, domain.Address("GPROVIDER")).Return(true, nil)
	f.vault.On("SharesOutstanding", ctx).Return(decimal.NewFromInt(1000), nil)
	f.vault.On("TotalManagedValue", ctx).Return(decimal.NewFromInt(1000), nil)
	f.vault.On("Withdraw", ctx, decimal.NewFromInt(500), decimal.Zero, domain.Address("CWALLET")).
		Return(decimal.NewFromInt(500), nil)
	f.asset.On("Transfer", ctx, domain.Address("CWALLET"), domain.Address("GPROVIDER"), decimal.NewFromInt(500)).
		Return(nil)
	f.ledgerRepo.On("Commit", ctx, f.account.ID, mock.MatchedBy(func(change *domain.StateChange) bool {
		return change.Kind == domain.KindPayment &&
			change.Amount.Equal(decimal.NewFromInt(500)) &&
			change.InvestedDelta.Equal(decimal.NewFromInt(-500)) &&
			change.SharesDelta.Equal(decimal.NewFromInt(-500)) &&
			change.Destination != nil && *change.Destination == "GPROVIDER"
	})).Return(&domain.Transaction{ID: 5, Kind: domain.KindPayment}, nil)

	tx, err := f.service.PayFromVault(ctx, f.account.ID, owner, "GPROVIDER", decimal.NewFromInt(500))

	assert.NoError(t, err)
	assert.Equal(t, domain.KindPayment, tx.Kind)
	f.vault.AssertExpectations(t)
	f.asset.AssertExpectations(t)
	f.ledgerRepo.AssertExpectations(t)
}

func TestPayFromVault_RecordsRealizedAmount(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.account.InvestedAmount = decimal.NewFromInt(1000)
	f.account.VaultShares = decimal.NewFromInt(1000)

	// Yield accrued: 500 of payment costs 500*1000/1200 = 416 shares, which
	// realize 499. The entry must carry 499, what the provider received.
	f.accountRepo.On("GetByID", ctx, f.account.ID).Return(f.account, nil)
	f.registry.On("IsProvider", ctx, domain.Address("GPROVIDER")).Return(true, nil)
	f.vault.On("SharesOutstanding", ctx).Return(decimal.NewFromInt(1000), nil)
	f.vault.On("TotalManagedValue", ctx).Return(decimal.NewFromInt(1200), nil)
	f.vault.On("Withdraw", ctx, decimal.NewFromInt(416), decimal.Zero, domain.Address("CWALLET")).
		Return(decimal.NewFromInt(499), nil)
	f.asset.On("Transfer", ctx, domain.Address("CWALLET"), domain.Address("GPROVIDER"), decimal.NewFromInt(499)).
		Return(nil)
	f.ledgerRepo.On("Commit", ctx, f.account.ID, mock.MatchedBy(func(change *domain.StateChange) bool {
		return change.Kind == domain.KindPayment &&
			change.Amount.Equal(decimal.NewFromInt(499)) &&
			change.InvestedDelta.Equal(decimal.NewFromInt(-500)) &&
			change.SharesDelta.Equal(decimal.NewFromInt(-416))
	})).Return(&domain.Transaction{ID: 6, Kind: domain.KindPayment}, nil)

	_, err := f.service.PayFromVault(ctx, f.account.ID, owner, "GPROVIDER", decimal.NewFromInt(500))

	assert.NoError(t, err)
	f.vault.AssertExpectations(t)
	f.asset.AssertExpectations(t)
	f.ledgerRepo.AssertExpectations(t)
}

func TestPayFromVault_DestinationNotAllowed(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.account.InvestedAmount = decimal.NewFromInt(1000)
	f.account.VaultShares = decimal.NewFromInt(1000)

	f.accountRepo.On("GetByID", ctx, f.account.ID).Return(f.account, nil)
	f.registry.On("IsProvider", ctx, domain.Address("GSTRANGER")).Return(false, nil)

	tx, err := f.service.PayFromVault(ctx, f.account.ID, owner, "GSTRANGER", decimal.NewFromInt(500))

	assert.Nil(t, tx)
	assert.ErrorIs(t, err, domain.ErrDestinationNotAllowed)
	// Allow-list is checked before any vault read
	f.vault.AssertNotCalled(t, "SharesOutstanding")
	f.vault.AssertNotCalled(t, "Withdraw")
	f.ledgerRepo.AssertNotCalled(t, "Commit")
}

func TestPayFromVault_ExceedsVaultBalance(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.account.InvestedAmount = decimal.NewFromInt(1000)
	f.account.VaultShares = decimal.NewFromInt(1000)

	// Vault value dropped below the requested payment
	f.accountRepo.On("GetByID", ctx, f.account.ID).Return(f.account, nil)
	f.registry.On("IsProvider", ctx, domain.Address("GPROVIDER")).Return(true, nil)
	f.vault.On("SharesOutstanding", ctx).Return(decimal.NewFromInt(1000), nil)
	f.vault.On("TotalManagedValue", ctx).Return(decimal.NewFromInt(400), nil)

	tx, err := f.service.PayFromVault(ctx, f.account.ID, owner, "GPROVIDER", decimal.NewFromInt(500))

	assert.Nil(t, tx)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
	f.vault.AssertNotCalled(t, "Withdraw")
	f.ledgerRepo.AssertNotCalled(t, "Commit")
}

func TestPayFromVault_TransferFailureCommitsNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.account.InvestedAmount = decimal.NewFromInt(1000)
	f.account.VaultShares = decimal.NewFromInt(1000)

	f.accountRepo.On("GetByID", ctx, f.account.ID).Return(f.account, nil)
	f.registry.On("IsProvider", ctx, domain.Address("GPROVIDER")).Return(true, nil)
	f.vault.On("SharesOutstanding", ctx).Return(decimal.NewFromInt(1000), nil)
	f.vault.On("TotalManagedValue", ctx).Return(decimal.NewFromInt(1000), nil)
	f.vault.On("Withdraw", ctx, decimal.NewFromInt(500), decimal.Zero, domain.Address("CWALLET")).
		Return(decimal.NewFromInt(500), nil)
	f.asset.On("Transfer", ctx, domain.Address("CWALLET"), domain.Address("GPROVIDER"), decimal.NewFromInt(500)).
		Return(errors.New("token contract reverted"))

	tx, err := f.service.PayFromVault(ctx, f.account.ID, owner, "GPROVIDER", decimal.NewFromInt(500))

	assert.Nil(t, tx)
	assert.ErrorIs(t, err, domain.ErrFailedToWithdraw)
	f.ledgerRepo.AssertNotCalled(t, "Commit")
}

func TestBalance_ConvertsSharesThroughLiveTotals(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.account.InvestedAmount = decimal.NewFromInt(1000)
	f.account.VaultShares = decimal.NewFromInt(1000)

	// 1000 shares of a 2000-share pool managing 2500: worth 1250
	f.accountRepo.On("GetByID", ctx, f.account.ID).Return(f.account, nil)
	f.vault.On("SharesOutstanding", ctx).Return(decimal.NewFromInt(2000), nil)
	f.vault.On("TotalManagedValue", ctx).Return(decimal.NewFromInt(2500), nil)

	balance, err := f.service.Balance(ctx, f.account.ID)

	assert.NoError(t, err)
	assert.Equal(t, decimal.NewFromInt(1250), balance)
}

func TestBalance_NoShares(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.accountRepo.On("GetByID", ctx, f.account.ID).Return(f.account, nil)

	balance, err := f.service.Balance(ctx, f.account.ID)

	assert.NoError(t, err)
	assert.True(t, balance.IsZero())
	f.vault.AssertNotCalled(t, "SharesOutstanding")
}
