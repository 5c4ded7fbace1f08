package vault

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/healthaid-backend/internal/domain"
	"github.com/simaogato/healthaid-backend/internal/usecase/authgate"
)

// Service converts between stable-asset amounts and vault shares for the
// invest, redeem and pay-from-vault flows. The account's InvestedAmount is
// cost-basis bookkeeping of principal; the vault's own share totals are the
// source of truth for redeemable value, so share conversions always read
// SharesOutstanding and TotalManagedValue fresh from the vault, never from
// a cache.
type Service struct {
	Gate       *authgate.Gate
	LedgerRepo domain.LedgerRepository
	Vault      domain.YieldVault
	Asset      domain.StableAsset
}

// NewService creates a new vault Service instance
func NewService(gate *authgate.Gate, ledgerRepo domain.LedgerRepository, vault domain.YieldVault, asset domain.StableAsset) *Service {
	return &Service{
		Gate:       gate,
		LedgerRepo: ledgerRepo,
		Vault:      vault,
		Asset:      asset,
	}
}

// Invest moves amount from the available balance into the yield vault.
// A zero amount means "invest the entire available balance".
// Logic:
//  1. Authorize the caller as account owner
//  2. Resolve and validate the amount against the available balance
//  3. Deposit into the vault; a vault failure aborts with nothing committed
//  4. Commit the balance shift and issued shares with an Invest entry
func (s *Service) Invest(ctx context.Context, accountID uuid.UUID, caller domain.Address, amount decimal.Decimal) (*domain.Transaction, error) {
	account, err := s.Gate.Authorize(ctx, accountID, caller)
	if err != nil {
		return nil, err
	}

	if amount.IsZero() {
		amount = account.AvailableBalance
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("invest %s: %w", amount, domain.ErrInvalidAmount)
	}
	if amount.GreaterThan(account.AvailableBalance) {
		return nil, fmt.Errorf("invest %s with available %s: %w", amount, account.AvailableBalance, domain.ErrInsufficientBalance)
	}

	shares, err := s.Vault.Deposit(ctx, amount, decimal.Zero, account.Address, true)
	if err != nil {
		return nil, fmt.Errorf("vault deposit of %s: %w: %v", amount, domain.ErrFailedToDeposit, err)
	}

	change := &domain.StateChange{
		AvailableDelta: amount.Neg(),
		InvestedDelta:  amount,
		SharesDelta:    shares,
		Kind:           domain.KindInvest,
		Amount:         amount,
		Description:    "Idle balance invested in yield vault",
	}

	return s.LedgerRepo.Commit(ctx, accountID, change)
}

// Redeem withdraws amount of principal from the vault back into the
// available balance. A zero amount means "redeem everything invested".
// The shares to burn are computed proportionally from the vault's live
// totals; integer truncation may leave up to divisor-1 units of residual
// value in the vault per redemption.
func (s *Service) Redeem(ctx context.Context, accountID uuid.UUID, caller domain.Address, amount decimal.Decimal) (*domain.Transaction, error) {
	account, err := s.Gate.Authorize(ctx, accountID, caller)
	if err != nil {
		return nil, err
	}

	if amount.IsZero() {
		amount = account.InvestedAmount
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("redeem %s: %w", amount, domain.ErrInvalidAmount)
	}
	if amount.GreaterThan(account.InvestedAmount) {
		return nil, fmt.Errorf("redeem %s with invested %s: %w", amount, account.InvestedAmount, domain.ErrInsufficientBalance)
	}

	shares, err := s.sharesFor(ctx, amount)
	if err != nil {
		return nil, err
	}

	// A depreciated vault can price the requested principal above the whole
	// position; never burn more shares than the account holds
	if shares.GreaterThan(account.VaultShares) {
		shares = account.VaultShares
	}

	realized, err := s.Vault.Withdraw(ctx, shares, decimal.Zero, account.Address)
	if err != nil {
		return nil, fmt.Errorf("vault withdrawal of %s shares: %w: %v", shares, domain.ErrFailedToWithdraw, err)
	}

	change := &domain.StateChange{
		AvailableDelta: realized,
		InvestedDelta:  amount.Neg(),
		SharesDelta:    shares.Neg(),
		Kind:           domain.KindRedeem,
		Amount:         amount,
		Description:    "Principal redeemed from yield vault",
	}

	return s.LedgerRepo.Commit(ctx, accountID, change)
}

// PayFromVault pays an approved provider directly out of the vault position.
// The order is fixed: owner authorization, amount validation, allow-list
// check, live vault-balance check, share withdrawal, asset transfer, ledger
// commit. Any failure before the transfer leaves no state mutated.
func (s *Service) PayFromVault(ctx context.Context, accountID uuid.UUID, caller, destination domain.Address, amount decimal.Decimal) (*domain.Transaction, error) {
	account, err := s.Gate.Authorize(ctx, accountID, caller)
	if err != nil {
		return nil, err
	}

	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("vault payment %s: %w", amount, domain.ErrInvalidAmount)
	}

	if err := s.Gate.AuthorizeDestination(ctx, destination); err != nil {
		return nil, err
	}

	// The redeemable value comes from the vault's share conversion, not from
	// the cost-basis InvestedAmount
	balance, err := s.vaultBalance(ctx, account)
	if err != nil {
		return nil, err
	}
	if amount.GreaterThan(balance) {
		return nil, fmt.Errorf("vault payment %s with vault balance %s: %w", amount, balance, domain.ErrInsufficientBalance)
	}

	shares, err := s.sharesFor(ctx, amount)
	if err != nil {
		return nil, err
	}

	realized, err := s.Vault.Withdraw(ctx, shares, decimal.Zero, account.Address)
	if err != nil {
		return nil, fmt.Errorf("vault withdrawal of %s shares: %w: %v", shares, domain.ErrFailedToWithdraw, err)
	}

	if err := s.Asset.Transfer(ctx, account.Address, destination, realized); err != nil {
		return nil, fmt.Errorf("asset transfer: %w: %v", domain.ErrFailedToWithdraw, err)
	}

	// Principal bookkeeping cannot go negative when yield covers part of the
	// payment
	investedDelta := decimal.Min(amount, account.InvestedAmount).Neg()

	// The entry records what the provider actually received; share truncation
	// can make realized up to one unit short of the requested amount
	change := &domain.StateChange{
		InvestedDelta: investedDelta,
		SharesDelta:   shares.Neg(),
		Kind:          domain.KindPayment,
		Amount:        realized,
		Destination:   &destination,
		Description:   "Payment to healthcare provider from vault",
	}

	return s.LedgerRepo.Commit(ctx, accountID, change)
}

// Balance returns the account's redeemable vault value by converting its
// shares through the vault's live totals. Reads are unrestricted.
func (s *Service) Balance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	account, err := s.Gate.AccountRepo.GetByID(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	return s.vaultBalance(ctx, account)
}

// sharesFor converts an asset amount into vault shares with the proportional
// formula shares = amount * sharesOutstanding / totalManagedValue, truncating
// toward zero. Both totals are read fresh at call time.
func (s *Service) sharesFor(ctx context.Context, amount decimal.Decimal) (decimal.Decimal, error) {
	supply, err := s.Vault.SharesOutstanding(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("vault shares outstanding: %w: %v", domain.ErrFailedToWithdraw, err)
	}

	totalValue, err := s.Vault.TotalManagedValue(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("vault total managed value: %w: %v", domain.ErrFailedToWithdraw, err)
	}

	if totalValue.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, fmt.Errorf("vault reports managed value %s: %w", totalValue, domain.ErrFailedToWithdraw)
	}

	shares, _ := amount.Mul(supply).QuoRem(totalValue, 0)
	return shares, nil
}

func (s *Service) vaultBalance(ctx context.Context, account *domain.Account) (decimal.Decimal, error) {
	if account.VaultShares.IsZero() {
		return decimal.Zero, nil
	}

	supply, err := s.Vault.SharesOutstanding(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("vault shares outstanding: %w: %v", domain.ErrFailedToWithdraw, err)
	}

	totalValue, err := s.Vault.TotalManagedValue(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("vault total managed value: %w: %v", domain.ErrFailedToWithdraw, err)
	}

	if supply.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, nil
	}

	value, _ := account.VaultShares.Mul(totalValue).QuoRem(supply, 0)
	return value, nil
}
