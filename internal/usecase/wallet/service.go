package wallet

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/healthaid-backend/internal/domain"
	"github.com/simaogato/healthaid-backend/internal/usecase/authgate"
)

// Service handles the deposit and payment paths that move the stable asset
// in and out of the account's available balance, plus the read-only ledger
// queries.
type Service struct {
	Gate       *authgate.Gate
	LedgerRepo domain.LedgerRepository
	Asset      domain.StableAsset
	Swap       domain.SwapRouter
}

// NewService creates a new wallet Service instance
func NewService(gate *authgate.Gate, ledgerRepo domain.LedgerRepository, asset domain.StableAsset, swap domain.SwapRouter) *Service {
	return &Service{
		Gate:       gate,
		LedgerRepo: ledgerRepo,
		Asset:      asset,
		Swap:       swap,
	}
}

// Deposit credits the available balance with amount of the stable asset.
// Logic:
//  1. Authorize the caller as account owner
//  2. Validate amount is positive
//  3. Pull the asset from the owner into the custodial address
//  4. Commit the balance increment with a Deposit entry
func (s *Service) Deposit(ctx context.Context, accountID uuid.UUID, caller domain.Address, amount decimal.Decimal) (*domain.Transaction, error) {
	account, err := s.Gate.Authorize(ctx, accountID, caller)
	if err != nil {
		return nil, err
	}

	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("deposit %s: %w", amount, domain.ErrInvalidAmount)
	}

	if err := s.Asset.Transfer(ctx, account.Owner, account.Address, amount); err != nil {
		return nil, fmt.Errorf("asset transfer: %w: %v", domain.ErrFailedToDeposit, err)
	}

	change := &domain.StateChange{
		AvailableDelta: amount,
		Kind:           domain.KindDeposit,
		Amount:         amount,
		Description:    "Stable asset deposit",
	}

	return s.LedgerRepo.Commit(ctx, accountID, change)
}

// Pay sends amount from the available balance to an approved provider.
// The order is fixed: owner authorization, amount validation, balance check,
// allow-list check, asset transfer, ledger commit. Any failure before the
// transfer leaves no state mutated.
func (s *Service) Pay(ctx context.Context, accountID uuid.UUID, caller, destination domain.Address, amount decimal.Decimal) (*domain.Transaction, error) {
	account, err := s.Gate.Authorize(ctx, accountID, caller)
	if err != nil {
		return nil, err
	}

	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("payment %s: %w", amount, domain.ErrInvalidAmount)
	}

	if account.AvailableBalance.LessThan(amount) {
		return nil, fmt.Errorf("payment %s with available %s: %w", amount, account.AvailableBalance, domain.ErrInsufficientBalance)
	}

	if err := s.Gate.AuthorizeDestination(ctx, destination); err != nil {
		return nil, err
	}

	if err := s.Asset.Transfer(ctx, account.Address, destination, amount); err != nil {
		return nil, fmt.Errorf("asset transfer: %w: %v", domain.ErrFailedToWithdraw, err)
	}

	change := &domain.StateChange{
		AvailableDelta: amount.Neg(),
		Kind:           domain.KindPayment,
		Amount:         amount,
		Destination:    &destination,
		Description:    "Payment to healthcare provider",
	}

	return s.LedgerRepo.Commit(ctx, accountID, change)
}

// DepositWithSwap converts amount of an arbitrary token into the stable
// asset and credits the realized output. When token is the stable asset
// itself this behaves exactly like Deposit.
// Logic:
//  1. Authorize the caller as account owner
//  2. Validate amount is positive
//  3. Swap through the router; reject if the realized output is below minOutput
//  4. Commit the realized credit with a TokenSwapDeposit entry
func (s *Service) DepositWithSwap(ctx context.Context, accountID uuid.UUID, caller, token domain.Address, amount, minOutput decimal.Decimal) (*domain.Transaction, error) {
	account, err := s.Gate.Authorize(ctx, accountID, caller)
	if err != nil {
		return nil, err
	}

	if token == account.AssetRef {
		return s.Deposit(ctx, accountID, caller, amount)
	}

	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("swap deposit %s: %w", amount, domain.ErrInvalidAmount)
	}

	realized, err := s.Swap.SwapExactIn(ctx, account.Owner, token, amount, minOutput)
	if err != nil {
		return nil, fmt.Errorf("swap %s of %s: %w: %v", amount, token, domain.ErrSwapFailed, err)
	}

	if realized.LessThan(minOutput) {
		return nil, fmt.Errorf("realized %s below minimum %s: %w", realized, minOutput, domain.ErrSwapFailed)
	}

	change := &domain.StateChange{
		AvailableDelta: realized,
		Kind:           domain.KindTokenSwapDeposit,
		Amount:         realized,
		Description:    "Token swapped into stable asset",
	}

	return s.LedgerRepo.Commit(ctx, accountID, change)
}

// Owner returns the address that owns the wallet account
func (s *Service) Owner(ctx context.Context, accountID uuid.UUID) (domain.Address, error) {
	account, err := s.Gate.AccountRepo.GetByID(ctx, accountID)
	if err != nil {
		return "", err
	}
	return account.Owner, nil
}

// RegistryRef returns the provider registry address payments are checked against
func (s *Service) RegistryRef(ctx context.Context, accountID uuid.UUID) (domain.Address, error) {
	account, err := s.Gate.AccountRepo.GetByID(ctx, accountID)
	if err != nil {
		return "", err
	}
	return account.RegistryRef, nil
}

// History returns the full transaction log in id order
func (s *Service) History(ctx context.Context, accountID uuid.UUID) ([]*domain.Transaction, error) {
	return s.LedgerRepo.ListTransactions(ctx, accountID)
}

// GetTransaction returns a single transaction by id
func (s *Service) GetTransaction(ctx context.Context, accountID uuid.UUID, id uint64) (*domain.Transaction, error) {
	return s.LedgerRepo.GetTransaction(ctx, accountID, id)
}

// TransactionsByKind returns the transaction log filtered by kind
func (s *Service) TransactionsByKind(ctx context.Context, accountID uuid.UUID, kind domain.TransactionKind) ([]*domain.Transaction, error) {
	return s.LedgerRepo.ListTransactionsByKind(ctx, accountID, kind)
}

// TransactionCount returns the number of committed transactions
func (s *Service) TransactionCount(ctx context.Context, accountID uuid.UUID) (uint64, error) {
	return s.LedgerRepo.CountTransactions(ctx, accountID)
}
