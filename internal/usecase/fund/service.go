package fund

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/healthaid-backend/internal/domain"
	"github.com/simaogato/healthaid-backend/internal/usecase/authgate"
)

// Service handles fund sub-balance accounting: creating a fund for a
// procedure, saving available balance into it, and releasing it back.
type Service struct {
	Gate       *authgate.Gate
	FundRepo   domain.FundRepository
	LedgerRepo domain.LedgerRepository
}

// NewService creates a new fund Service instance
func NewService(gate *authgate.Gate, fundRepo domain.FundRepository, ledgerRepo domain.LedgerRepository) *Service {
	return &Service{
		Gate:       gate,
		FundRepo:   fundRepo,
		LedgerRepo: ledgerRepo,
	}
}

// Create creates a new fund with a zero current amount.
// Logic:
//  1. Authorize the caller as account owner
//  2. Validate target amount is positive
//  3. Reject if a fund with this id already exists
//  4. Commit the fund insert together with a FundCreate entry (amount = target)
func (s *Service) Create(ctx context.Context, accountID uuid.UUID, caller domain.Address, id string, targetAmount decimal.Decimal, label string) (*domain.Fund, error) {
	if _, err := s.Gate.Authorize(ctx, accountID, caller); err != nil {
		return nil, err
	}

	if targetAmount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("fund target %s: %w", targetAmount, domain.ErrInvalidAmount)
	}

	// Re-creating an existing id would silently discard its saved progress
	existing, err := s.FundRepo.GetByID(ctx, accountID, id)
	if err != nil && !errors.Is(err, domain.ErrFundNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("fund %s: %w", id, domain.ErrFundAlreadyExists)
	}

	fund := &domain.Fund{
		ID:            id,
		TargetAmount:  targetAmount,
		CurrentAmount: decimal.Zero,
		Label:         label,
	}
	if err := fund.Validate(); err != nil {
		return nil, err
	}

	change := &domain.StateChange{
		FundUpsert:  fund,
		Kind:        domain.KindFundCreate,
		Amount:      targetAmount,
		FundID:      &fund.ID,
		Description: "Fund created for procedure",
	}

	if _, err := s.LedgerRepo.Commit(ctx, accountID, change); err != nil {
		return nil, err
	}

	return fund, nil
}

// Save moves amount from the available balance into the fund.
// Logic:
//  1. Authorize the caller as account owner
//  2. Validate amount is positive and covered by the available balance
//  3. Reject if the fund is absent or already at/over its target; a save
//     starting below the target may overshoot it
//  4. Commit the balance decrement and fund increment with a FundSave entry
func (s *Service) Save(ctx context.Context, accountID uuid.UUID, caller domain.Address, id string, amount decimal.Decimal) (*domain.Fund, error) {
	account, err := s.Gate.Authorize(ctx, accountID, caller)
	if err != nil {
		return nil, err
	}

	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("save amount %s: %w", amount, domain.ErrInvalidAmount)
	}

	if account.AvailableBalance.LessThan(amount) {
		return nil, fmt.Errorf("save %s with available %s: %w", amount, account.AvailableBalance, domain.ErrInsufficientBalance)
	}

	fund, err := s.FundRepo.GetByID(ctx, accountID, id)
	if err != nil {
		return nil, err
	}

	if fund.TargetReached() {
		return nil, fmt.Errorf("fund %s at %s of %s: %w", id, fund.CurrentAmount, fund.TargetAmount, domain.ErrFundTargetReached)
	}

	updated := *fund
	updated.CurrentAmount = fund.CurrentAmount.Add(amount)

	change := &domain.StateChange{
		AvailableDelta: amount.Neg(),
		FundUpsert:     &updated,
		Kind:           domain.KindFundSave,
		Amount:         amount,
		FundID:         &updated.ID,
		Description:    "Money saved to fund",
	}

	if _, err := s.LedgerRepo.Commit(ctx, accountID, change); err != nil {
		return nil, err
	}

	return &updated, nil
}

// Release removes the fund and returns its entire current amount to the
// available balance. The appended FundRelease entry carries the released
// amount, not the target.
func (s *Service) Release(ctx context.Context, accountID uuid.UUID, caller domain.Address, id string) (decimal.Decimal, error) {
	if _, err := s.Gate.Authorize(ctx, accountID, caller); err != nil {
		return decimal.Zero, err
	}

	fund, err := s.FundRepo.GetByID(ctx, accountID, id)
	if err != nil {
		return decimal.Zero, err
	}

	released := fund.CurrentAmount

	change := &domain.StateChange{
		AvailableDelta: released,
		FundRemove:     id,
		Kind:           domain.KindFundRelease,
		Amount:         released,
		FundID:         &id,
		Description:    "Fund released back to wallet",
	}

	if _, err := s.LedgerRepo.Commit(ctx, accountID, change); err != nil {
		return decimal.Zero, err
	}

	return released, nil
}

// Get retrieves a single fund. Reads are unrestricted.
func (s *Service) Get(ctx context.Context, accountID uuid.UUID, id string) (*domain.Fund, error) {
	return s.FundRepo.GetByID(ctx, accountID, id)
}

// List retrieves all funds of the account. Reads are unrestricted.
func (s *Service) List(ctx context.Context, accountID uuid.UUID) ([]*domain.Fund, error) {
	return s.FundRepo.List(ctx, accountID)
}
