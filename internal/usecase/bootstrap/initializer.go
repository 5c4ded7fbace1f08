package bootstrap

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/healthaid-backend/internal/domain"
)

// Params carries the collaborator wiring for a new account instance
type Params struct {
	Owner       domain.Address
	Address     domain.Address
	RegistryRef domain.Address
	AssetRef    domain.Address
	VaultRef    domain.Address
	OracleRef   domain.Address
	SwapRef     domain.Address
}

// Initializer performs the explicit, one-time initialization step of a wallet
// instance: creating the singleton account record with zero balances. Running
// it again for the same owner is a no-op that returns the existing account.
type Initializer struct {
	AccountRepo domain.AccountRepository
}

// NewInitializer creates a new Initializer instance
func NewInitializer(accountRepo domain.AccountRepository) *Initializer {
	return &Initializer{
		AccountRepo: accountRepo,
	}
}

// Initialize ensures the account record for the owner exists
func (i *Initializer) Initialize(ctx context.Context, params Params) (*domain.Account, error) {
	existing, err := i.AccountRepo.GetByOwner(ctx, params.Owner)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, err
	}

	account := &domain.Account{
		ID:               uuid.New(),
		Address:          params.Address,
		Owner:            params.Owner,
		RegistryRef:      params.RegistryRef,
		AssetRef:         params.AssetRef,
		VaultRef:         params.VaultRef,
		OracleRef:        params.OracleRef,
		SwapRef:          params.SwapRef,
		AvailableBalance: decimal.Zero,
		InvestedAmount:   decimal.Zero,
		VaultShares:      decimal.Zero,
	}

	if err := account.Validate(); err != nil {
		return nil, err
	}

	if err := i.AccountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	return account, nil
}
