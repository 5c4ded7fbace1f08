package authgate

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/simaogato/healthaid-backend/internal/domain"
)

// Gate enforces the authorization rules every mutating wallet operation
// passes through before any state is staged: the caller must be the account
// owner, and payment destinations must be approved by the external provider
// registry. Reads are unrestricted and bypass the gate.
type Gate struct {
	AccountRepo domain.AccountRepository
	Registry    domain.ProviderRegistry
}

// NewGate creates a new Gate instance
func NewGate(accountRepo domain.AccountRepository, registry domain.ProviderRegistry) *Gate {
	return &Gate{
		AccountRepo: accountRepo,
		Registry:    registry,
	}
}

// Authorize loads the account and verifies the caller is its owner.
// Returns the account so the calling usecase does not re-fetch it.
func (g *Gate) Authorize(ctx context.Context, accountID uuid.UUID, caller domain.Address) (*domain.Account, error) {
	account, err := g.AccountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if account.Owner != caller {
		return nil, fmt.Errorf("caller %s: %w", caller, domain.ErrUnauthorized)
	}

	return account, nil
}

// AuthorizeDestination validates a payment destination against the provider
// registry. A registry failure is treated as "not allowed": funds must never
// move on an unverifiable destination.
func (g *Gate) AuthorizeDestination(ctx context.Context, destination domain.Address) error {
	approved, err := g.Registry.IsProvider(ctx, destination)
	if err != nil {
		return fmt.Errorf("provider registry check for %s: %w: %v", destination, domain.ErrDestinationNotAllowed, err)
	}

	if !approved {
		return fmt.Errorf("destination %s: %w", destination, domain.ErrDestinationNotAllowed)
	}

	return nil
}
