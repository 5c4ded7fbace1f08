package domain

import (
	"context"

	"github.com/google/uuid"
)

// AccountRepository defines the interface for account persistence operations
type AccountRepository interface {
	// GetByID retrieves an account by its instance id
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)

	// GetByOwner retrieves the account owned by the given address
	GetByOwner(ctx context.Context, owner Address) (*Account, error)

	// Create creates a new account record
	Create(ctx context.Context, account *Account) error
}

// FundRepository defines the interface for fund persistence operations.
// Funds are only mutated through LedgerRepository.Commit; this interface
// is read-only.
type FundRepository interface {
	// GetByID retrieves a fund by its id within an account
	GetByID(ctx context.Context, accountID uuid.UUID, fundID string) (*Fund, error)

	// List retrieves all funds of an account
	List(ctx context.Context, accountID uuid.UUID) ([]*Fund, error)
}

// LedgerRepository defines the interface for the append-only transaction
// ledger and the atomic commit of wallet state changes.
type LedgerRepository interface {
	// Commit applies a staged state change as a single atomic unit: balance,
	// invested and share deltas, the fund upsert or removal, the counter
	// increment and the transaction append all become visible together or
	// not at all. The appended transaction carries id = counter after the
	// increment, so ids are gapless and strictly in call order.
	Commit(ctx context.Context, accountID uuid.UUID, change *StateChange) (*Transaction, error)

	// GetTransaction retrieves a single transaction by its id
	GetTransaction(ctx context.Context, accountID uuid.UUID, id uint64) (*Transaction, error)

	// ListTransactions retrieves the full history in id order
	ListTransactions(ctx context.Context, accountID uuid.UUID) ([]*Transaction, error)

	// ListTransactionsByKind retrieves the history filtered by kind, in id order
	ListTransactionsByKind(ctx context.Context, accountID uuid.UUID, kind TransactionKind) ([]*Transaction, error)

	// CountTransactions returns the current value of the transaction counter
	CountTransactions(ctx context.Context, accountID uuid.UUID) (uint64, error)
}
