package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/healthaid-backend/internal/domain"
)

// accountRepository implements domain.AccountRepository
type accountRepository struct {
	db *DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *DB) domain.AccountRepository {
	return &accountRepository{db: db}
}

const accountColumns = `id, address, owner_address, registry_ref, asset_ref, vault_ref, oracle_ref, swap_ref, available_balance, invested_amount, vault_shares`

// GetByID retrieves an account by its instance id
func (r *accountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE id = $1
	`
	return r.scanAccount(r.db.QueryRowContext(ctx, query, id))
}

// GetByOwner retrieves the account owned by the given address
func (r *accountRepository) GetByOwner(ctx context.Context, owner domain.Address) (*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE owner_address = $1
	`
	return r.scanAccount(r.db.QueryRowContext(ctx, query, string(owner)))
}

// Create creates a new account record
func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `, tx_counter)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 0)
	`

	_, err := r.db.ExecContext(ctx, query,
		account.ID,
		string(account.Address),
		string(account.Owner),
		string(account.RegistryRef),
		string(account.AssetRef),
		string(account.VaultRef),
		string(account.OracleRef),
		string(account.SwapRef),
		account.AvailableBalance.String(),
		account.InvestedAmount.String(),
		account.VaultShares.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

func (r *accountRepository) scanAccount(row *sql.Row) (*domain.Account, error) {
	var account domain.Account
	var address, owner, registry, asset, vault, oracle, swap string
	var availableStr, investedStr, sharesStr string

	err := row.Scan(
		&account.ID,
		&address,
		&owner,
		&registry,
		&asset,
		&vault,
		&oracle,
		&swap,
		&availableStr,
		&investedStr,
		&sharesStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account: %w", domain.ErrAccountNotFound)
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	account.Address = domain.Address(address)
	account.Owner = domain.Address(owner)
	account.RegistryRef = domain.Address(registry)
	account.AssetRef = domain.Address(asset)
	account.VaultRef = domain.Address(vault)
	account.OracleRef = domain.Address(oracle)
	account.SwapRef = domain.Address(swap)

	if account.AvailableBalance, err = decimal.NewFromString(availableStr); err != nil {
		return nil, fmt.Errorf("failed to parse available_balance: %w", err)
	}
	if account.InvestedAmount, err = decimal.NewFromString(investedStr); err != nil {
		return nil, fmt.Errorf("failed to parse invested_amount: %w", err)
	}
	if account.VaultShares, err = decimal.NewFromString(sharesStr); err != nil {
		return nil, fmt.Errorf("failed to parse vault_shares: %w", err)
	}

	return &account, nil
}
