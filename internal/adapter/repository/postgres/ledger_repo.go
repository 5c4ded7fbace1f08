package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/healthaid-backend/internal/domain"
)

// ledgerRepository implements domain.LedgerRepository
type ledgerRepository struct {
	db *DB
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *DB) domain.LedgerRepository {
	return &ledgerRepository{db: db}
}

// Commit applies a staged state change in a single database transaction:
// it locks the account row, applies the balance/share deltas, upserts or
// removes the fund, increments the transaction counter and appends the
// ledger entry with id = counter. Either everything commits or nothing does,
// so balances and the ledger can never diverge and rejected operations never
// consume an id.
func (r *ledgerRepository) Commit(ctx context.Context, accountID uuid.UUID, change *domain.StateChange) (*domain.Transaction, error) {
	if err := change.Validate(); err != nil {
		return nil, err
	}

	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	// Lock the account row for the duration of the commit. The host
	// serializes mutating calls per account; the lock only guards against
	// operator access and crash recovery.
	var availableStr, investedStr, sharesStr string
	var counter uint64
	err = dbTx.QueryRowContext(ctx, `
		SELECT available_balance, invested_amount, vault_shares, tx_counter
		FROM accounts
		WHERE id = $1
		FOR UPDATE
	`, accountID).Scan(&availableStr, &investedStr, &sharesStr, &counter)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account: %w", domain.ErrAccountNotFound)
		}
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}

	available, err := decimal.NewFromString(availableStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse available_balance: %w", err)
	}
	invested, err := decimal.NewFromString(investedStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse invested_amount: %w", err)
	}
	shares, err := decimal.NewFromString(sharesStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse vault_shares: %w", err)
	}

	available = available.Add(change.AvailableDelta)
	invested = invested.Add(change.InvestedDelta)
	shares = shares.Add(change.SharesDelta)

	if available.IsNegative() || invested.IsNegative() {
		return nil, fmt.Errorf("commit would drive a balance negative: %w", domain.ErrInsufficientBalance)
	}

	counter++

	_, err = dbTx.ExecContext(ctx, `
		UPDATE accounts
		SET available_balance = $2, invested_amount = $3, vault_shares = $4, tx_counter = $5
		WHERE id = $1
	`, accountID, available.String(), invested.String(), shares.String(), counter)
	if err != nil {
		return nil, fmt.Errorf("failed to update account balances: %w", err)
	}

	if change.FundUpsert != nil {
		_, err = dbTx.ExecContext(ctx, `
			INSERT INTO funds (account_id, fund_id, target_amount, current_amount, label)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (account_id, fund_id) DO UPDATE
			SET target_amount = EXCLUDED.target_amount,
			    current_amount = EXCLUDED.current_amount,
			    label = EXCLUDED.label
		`, accountID, change.FundUpsert.ID, change.FundUpsert.TargetAmount.String(),
			change.FundUpsert.CurrentAmount.String(), change.FundUpsert.Label)
		if err != nil {
			return nil, fmt.Errorf("failed to upsert fund: %w", err)
		}
	}

	if change.FundRemove != "" {
		_, err = dbTx.ExecContext(ctx, `
			DELETE FROM funds WHERE account_id = $1 AND fund_id = $2
		`, accountID, change.FundRemove)
		if err != nil {
			return nil, fmt.Errorf("failed to remove fund: %w", err)
		}
	}

	tx := &domain.Transaction{
		ID:          counter,
		Kind:        change.Kind,
		Amount:      change.Amount,
		Destination: change.Destination,
		FundID:      change.FundID,
		Timestamp:   time.Now().UTC(),
		Description: change.Description,
	}

	var destination interface{}
	if tx.Destination != nil {
		destination = string(*tx.Destination)
	}
	var fundID interface{}
	if tx.FundID != nil {
		fundID = *tx.FundID
	}

	_, err = dbTx.ExecContext(ctx, `
		INSERT INTO transactions (account_id, id, kind, amount, destination, fund_id, ts, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, accountID, tx.ID, string(tx.Kind), tx.Amount.String(), destination, fundID, tx.Timestamp, tx.Description)
	if err != nil {
		return nil, fmt.Errorf("failed to append transaction: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return tx, nil
}

// GetTransaction retrieves a single transaction by its id
func (r *ledgerRepository) GetTransaction(ctx context.Context, accountID uuid.UUID, id uint64) (*domain.Transaction, error) {
	query := `
		SELECT id, kind, amount, destination, fund_id, ts, description
		FROM transactions
		WHERE account_id = $1 AND id = $2
	`

	tx, err := scanTransaction(r.db.QueryRowContext(ctx, query, accountID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("transaction %d: %w", id, domain.ErrTransactionNotFound)
		}
		return nil, err
	}

	return tx, nil
}

// ListTransactions retrieves the full history in id order
func (r *ledgerRepository) ListTransactions(ctx context.Context, accountID uuid.UUID) ([]*domain.Transaction, error) {
	query := `
		SELECT id, kind, amount, destination, fund_id, ts, description
		FROM transactions
		WHERE account_id = $1
		ORDER BY id
	`
	return r.listTransactions(ctx, query, accountID)
}

// ListTransactionsByKind retrieves the history filtered by kind, in id order
func (r *ledgerRepository) ListTransactionsByKind(ctx context.Context, accountID uuid.UUID, kind domain.TransactionKind) ([]*domain.Transaction, error) {
	query := `
		SELECT id, kind, amount, destination, fund_id, ts, description
		FROM transactions
		WHERE account_id = $1 AND kind = $2
		ORDER BY id
	`
	return r.listTransactions(ctx, query, accountID, string(kind))
}

// CountTransactions returns the current value of the transaction counter
func (r *ledgerRepository) CountTransactions(ctx context.Context, accountID uuid.UUID) (uint64, error) {
	var counter uint64
	err := r.db.QueryRowContext(ctx, `SELECT tx_counter FROM accounts WHERE id = $1`, accountID).Scan(&counter)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("account: %w", domain.ErrAccountNotFound)
		}
		return 0, fmt.Errorf("failed to read transaction counter: %w", err)
	}
	return counter, nil
}

func (r *ledgerRepository) listTransactions(ctx context.Context, query string, args ...interface{}) ([]*domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	txs := make([]*domain.Transaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return txs, nil
}

func scanTransaction(row scanner) (*domain.Transaction, error) {
	var tx domain.Transaction
	var kind, amountStr string
	var destination, fundID sql.NullString

	if err := row.Scan(&tx.ID, &kind, &amountStr, &destination, &fundID, &tx.Timestamp, &tx.Description); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}

	tx.Kind = domain.TransactionKind(kind)

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse amount: %w", err)
	}
	tx.Amount = amount

	if destination.Valid {
		dest := domain.Address(destination.String)
		tx.Destination = &dest
	}
	if fundID.Valid {
		id := fundID.String
		tx.FundID = &id
	}

	return &tx, nil
}
