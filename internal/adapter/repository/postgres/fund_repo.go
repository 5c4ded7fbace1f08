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

// fundRepository implements domain.FundRepository
type fundRepository struct {
	db *DB
}

// NewFundRepository creates a new fund repository
func NewFundRepository(db *DB) domain.FundRepository {
	return &fundRepository{db: db}
}

// GetByID retrieves a fund by its id within an account
func (r *fundRepository) GetByID(ctx context.Context, accountID uuid.UUID, fundID string) (*domain.Fund, error) {
	query := `
		SELECT fund_id, target_amount, current_amount, label
		FROM funds
		WHERE account_id = $1 AND fund_id = $2
	`

	fund, err := scanFund(r.db.QueryRowContext(ctx, query, accountID, fundID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("fund %s: %w", fundID, domain.ErrFundNotFound)
		}
		return nil, err
	}

	return fund, nil
}

// List retrieves all funds of an account ordered by id
func (r *fundRepository) List(ctx context.Context, accountID uuid.UUID) ([]*domain.Fund, error) {
	query := `
		SELECT fund_id, target_amount, current_amount, label
		FROM funds
		WHERE account_id = $1
		ORDER BY fund_id
	`

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list funds: %w", err)
	}
	defer rows.Close()

	funds := make([]*domain.Fund, 0)
	for rows.Next() {
		fund, err := scanFund(rows)
		if err != nil {
			return nil, err
		}
		funds = append(funds, fund)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate funds: %w", err)
	}

	return funds, nil
}

// scanner covers both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanFund(row scanner) (*domain.Fund, error) {
	var fund domain.Fund
	var targetStr, currentStr string

	if err := row.Scan(&fund.ID, &targetStr, &currentStr, &fund.Label); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan fund: %w", err)
	}

	var err error
	if fund.TargetAmount, err = decimal.NewFromString(targetStr); err != nil {
		return nil, fmt.Errorf("failed to parse target_amount: %w", err)
	}
	if fund.CurrentAmount, err = decimal.NewFromString(currentStr); err != nil {
		return nil, fmt.Errorf("failed to parse current_amount: %w", err)
	}

	return &fund, nil
}
