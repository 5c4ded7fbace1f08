package view

import (
	"context"
	"fmt"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/healthaid-backend/internal/domain"
)

// Converted is a display amount derived from the primary ledger via the
// price oracle. Amount is in atomic units of the quote currency.
type Converted struct {
	Amount    decimal.Decimal
	Currency  string
	Rate      decimal.Decimal
	FetchedAt time.Time
}

// Display formats the converted amount with the quote currency's symbol and
// grouping rules.
func (c Converted) Display() string {
	return money.New(c.Amount.IntPart(), c.Currency).Display()
}

// FundView pairs a fund's converted current and target amounts
type FundView struct {
	FundID  string
	Current Converted
	Target  Converted
}

// Service derives secondary-currency display amounts from the primary ledger
// by querying the price oracle. It is strictly read-only: no method mutates
// ledger state, and an oracle failure fails only the single view call.
type Service struct {
	AccountRepo domain.AccountRepository
	FundRepo    domain.FundRepository
	LedgerRepo  domain.LedgerRepository
	Oracle      domain.PriceOracle

	// PrimarySymbol is the oracle symbol of the stable asset, e.g. "USD"
	PrimarySymbol string
}

// NewService creates a new view Service instance
func NewService(accountRepo domain.AccountRepository, fundRepo domain.FundRepository, ledgerRepo domain.LedgerRepository, oracle domain.PriceOracle, primarySymbol string) *Service {
	return &Service{
		AccountRepo:   accountRepo,
		FundRepo:      fundRepo,
		LedgerRepo:    ledgerRepo,
		Oracle:        oracle,
		PrimarySymbol: primarySymbol,
	}
}

// AvailableBalanceIn converts the available balance into the quote currency
func (s *Service) AvailableBalanceIn(ctx context.Context, accountID uuid.UUID, currency string) (Converted, error) {
	account, err := s.AccountRepo.GetByID(ctx, accountID)
	if err != nil {
		return Converted{}, err
	}
	return s.convert(ctx, account.AvailableBalance, currency)
}

// InvestedAmountIn converts the invested principal into the quote currency
func (s *Service) InvestedAmountIn(ctx context.Context, accountID uuid.UUID, currency string) (Converted, error) {
	account, err := s.AccountRepo.GetByID(ctx, accountID)
	if err != nil {
		return Converted{}, err
	}
	return s.convert(ctx, account.InvestedAmount, currency)
}

// TotalBalanceIn converts available plus invested into the quote currency
func (s *Service) TotalBalanceIn(ctx context.Context, accountID uuid.UUID, currency string) (Converted, error) {
	account, err := s.AccountRepo.GetByID(ctx, accountID)
	if err != nil {
		return Converted{}, err
	}
	return s.convert(ctx, account.TotalBalance(), currency)
}

// FundIn converts a fund's current and target amounts into the quote
// currency. Both conversions use a single rate fetch so the pair stays
// mutually consistent.
func (s *Service) FundIn(ctx context.Context, accountID uuid.UUID, fundID, currency string) (FundView, error) {
	fund, err := s.FundRepo.GetByID(ctx, accountID, fundID)
	if err != nil {
		return FundView{}, err
	}

	rate, err := s.rate(ctx, currency)
	if err != nil {
		return FundView{}, err
	}

	return FundView{
		FundID:  fund.ID,
		Current: converted(fund.CurrentAmount, currency, rate),
		Target:  converted(fund.TargetAmount, currency, rate),
	}, nil
}

// TransactionIn converts a single transaction's amount into the quote currency
func (s *Service) TransactionIn(ctx context.Context, accountID uuid.UUID, txID uint64, currency string) (Converted, error) {
	tx, err := s.LedgerRepo.GetTransaction(ctx, accountID, txID)
	if err != nil {
		return Converted{}, err
	}
	return s.convert(ctx, tx.Amount, currency)
}

func (s *Service) convert(ctx context.Context, amount decimal.Decimal, currency string) (Converted, error) {
	rate, err := s.rate(ctx, currency)
	if err != nil {
		return Converted{}, err
	}
	return converted(amount, currency, rate), nil
}

func (s *Service) rate(ctx context.Context, currency string) (domain.Rate, error) {
	rate, err := s.Oracle.Rate(ctx, s.PrimarySymbol, currency)
	if err != nil {
		return domain.Rate{}, fmt.Errorf("rate %s/%s: %w: %v", s.PrimarySymbol, currency, domain.ErrOracleUnavailable, err)
	}
	return rate, nil
}

func converted(amount decimal.Decimal, currency string, rate domain.Rate) Converted {
	return Converted{
		Amount:    amount.Mul(rate.Price),
		Currency:  currency,
		Rate:      rate.Price,
		FetchedAt: rate.Timestamp,
	}
}
