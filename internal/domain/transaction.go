package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind classifies a ledger entry
type TransactionKind string

const (
	KindDeposit          TransactionKind = "DEPOSIT"
	KindPayment          TransactionKind = "PAYMENT"
	KindFundCreate       TransactionKind = "FUND_CREATE"
	KindFundSave         TransactionKind = "FUND_SAVE"
	KindFundRelease      TransactionKind = "FUND_RELEASE"
	KindInvest           TransactionKind = "INVEST"
	KindRedeem           TransactionKind = "REDEEM"
	KindTokenSwapDeposit TransactionKind = "TOKEN_SWAP_DEPOSIT"
)

// Transaction is one immutable entry in the account's append-only ledger.
// Ids are assigned per account as 1, 2, 3, ... strictly in call order with
// no gaps; rejected operations never consume an id. Entries are never edited
// or removed, including when a referenced fund is later released.
type Transaction struct {
	ID          uint64
	Kind        TransactionKind
	Amount      decimal.Decimal
	Destination *Address // set for payments
	FundID      *string  // set for fund operations
	Timestamp   time.Time
	Description string
}

// StateChange captures every durable effect of one wallet operation, staged
// in memory by a usecase and committed atomically by the ledger store after
// all validation and collaborator calls have succeeded. Either every field
// takes effect together with the appended transaction, or nothing does.
type StateChange struct {
	AvailableDelta decimal.Decimal
	InvestedDelta  decimal.Decimal
	SharesDelta    decimal.Decimal

	FundUpsert *Fund  // insert or replace this fund, if set
	FundRemove string // delete this fund id, if non-empty

	Kind        TransactionKind
	Amount      decimal.Decimal
	Destination *Address
	FundID      *string
	Description string
}

// Validate ensures the staged change adheres to domain rules
func (c *StateChange) Validate() error {
	if c.Kind == "" {
		return errors.New("state change must carry a transaction kind")
	}
	if c.FundUpsert != nil && c.FundRemove != "" {
		return errors.New("state change cannot both upsert and remove a fund")
	}
	if c.FundUpsert != nil {
		if err := c.FundUpsert.Validate(); err != nil {
			return err
		}
	}
	return nil
}
