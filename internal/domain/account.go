package domain

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Address identifies an on-network party: the owner, a provider, or one of
// the collaborator contracts (registry, asset, vault, oracle, swap router).
type Address string

// Account is the singleton custodial record for one deployed wallet instance.
//
// AvailableBalance and InvestedAmount are atomic units of the stable asset.
// InvestedAmount is cost-basis bookkeeping of principal moved into the vault;
// the vault's own share accounting is the source of truth for redeemable
// value, which may exceed it as yield accrues. VaultShares tracks the shares
// the vault has issued to this account.
type Account struct {
	ID      uuid.UUID
	Address Address // custodial identity that holds the stable asset
	Owner   Address

	RegistryRef Address
	AssetRef    Address
	VaultRef    Address
	OracleRef   Address
	SwapRef     Address

	AvailableBalance decimal.Decimal
	InvestedAmount   decimal.Decimal
	VaultShares      decimal.Decimal
}

// Validate ensures the account adheres to domain rules
func (a *Account) Validate() error {
	if a.Owner == "" {
		return errors.New("account owner cannot be empty")
	}
	if a.Address == "" {
		return errors.New("account address cannot be empty")
	}
	if a.RegistryRef == "" {
		return errors.New("provider registry reference cannot be empty")
	}
	if a.AvailableBalance.IsNegative() {
		return errors.New("available balance cannot be negative")
	}
	if a.InvestedAmount.IsNegative() {
		return errors.New("invested amount cannot be negative")
	}
	return nil
}

// TotalBalance is the account's tracked economic value: idle balance plus
// invested principal. Yield accrued inside the vault is not included.
func (a *Account) TotalBalance() decimal.Decimal {
	return a.AvailableBalance.Add(a.InvestedAmount)
}
