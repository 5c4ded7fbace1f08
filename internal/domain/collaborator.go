package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Collaborator contracts consumed by the wallet. The wallet never implements
// or mutates them; every call is synchronous and fallible, and a usecase must
// stage its state change in memory and only commit after all collaborator
// calls in the operation have succeeded.

// ProviderRegistry is the external allow-list of payment-eligible providers
type ProviderRegistry interface {
	// IsProvider reports whether the address is an approved provider
	IsProvider(ctx context.Context, address Address) (bool, error)
}

// StableAsset is the external stable-value token the wallet custodies
type StableAsset interface {
	// Transfer moves amount from one holder to another
	Transfer(ctx context.Context, from, to Address, amount decimal.Decimal) error

	// BalanceOf returns the holder's token balance
	BalanceOf(ctx context.Context, holder Address) (decimal.Decimal, error)
}

// YieldVault is the external pooled yield vault. Deposits are exchanged for
// shares whose redeemable value grows as yield accrues in the pool.
type YieldVault interface {
	// Deposit supplies amount to the vault and returns the shares issued
	Deposit(ctx context.Context, amount, minShares decimal.Decimal, beneficiary Address, allOrNothing bool) (decimal.Decimal, error)

	// Withdraw burns shares and returns the amount of asset paid out
	Withdraw(ctx context.Context, shares, minAmount decimal.Decimal, beneficiary Address) (decimal.Decimal, error)

	// SharesOutstanding returns the vault's total issued shares
	SharesOutstanding(ctx context.Context) (decimal.Decimal, error)

	// TotalManagedValue returns the total asset value the vault manages
	TotalManagedValue(ctx context.Context) (decimal.Decimal, error)
}

// Rate is one oracle price point for a base/quote pair
type Rate struct {
	Price      decimal.Decimal
	Timestamp  time.Time
	Confidence decimal.Decimal
}

// PriceOracle serves currency conversion rates for the read-only view layer
type PriceOracle interface {
	// Rate returns the current base/quote price
	Rate(ctx context.Context, base, quote string) (Rate, error)
}

// SwapRouter converts an arbitrary token into the stable asset. The wallet
// treats execution as a pass-through estimate; it only enforces the caller's
// minimum-output guard on the realized amount.
type SwapRouter interface {
	// SwapExactIn swaps amount of token held by from and returns the realized
	// output in the stable asset
	SwapExactIn(ctx context.Context, from, token Address, amount, minOut decimal.Decimal) (decimal.Decimal, error)
}
