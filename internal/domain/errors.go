package domain

import "errors"

// Typed failure kinds for wallet operations.
// Callers match with errors.Is; call sites wrap with fmt.Errorf("...: %w", ...)
// so the kind survives wrapping and the message keeps the context.
var (
	// ErrUnauthorized indicates the caller is not the account owner
	ErrUnauthorized = errors.New("caller is not the account owner")

	// ErrInvalidAmount indicates a non-positive amount where a positive amount is required
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrInsufficientBalance indicates the requested amount exceeds the relevant balance
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrFundNotFound indicates the referenced fund does not exist
	ErrFundNotFound = errors.New("fund not found")

	// ErrFundAlreadyExists indicates a fund with the given id already exists
	ErrFundAlreadyExists = errors.New("fund already exists")

	// ErrFundTargetReached indicates the fund already holds its target amount
	ErrFundTargetReached = errors.New("fund target reached")

	// ErrDestinationNotAllowed indicates the payment destination is not an approved provider
	ErrDestinationNotAllowed = errors.New("destination is not an approved provider")

	// ErrSwapFailed indicates the realized swap output was below the requested minimum
	ErrSwapFailed = errors.New("swap output below minimum")

	// ErrFailedToDeposit indicates the vault rejected or failed a deposit call
	ErrFailedToDeposit = errors.New("vault deposit failed")

	// ErrFailedToWithdraw indicates the vault rejected or failed a withdrawal call
	ErrFailedToWithdraw = errors.New("vault withdrawal failed")

	// ErrOracleUnavailable indicates the price oracle could not serve a rate
	ErrOracleUnavailable = errors.New("price oracle unavailable")

	// ErrAccountNotFound indicates no account record exists for the given id
	ErrAccountNotFound = errors.New("account not found")

	// ErrTransactionNotFound indicates no transaction exists with the given id
	ErrTransactionNotFound = errors.New("transaction not found")
)
