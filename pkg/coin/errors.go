package coin

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	ErrMissingAssetType  = errors.New("missing asset type")
	ErrInvalidAssetType  = errors.New("asset type must be in the form \"<namespace>::<module>::<name>\"")
	ErrInvalidNamespace  = errors.New("asset type namespace must be a hex address")
	ErrMissingCoinID     = errors.New("coin is missing id")
	ErrMissingBalance    = errors.New("coin is missing balance")
	ErrNegativeBalance   = errors.New("coin balance must not be negative")
	ErrDuplicatedCoin    = errors.New("coin ids must be unique")
	ErrMissingAmount     = errors.New("missing amount")
	ErrNegativeAmount    = errors.New("amount must not be negative")
	ErrMissingRecipient  = errors.New("missing recipient")
	ErrNotACoin          = errors.New("object is not a coin")
	ErrMalformedObject   = errors.New("malformed coin object")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrTooManyDecimals   = errors.New("amount has more decimals than allowed")
	ErrMissingNativeType = errors.New("missing native asset type")

	// ErrInsufficientGasFunds is wrapped by InsufficientGasFundsError.
	ErrInsufficientGasFunds = errors.New("insufficient gas funds")
	// ErrInsufficientTransferFunds is wrapped by InsufficientTransferFundsError.
	ErrInsufficientTransferFunds = errors.New("insufficient transfer funds")
)

// InsufficientGasFundsError is returned when none of the coins of the native
// asset type can cover the requested gas budget on its own.
type InsufficientGasFundsError struct {
	Requested uint64
}

func (e *InsufficientGasFundsError) Error() string {
	return fmt.Sprintf(
		"unable to find a coin to cover the gas budget %d", e.Requested,
	)
}

func (e *InsufficientGasFundsError) Unwrap() error {
	return ErrInsufficientGasFunds
}

// InsufficientTransferFundsError is returned when the coins of the transfer
// type can't cover the requested amount once the gas coin is reserved.
// Suggested is only advisory: it's the amount that the same set of coins
// would be able to cover.
type InsufficientTransferFundsError struct {
	Amount    *big.Int
	Available *big.Int
	Suggested *big.Int
}

func (e *InsufficientTransferFundsError) Error() string {
	return fmt.Sprintf(
		"coin balance %s is not sufficient to cover the transfer amount %s. "+
			"Try reducing the transfer amount to %s",
		e.Available, e.Amount, e.Suggested,
	)
}

func (e *InsufficientTransferFundsError) Unwrap() error {
	return ErrInsufficientTransferFunds
}
