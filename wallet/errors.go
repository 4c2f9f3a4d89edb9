package wallet

import (
	"errors"
	"fmt"
)

// ErrInsufficientFunds is returned when a transaction would move or lock
// more value than the sending wallet has available.
var ErrInsufficientFunds = errors.New("wallet: insufficient funds")

// NonceReusedError is returned when a transaction's nonce is lower than the
// sender wallet's current nonce, i.e. it has already been applied.
type NonceReusedError struct {
	Provided uint64
	Expected uint64
}

func (e *NonceReusedError) Error() string {
	return fmt.Sprintf("wallet: expected nonce to be at least %d but was %d", e.Expected, e.Provided)
}

// NonceReused builds a NonceReusedError.
func NonceReused(provided, expected uint64) error {
	return &NonceReusedError{Provided: provided, Expected: expected}
}

// IsNonceReused reports whether err is a NonceReusedError.
func IsNonceReused(err error) bool {
	var nr *NonceReusedError
	return errors.As(err, &nr)
}
