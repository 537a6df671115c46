package service

import (
	"errors"
	"fmt"
)

// Error kinds reported to the external layer. Specific errors wrap one of these.
var (
	ErrNotFound               = errors.New("not found")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrInvalidSelection       = errors.New("invalid selection")
	ErrBetAmountOutOfRange    = errors.New("bet amount out of range")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrMarketNotOpen          = errors.New("market not open")
	ErrMarketNotClosed        = errors.New("market not closed")
	ErrResultAlreadyDeclared  = errors.New("result already declared")
	ErrNotPending             = errors.New("not pending")
	ErrAlreadyExists          = errors.New("already exists")
	ErrGameNotAvailable       = errors.New("game not available in market")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrInvalidResult          = errors.New("invalid result")
	ErrInvalidRequest         = errors.New("invalid request")
	ErrRateLimited            = errors.New("rate limited")
)

var (
	ErrUserNotFound        = fmt.Errorf("user %w", ErrNotFound)
	ErrMarketNotFound      = fmt.Errorf("market %w", ErrNotFound)
	ErrGameTypeNotFound    = fmt.Errorf("game type %w", ErrNotFound)
	ErrBetNotFound         = fmt.Errorf("bet %w", ErrNotFound)
	ErrTransactionNotFound = fmt.Errorf("transaction %w", ErrNotFound)
	ErrBetNotPending       = fmt.Errorf("bet %w", ErrNotPending)
	ErrMarketGameExists    = fmt.Errorf("market game %w", ErrAlreadyExists)
	ErrUsernameTaken       = fmt.Errorf("username %w", ErrAlreadyExists)
	ErrUserBlocked         = fmt.Errorf("user blocked: %w", ErrUnauthorized)
)

var errorKinds = []struct {
	err  error
	kind string
}{
	{ErrNotFound, "NotFound"},
	{ErrUnauthorized, "Unauthorized"},
	{ErrInvalidSelection, "InvalidSelection"},
	{ErrBetAmountOutOfRange, "BetAmountOutOfRange"},
	{ErrInsufficientFunds, "InsufficientFunds"},
	{ErrMarketNotOpen, "MarketNotOpen"},
	{ErrMarketNotClosed, "MarketNotClosed"},
	{ErrResultAlreadyDeclared, "ResultAlreadyDeclared"},
	{ErrNotPending, "NotPending"},
	{ErrAlreadyExists, "AlreadyExists"},
	{ErrGameNotAvailable, "GameNotAvailable"},
	{ErrInvalidAmount, "InvalidAmount"},
	{ErrInvalidTransactionType, "InvalidTransactionType"},
	{ErrInvalidResult, "InvalidResult"},
	{ErrInvalidRequest, "InvalidRequest"},
	{ErrRateLimited, "RateLimited"},
}

// ErrorKind maps an error returned by the core to a stable kind name.
// Errors outside the taxonomy are reported as "Internal".
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "Internal"
}
