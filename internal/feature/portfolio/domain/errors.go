// Package domain defines domain-level errors for the portfolio feature.
package domain

import "errors"

// Domain errors for portfolio operations.
// These errors represent business logic failures and should be handled appropriately by upper layers.
var (
	// ErrDuplicatePortfolio indicates that the user already tracks this stock code.
	ErrDuplicatePortfolio = errors.New("stock is already in the portfolio")

	// ErrPortfolioNotFound indicates that no portfolio matched the given criteria.
	ErrPortfolioNotFound = errors.New("portfolio not found")

	// ErrOracleReply indicates that the insight oracle returned a reply that
	// failed structural parsing or range validation.
	ErrOracleReply = errors.New("oracle reply failed validation")
)
