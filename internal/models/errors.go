package models

import (
	"errors"
	"fmt"
)

// Wallet-related errors
var (
	// ErrNotConnected is returned when an operation needs a connected account
	ErrNotConnected = errors.New("wallet not connected")

	// ErrWatchOnly is returned when a transaction is requested from a watch-only connection
	ErrWatchOnly = errors.New("connected account is watch-only and cannot sign transactions")

	// ErrAccountNotFound is returned when the connected address has no key in the keystore
	ErrAccountNotFound = errors.New("account not found in keystore")
)

// Chain-related errors
var (
	// ErrContractNotSet is returned when a contract address is not configured
	ErrContractNotSet = errors.New("contract address not set")

	// ErrWrongNetwork is returned when the RPC endpoint serves a different chain than configured
	ErrWrongNetwork = errors.New("wrong network")

	// ErrNoCode is returned when a configured address has no runtime bytecode
	ErrNoCode = errors.New("no contract code at address")

	// ErrTxReverted is returned when a mined transaction has a failed receipt
	ErrTxReverted = errors.New("transaction reverted")
)

// Booking-related errors
var (
	// ErrNoDateSelected is returned when booking without a date
	ErrNoDateSelected = errors.New("no date selected")

	// ErrInvalidDuration is returned when the booking range is empty or inverted
	ErrInvalidDuration = errors.New("invalid duration")

	// ErrUnavailable is returned when the listing is already booked for the range
	ErrUnavailable = errors.New("listing not available for the selected range")

	// ErrNotMember is returned when a non-member tries to book
	ErrNotMember = errors.New("not a member")

	// ErrScanInProgress is returned when a booking scan is already running
	ErrScanInProgress = errors.New("scan already in progress")
)

// ContractNotSet wraps ErrContractNotSet with the contract name.
func ContractNotSet(name string) error {
	return fmt.Errorf("%s: %w", name, ErrContractNotSet)
}
