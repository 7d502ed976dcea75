package models

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// TxState represents the lifecycle of a submitted transaction
type TxState string

const (
	TxIdle       TxState = "idle"       // Nothing submitted
	TxPending    TxState = "pending"    // Being signed and broadcast
	TxConfirming TxState = "confirming" // Broadcast, waiting for the receipt
	TxConfirmed  TxState = "confirmed"  // Receipt with success status
	TxFailed     TxState = "failed"     // Send error or reverted receipt
)

// TxResult tracks one transaction through its lifecycle
type TxResult struct {
	Action  string         `json:"action"`
	Hash    common.Hash    `json:"hash"`
	State   TxState        `json:"state"`
	Receipt *types.Receipt `json:"-"`
	Err     error          `json:"-"`
}

// HasHash reports whether the transaction was broadcast
func (r TxResult) HasHash() bool {
	return r.Hash != (common.Hash{})
}

// InProgress reports whether the transaction has not settled yet
func (r TxResult) InProgress() bool {
	return r.State == TxPending || r.State == TxConfirming
}

// Label returns the status line shown to the user
func (r TxResult) Label() string {
	switch r.State {
	case TxPending:
		return "Pending..."
	case TxConfirming:
		return "Confirming..."
	case TxConfirmed:
		return "Confirmed ✓"
	case TxFailed:
		return "Failed ✗"
	}
	return ""
}

// ShortHash abbreviates the transaction hash for display
func (r TxResult) ShortHash() string {
	if !r.HasHash() {
		return ""
	}
	return Abbreviate(r.Hash.Hex())
}

// Abbreviate shortens a hex string to its first 10 and last 8 characters
func Abbreviate(s string) string {
	if len(s) <= 18 {
		return s
	}
	return s[:10] + "..." + s[len(s)-8:]
}
