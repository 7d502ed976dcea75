package models

import (
	"github.com/ethereum/go-ethereum/common"
)

// MembershipState is the display state of the connected account's membership
type MembershipState string

const (
	MembershipDisconnected MembershipState = "disconnected"  // No account connected
	MembershipNoContract   MembershipState = "no_contract"   // Membership address not configured
	MembershipWrongNetwork MembershipState = "wrong_network" // RPC serves another chain
	MembershipActive       MembershipState = "active"        // isMember returned true
	MembershipInactive     MembershipState = "inactive"      // isMember returned false
)

// Membership represents the membership status of an account
type Membership struct {
	Address   common.Address  `json:"address"`
	State     MembershipState `json:"state"`
	ExpiresAt uint64          `json:"expires_at,omitempty"`
}

// IsMember reports whether the account holds an active membership
func (m *Membership) IsMember() bool {
	return m.State == MembershipActive
}

// ShowExpiry reports whether the expiry is meaningful to display
func (m *Membership) ShowExpiry() bool {
	return m.IsMember() && m.ExpiresAt > 0
}

// Label returns the human-readable status
func (m *Membership) Label() string {
	switch m.State {
	case MembershipDisconnected:
		return "Connect wallet"
	case MembershipNoContract:
		return "Contract not set"
	case MembershipWrongNetwork:
		return "Wrong network"
	case MembershipActive:
		return "✓ Active Member"
	case MembershipInactive:
		return "Not a member"
	}
	return "Loading…"
}

// ActionLabel returns the label of the purchase action
func (m *Membership) ActionLabel() string {
	if m.IsMember() {
		return "Extend membership"
	}
	return "Buy membership"
}
