package models

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Booking mirrors a BookingManager record
type Booking struct {
	ID        uint64         `json:"id"`
	Renter    common.Address `json:"renter"`
	ListingID uint64         `json:"listing_id"`
	StartTs   uint64         `json:"start_ts"`
	EndTs     uint64         `json:"end_ts"`
	Amount    *big.Int       `json:"amount"`
	Released  bool           `json:"released"`
}

// BookingWithDetails is a booking enriched with its listing metadata
type BookingWithDetails struct {
	Booking
	CID          string   `json:"cid"`
	PricePerHour *big.Int `json:"price_per_hour"`
}

// ImageURL returns the IPFS gateway URL of the booked listing, or "" when unset
func (b *BookingWithDetails) ImageURL() string {
	return IPFSURL(b.CID)
}
