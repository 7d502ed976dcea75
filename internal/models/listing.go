package models

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Listing mirrors a ListingManager record
type Listing struct {
	ID           uint64         `json:"id"`
	Owner        common.Address `json:"owner"`
	PricePerHour *big.Int       `json:"price_per_hour"`
	CID          string         `json:"cid"`
	Active       bool           `json:"active"`
}

// ImageURL returns the IPFS gateway URL of the listing metadata, or "" when unset
func (l *Listing) ImageURL() string {
	return IPFSURL(l.CID)
}

// IPFSURL returns the public gateway URL for a CID
func IPFSURL(cid string) string {
	if cid == "" {
		return ""
	}
	return "https://ipfs.io/ipfs/" + cid
}
