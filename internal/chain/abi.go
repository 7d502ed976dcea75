package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Only the functions this client calls are declared.

const membershipABIJSON = `[
  {"type":"function","name":"isMember","stateMutability":"view",
   "inputs":[{"name":"account","type":"address"}],
   "outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"membershipExpiresAt","stateMutability":"view",
   "inputs":[{"name":"account","type":"address"}],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"becomeMember","stateMutability":"payable",
   "inputs":[],"outputs":[]}
]`

const listingABIJSON = `[
  {"type":"function","name":"getListing","stateMutability":"view",
   "inputs":[{"name":"listingId","type":"uint256"}],
   "outputs":[
     {"name":"owner","type":"address"},
     {"name":"pricePerHour","type":"uint256"},
     {"name":"metadataCID","type":"string"},
     {"name":"active","type":"bool"}]},
  {"type":"function","name":"isAvailable","stateMutability":"view",
   "inputs":[
     {"name":"listingId","type":"uint256"},
     {"name":"startTs","type":"uint256"},
     {"name":"endTs","type":"uint256"}],
   "outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"nextListingId","stateMutability":"view",
   "inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"createListing","stateMutability":"nonpayable",
   "inputs":[
     {"name":"pricePerHour","type":"uint256"},
     {"name":"metadataCID","type":"string"}],
   "outputs":[{"name":"","type":"uint256"}]}
]`

const bookingABIJSON = `[
  {"type":"function","name":"book","stateMutability":"payable",
   "inputs":[
     {"name":"listingId","type":"uint256"},
     {"name":"startTs","type":"uint256"},
     {"name":"endTs","type":"uint256"}],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"bookings","stateMutability":"view",
   "inputs":[{"name":"","type":"uint256"}],
   "outputs":[
     {"name":"renter","type":"address"},
     {"name":"listingId","type":"uint256"},
     {"name":"startTs","type":"uint256"},
     {"name":"endTs","type":"uint256"},
     {"name":"amount","type":"uint256"},
     {"name":"released","type":"bool"}]},
  {"type":"function","name":"nextBookingId","stateMutability":"view",
   "inputs":[],"outputs":[{"name":"","type":"uint256"}]}
]`

// ERC-721 subset
const accessNFTABIJSON = `[
  {"type":"function","name":"balanceOf","stateMutability":"view",
   "inputs":[{"name":"owner","type":"address"}],
   "outputs":[{"name":"","type":"uint256"}]}
]`

var (
	MembershipABI = mustParseABI(membershipABIJSON)
	ListingABI    = mustParseABI(listingABIJSON)
	BookingABI    = mustParseABI(bookingABIJSON)
	AccessNFTABI  = mustParseABI(accessNFTABIJSON)
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic("invalid contract ABI: " + err.Error())
	}
	return parsed
}
