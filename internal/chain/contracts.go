package chain

import (
	"context"
	"fmt"
	"math/big"

	"bookchain/internal/models"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// IsMember reports whether account holds an active membership
func (c *Client) IsMember(ctx context.Context, account common.Address) (bool, error) {
	out, err := c.call(ctx, c.membership, "isMember", account)
	if err != nil {
		return false, fmt.Errorf("error checking membership: %w", err)
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

// MembershipExpiresAt returns the membership expiry as a unix timestamp, 0 if none
func (c *Client) MembershipExpiresAt(ctx context.Context, account common.Address) (uint64, error) {
	out, err := c.call(ctx, c.membership, "membershipExpiresAt", account)
	if err != nil {
		return 0, fmt.Errorf("error reading membership expiry: %w", err)
	}
	return toUint64(*abi.ConvertType(out[0], new(*big.Int)).(**big.Int), "membership expiry")
}

// BecomeMember pays value to buy or extend a membership
func (c *Client) BecomeMember(ctx context.Context, value *big.Int) (*types.Transaction, error) {
	tx, err := c.transact(ctx, c.membership, value, "becomeMember")
	if err != nil {
		return nil, fmt.Errorf("error sending becomeMember: %w", err)
	}
	return tx, nil
}

// NextListingID returns the id the next created listing will receive
func (c *Client) NextListingID(ctx context.Context) (uint64, error) {
	out, err := c.call(ctx, c.listing, "nextListingId")
	if err != nil {
		return 0, fmt.Errorf("error reading nextListingId: %w", err)
	}
	return toUint64(*abi.ConvertType(out[0], new(*big.Int)).(**big.Int), "nextListingId")
}

// GetListing fetches a single listing record
func (c *Client) GetListing(ctx context.Context, id uint64) (*models.Listing, error) {
	out, err := c.call(ctx, c.listing, "getListing", bigUint(id))
	if err != nil {
		return nil, fmt.Errorf("error fetching listing %d: %w", id, err)
	}
	if len(out) != 4 {
		return nil, fmt.Errorf("error fetching listing %d: unexpected output length %d", id, len(out))
	}

	return &models.Listing{
		ID:           id,
		Owner:        *abi.ConvertType(out[0], new(common.Address)).(*common.Address),
		PricePerHour: *abi.ConvertType(out[1], new(*big.Int)).(**big.Int),
		CID:          *abi.ConvertType(out[2], new(string)).(*string),
		Active:       *abi.ConvertType(out[3], new(bool)).(*bool),
	}, nil
}

// IsAvailable reports whether [start, end) is free for the listing
func (c *Client) IsAvailable(ctx context.Context, listingID, start, end uint64) (bool, error) {
	out, err := c.call(ctx, c.listing, "isAvailable", bigUint(listingID), bigUint(start), bigUint(end))
	if err != nil {
		return false, fmt.Errorf("error checking availability of listing %d: %w", listingID, err)
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

// CreateListing publishes a new listing owned by the connected account
func (c *Client) CreateListing(ctx context.Context, pricePerHour *big.Int, cid string) (*types.Transaction, error) {
	tx, err := c.transact(ctx, c.listing, nil, "createListing", pricePerHour, cid)
	if err != nil {
		return nil, fmt.Errorf("error sending createListing: %w", err)
	}
	return tx, nil
}

// NextBookingID returns the id the next booking will receive
func (c *Client) NextBookingID(ctx context.Context) (uint64, error) {
	out, err := c.call(ctx, c.booking, "nextBookingId")
	if err != nil {
		return 0, fmt.Errorf("error reading nextBookingId: %w", err)
	}
	return toUint64(*abi.ConvertType(out[0], new(*big.Int)).(**big.Int), "nextBookingId")
}

// GetBooking fetches a single booking record
func (c *Client) GetBooking(ctx context.Context, id uint64) (*models.Booking, error) {
	out, err := c.call(ctx, c.booking, "bookings", bigUint(id))
	if err != nil {
		return nil, fmt.Errorf("error fetching booking %d: %w", id, err)
	}
	if len(out) != 6 {
		return nil, fmt.Errorf("error fetching booking %d: unexpected output length %d", id, len(out))
	}

	listingID, err := toUint64(*abi.ConvertType(out[1], new(*big.Int)).(**big.Int), "listing id")
	if err != nil {
		return nil, fmt.Errorf("error decoding booking %d: %w", id, err)
	}
	start, err := toUint64(*abi.ConvertType(out[2], new(*big.Int)).(**big.Int), "start")
	if err != nil {
		return nil, fmt.Errorf("error decoding booking %d: %w", id, err)
	}
	end, err := toUint64(*abi.ConvertType(out[3], new(*big.Int)).(**big.Int), "end")
	if err != nil {
		return nil, fmt.Errorf("error decoding booking %d: %w", id, err)
	}

	return &models.Booking{
		ID:        id,
		Renter:    *abi.ConvertType(out[0], new(common.Address)).(*common.Address),
		ListingID: listingID,
		StartTs:   start,
		EndTs:     end,
		Amount:    *abi.ConvertType(out[4], new(*big.Int)).(**big.Int),
		Released:  *abi.ConvertType(out[5], new(bool)).(*bool),
	}, nil
}

// Book reserves [start, end) on a listing, paying value
func (c *Client) Book(ctx context.Context, listingID, start, end uint64, value *big.Int) (*types.Transaction, error) {
	tx, err := c.transact(ctx, c.booking, value, "book", bigUint(listingID), bigUint(start), bigUint(end))
	if err != nil {
		return nil, fmt.Errorf("error sending book: %w", err)
	}
	return tx, nil
}

// AccessBalance returns the number of access tokens held by owner
func (c *Client) AccessBalance(ctx context.Context, owner common.Address) (*big.Int, error) {
	out, err := c.call(ctx, c.accessNFT, "balanceOf", owner)
	if err != nil {
		return nil, fmt.Errorf("error reading access token balance: %w", err)
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}
