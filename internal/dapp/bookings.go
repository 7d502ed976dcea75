package dapp

import (
	"context"
	"errors"
	"math/big"

	"bookchain/internal/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// MyBookings returns the bookings rented by addr, each enriched with its
// listing's CID and price. Only one scan runs at a time; a concurrent call
// returns models.ErrScanInProgress.
func (s *Service) MyBookings(ctx context.Context, addr common.Address) ([]models.BookingWithDetails, error) {
	if addr == (common.Address{}) {
		return nil, models.ErrNotConnected
	}
	if !s.has(models.ContractBooking) {
		return nil, models.ContractNotSet(models.ContractBooking)
	}
	if !s.has(models.ContractListing) {
		return nil, models.ContractNotSet(models.ContractListing)
	}

	if !s.scanning.CompareAndSwap(false, true) {
		return nil, models.ErrScanInProgress
	}
	defer s.scanning.Store(false)

	if err := s.ensureNetwork(ctx); err != nil {
		return nil, err
	}

	next, err := s.contracts.NextBookingID(ctx)
	if err != nil {
		return nil, err
	}

	log := s.log.WithFields(logrus.Fields{
		"scan_id": uuid.NewString(),
		"renter":  addr.Hex(),
	})
	log.WithField("next_id", next).Debug("scanning bookings")

	bookings := []models.BookingWithDetails{}
	for id := uint64(1); id < next; id++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		b, err := s.contracts.GetBooking(ctx, id)
		if err != nil {
			log.WithError(err).WithField("id", id).Warn("error reading booking")
			continue
		}
		if b.Renter != addr {
			continue
		}

		l, err := s.contracts.GetListing(ctx, b.ListingID)
		if err != nil {
			log.WithError(err).WithFields(logrus.Fields{
				"id":         id,
				"listing_id": b.ListingID,
			}).Warn("error reading booked listing")
			continue
		}

		bookings = append(bookings, models.BookingWithDetails{
			Booking:      *b,
			CID:          l.CID,
			PricePerHour: l.PricePerHour,
		})
	}

	log.WithField("count", len(bookings)).Debug("bookings loaded")
	return bookings, nil
}

// WatchMyBookings loads the bookings of addr once, then again on every new
// block, passing each result to fn. Reloads skipped by the scan guard are
// not reported. It returns when ctx is cancelled.
func (s *Service) WatchMyBookings(ctx context.Context, addr common.Address, fn func([]models.BookingWithDetails, error)) error {
	load := func(ctx context.Context) {
		bookings, err := s.MyBookings(ctx, addr)
		if errors.Is(err, models.ErrScanInProgress) {
			return
		}
		if err != nil && ctx.Err() != nil {
			return
		}
		fn(bookings, err)
	}

	load(ctx)
	return s.contracts.WatchBlocks(ctx, s.opts.PollInterval, func(ctx context.Context, block uint64) {
		s.log.WithField("block", block).Debug("reloading bookings")
		load(ctx)
	})
}

// AccessTokens returns the access-token balance of addr
func (s *Service) AccessTokens(ctx context.Context, addr common.Address) (*big.Int, error) {
	if addr == (common.Address{}) {
		return nil, models.ErrNotConnected
	}
	if !s.has(models.ContractAccessNFT) {
		return nil, models.ContractNotSet(models.ContractAccessNFT)
	}
	return s.contracts.AccessBalance(ctx, addr)
}
