package dapp

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"bookchain/internal/models"
	"bookchain/internal/util"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Availability is the outcome of an availability check
type Availability struct {
	Checked   bool
	Available bool
	Message   string // empty when available
	Err       error
}

// Listings returns the active listings. It returns an empty list when the
// listing contract is not configured or the endpoint serves another chain.
// Listings that fail to load are logged and skipped.
func (s *Service) Listings(ctx context.Context) ([]models.Listing, error) {
	listings := []models.Listing{}

	if !s.has(models.ContractListing) {
		return listings, nil
	}
	ok, err := s.onExpectedChain(ctx)
	if err != nil {
		return nil, fmt.Errorf("error reading chain id: %w", err)
	}
	if !ok {
		return listings, nil
	}

	next, err := s.contracts.NextListingID(ctx)
	if err != nil {
		return nil, err
	}

	log := s.log.WithField("scan_id", uuid.NewString())
	log.WithField("next_id", next).Debug("scanning listings")

	for id := uint64(1); id < next; id++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		l, err := s.contracts.GetListing(ctx, id)
		if err != nil {
			log.WithError(err).WithField("id", id).Warn("error reading listing")
			continue
		}
		if l.Active {
			listings = append(listings, *l)
		}
	}

	return listings, nil
}

// Listing reads a single listing
func (s *Service) Listing(ctx context.Context, id uint64) (*models.Listing, error) {
	if id == 0 {
		return nil, fmt.Errorf("invalid listing id 0")
	}
	if !s.has(models.ContractListing) {
		return nil, models.ContractNotSet(models.ContractListing)
	}
	return s.contracts.GetListing(ctx, id)
}

// CheckAvailability checks whether [start, end) is free on a listing
// An unset listing contract is not checked.
func (s *Service) CheckAvailability(ctx context.Context, listingID, start, end uint64) Availability {
	if !s.has(models.ContractListing) {
		return Availability{}
	}

	ok, err := s.contracts.IsAvailable(ctx, listingID, start, end)
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"listing_id": listingID,
			"start":      start,
			"end":        end,
		}).Warn("availability check failed")
		return Availability{Checked: true, Message: MsgCheckFailed, Err: err}
	}
	if !ok {
		return Availability{Checked: true, Message: MsgAlreadyBooked}
	}
	return Availability{Checked: true, Available: true}
}

// CheckDay checks availability for a whole UTC day (YYYY-MM-DD). An empty
// date is not checked.
func (s *Service) CheckDay(ctx context.Context, listingID uint64, isoDate string) Availability {
	if isoDate == "" {
		return Availability{}
	}
	start, end, err := util.UTCDayRange(isoDate)
	if err != nil {
		return Availability{Checked: true, Message: err.Error(), Err: err}
	}
	return s.CheckAvailability(ctx, listingID, start, end)
}

// BookingCost returns the payment for [start, end): started hours times the hourly price
func BookingCost(pricePerHour *big.Int, start, end uint64) (*big.Int, error) {
	if end <= start {
		return nil, models.ErrInvalidDuration
	}
	if pricePerHour == nil {
		pricePerHour = new(big.Int)
	}
	hours := new(big.Int).SetUint64(util.HoursCeil(end - start))
	return hours.Mul(hours, pricePerHour), nil
}

// BookDay books a listing for the UTC day isoDate, re-checking availability first
func (s *Service) BookDay(ctx context.Context, listing *models.Listing, isoDate string, observe TxObserver) (models.TxResult, error) {
	res := models.TxResult{Action: "book", State: models.TxIdle}
	if isoDate == "" {
		return res, models.ErrNoDateSelected
	}
	start, end, err := util.UTCDayRange(isoDate)
	if err != nil {
		return res, err
	}
	return s.BookRange(ctx, listing, start, end, observe)
}

// BookRange books [start, end) on listing, paying the computed cost
func (s *Service) BookRange(ctx context.Context, listing *models.Listing, start, end uint64, observe TxObserver) (models.TxResult, error) {
	res := models.TxResult{Action: "book", State: models.TxIdle}
	if listing == nil {
		return res, fmt.Errorf("no listing selected")
	}
	if !s.has(models.ContractBooking) {
		return res, models.ContractNotSet(models.ContractBooking)
	}

	amount, err := BookingCost(listing.PricePerHour, start, end)
	if err != nil {
		return res, err
	}
	if err := s.ensureNetwork(ctx); err != nil {
		return res, err
	}

	ok, err := s.contracts.IsAvailable(ctx, listing.ID, start, end)
	if err != nil {
		return res, &Notice{Err: err, Message: MsgCheckFailed}
	}
	if !ok {
		return res, &Notice{Err: models.ErrUnavailable, Message: MsgNoLongerAvailable}
	}

	s.log.WithFields(logrus.Fields{
		"listing_id": listing.ID,
		"start":      start,
		"end":        end,
		"amount":     amount.String(),
	}).Info("booking listing")

	return s.submit(ctx, "book", observe, func() (*types.Transaction, error) {
		return s.contracts.Book(ctx, listing.ID, start, end, amount)
	})
}

// Book sends a raw booking with explicit timestamps. payment is in whole
// tokens with 18 decimals; empty sends no value.
func (s *Service) Book(ctx context.Context, listingID, start, end uint64, payment string, observe TxObserver) (models.TxResult, error) {
	res := models.TxResult{Action: "book", State: models.TxIdle}
	if listingID == 0 || start == 0 || end == 0 {
		return res, errors.New("listing id, start and end are required")
	}
	if !s.has(models.ContractBooking) {
		return res, models.ContractNotSet(models.ContractBooking)
	}

	var value *big.Int
	if payment != "" {
		v, err := util.ParseUnits(payment, util.DefaultDecimals)
		if err != nil {
			return res, err
		}
		value = v
	}

	return s.submit(ctx, "book", observe, func() (*types.Transaction, error) {
		return s.contracts.Book(ctx, listingID, start, end, value)
	})
}

// CreateListing publishes a listing priced in whole tokens per hour
func (s *Service) CreateListing(ctx context.Context, pricePerHour, cid string, observe TxObserver) (models.TxResult, error) {
	res := models.TxResult{Action: "createListing", State: models.TxIdle}
	if !s.has(models.ContractListing) {
		return res, models.ContractNotSet(models.ContractListing)
	}
	if err := s.ensureNetwork(ctx); err != nil {
		return res, err
	}

	price, err := util.ParseUnits(pricePerHour, s.opts.TokenDecimals)
	if err != nil {
		return res, err
	}

	return s.submit(ctx, "createListing", observe, func() (*types.Transaction, error) {
		return s.contracts.CreateListing(ctx, price, cid)
	})
}
