// Package dapp holds the view logic shared by the CLI and the TUI: guards,
// sequential contract scans, amount calculation and the transaction lifecycle.
package dapp

import (
	"context"
	"math/big"
	"sync/atomic"
	"time"

	"bookchain/internal/models"
	"bookchain/internal/util"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"
)

// Messages shown to the user
const (
	MsgAlreadyBooked     = "This listing is already booked for the selected date."
	MsgCheckFailed       = "Could not check availability."
	MsgNoLongerAvailable = "This listing is no longer available. Please select another date."
	MsgBecomeMember      = "Become a member to book."
)

// Contracts is the contract access used by the service. *chain.Client implements it.
type Contracts interface {
	ChainID(ctx context.Context) (uint64, error)
	BlockNumber(ctx context.Context) (uint64, error)
	Deployment() models.Deployment
	CodeAt(ctx context.Context, addr common.Address) ([]byte, error)
	WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)
	WatchBlocks(ctx context.Context, interval time.Duration, fn func(ctx context.Context, block uint64)) error

	IsMember(ctx context.Context, account common.Address) (bool, error)
	MembershipExpiresAt(ctx context.Context, account common.Address) (uint64, error)
	BecomeMember(ctx context.Context, value *big.Int) (*types.Transaction, error)

	NextListingID(ctx context.Context) (uint64, error)
	GetListing(ctx context.Context, id uint64) (*models.Listing, error)
	IsAvailable(ctx context.Context, listingID, start, end uint64) (bool, error)
	CreateListing(ctx context.Context, pricePerHour *big.Int, cid string) (*types.Transaction, error)

	NextBookingID(ctx context.Context) (uint64, error)
	GetBooking(ctx context.Context, id uint64) (*models.Booking, error)
	Book(ctx context.Context, listingID, start, end uint64, value *big.Int) (*types.Transaction, error)

	AccessBalance(ctx context.Context, owner common.Address) (*big.Int, error)
}

// Options configures a Service
type Options struct {
	ChainID       uint64 // expected chain, 0 accepts any
	TokenDecimals int
	PollInterval  time.Duration
	Logger        *logrus.Logger
	Now           func() time.Time
}

// Service implements the membership, listing and booking views
type Service struct {
	contracts Contracts
	opts      Options
	log       *logrus.Logger

	scanning atomic.Bool
}

// NewService creates a service over contracts
func NewService(contracts Contracts, opts Options) *Service {
	if opts.TokenDecimals <= 0 {
		opts.TokenDecimals = util.DefaultDecimals
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 4 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Service{
		contracts: contracts,
		opts:      opts,
		log:       log,
	}
}

// Deployment returns the configured contract addresses
func (s *Service) Deployment() models.Deployment {
	return s.contracts.Deployment()
}

// Decimals returns the token decimals used for amounts
func (s *Service) Decimals() int {
	return s.opts.TokenDecimals
}

// BlockNumber returns the latest block number
func (s *Service) BlockNumber(ctx context.Context) (uint64, error) {
	return s.contracts.BlockNumber(ctx)
}

// DateOptions returns the bookable days starting today
func (s *Service) DateOptions(days int) []util.DateOption {
	return util.DateOptions(s.opts.Now(), days)
}

// onExpectedChain reports whether the RPC endpoint serves the configured chain
func (s *Service) onExpectedChain(ctx context.Context) (bool, error) {
	if s.opts.ChainID == 0 {
		return true, nil
	}
	id, err := s.contracts.ChainID(ctx)
	if err != nil {
		return false, err
	}
	return id == s.opts.ChainID, nil
}

func (s *Service) ensureNetwork(ctx context.Context) error {
	ok, err := s.onExpectedChain(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return models.ErrWrongNetwork
	}
	return nil
}

func (s *Service) has(name string) bool {
	d := s.contracts.Deployment()
	return d.Has(name)
}

// Notice is an error carrying the message shown to the user
type Notice struct {
	Err     error
	Message string
}

func (n *Notice) Error() string {
	return n.Message
}

func (n *Notice) Unwrap() error {
	return n.Err
}

// TxObserver receives every state change of a submitted transaction
type TxObserver func(models.TxResult)

// submit runs a write through Pending -> Confirming -> Confirmed|Failed
func (s *Service) submit(ctx context.Context, action string, observe TxObserver, send func() (*types.Transaction, error)) (models.TxResult, error) {
	notify := func(r models.TxResult) {
		if observe != nil {
			observe(r)
		}
	}

	res := models.TxResult{Action: action, State: models.TxPending}
	notify(res)

	tx, err := send()
	if err != nil {
		res.State = models.TxFailed
		res.Err = err
		notify(res)
		return res, err
	}

	res.Hash = tx.Hash()
	res.State = models.TxConfirming
	notify(res)

	receipt, err := s.contracts.WaitMined(ctx, tx)
	res.Receipt = receipt
	if err != nil {
		res.State = models.TxFailed
		res.Err = err
		notify(res)
		return res, err
	}

	res.State = models.TxConfirmed
	notify(res)
	return res, nil
}
