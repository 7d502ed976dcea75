// Package chain provides typed access to the membership, listing, booking and
// access-token contracts over JSON-RPC.
package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"bookchain/internal/models"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Reader is the read side of an RPC connection. *ethclient.Client implements it.
type Reader interface {
	bind.ContractCaller
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Signer produces transaction options for the connected account
type Signer interface {
	Address() common.Address
	TransactOpts(ctx context.Context, chainID *big.Int) (*bind.TransactOpts, error)
}

// Config holds client configuration.
type Config struct {
	RPCURL     string
	ChainID    uint64
	Deployment models.Deployment
	RateLimit  float64 // reads per second, <= 0 disables throttling
	RateBurst  int
	Timeout    time.Duration
}

// Client handles communication with the deployed contracts
type Client struct {
	reader     Reader
	transactor bind.ContractTransactor
	signer     Signer
	chainID    uint64
	deployment models.Deployment
	limiter    *rate.Limiter
	log        *logrus.Logger

	membership *contract
	listing    *contract
	booking    *contract
	accessNFT  *contract

	closeFn func()
}

type contract struct {
	name    string
	address common.Address
	abi     abi.ABI
	bound   *bind.BoundContract // nil when the address is not configured
}

// Dial connects to the RPC endpoint. signer may be nil for a read-only client.
func Dial(ctx context.Context, cfg Config, signer Signer, log *logrus.Logger) (*Client, error) {
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("RPC URL required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	rpc, err := ethclient.DialContext(dialCtx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.RPCURL, err)
	}

	client, err := New(rpc, rpc, cfg, signer, log)
	if err != nil {
		rpc.Close()
		return nil, err
	}
	client.closeFn = rpc.Close
	return client, nil
}

// New creates a client over an existing connection. transactor and signer
// may be nil; transactions then fail with models.ErrWatchOnly.
func New(reader Reader, transactor bind.ContractTransactor, cfg Config, signer Signer, log *logrus.Logger) (*Client, error) {
	if err := cfg.Deployment.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}

	c := &Client{
		reader:     reader,
		transactor: transactor,
		signer:     signer,
		chainID:    cfg.ChainID,
		deployment: cfg.Deployment,
		limiter:    rate.NewLimiter(limit, burst),
		log:        log,
	}

	c.membership = c.bind(models.ContractMembership, MembershipABI)
	c.listing = c.bind(models.ContractListing, ListingABI)
	c.booking = c.bind(models.ContractBooking, BookingABI)
	c.accessNFT = c.bind(models.ContractAccessNFT, AccessNFTABI)

	return c, nil
}

func (c *Client) bind(name string, parsed abi.ABI) *contract {
	ct := &contract{name: name, abi: parsed}
	addr, err := c.deployment.Address(name)
	if err != nil {
		return ct
	}
	ct.address = addr
	ct.bound = bind.NewBoundContract(addr, parsed, c.reader, c.transactor, nil)
	return ct
}

// Close releases the RPC connection
func (c *Client) Close() {
	if c.closeFn != nil {
		c.closeFn()
	}
}

// Deployment returns the configured contract addresses
func (c *Client) Deployment() models.Deployment {
	return c.deployment
}

// ExpectedChainID returns the configured chain id
func (c *Client) ExpectedChainID() uint64 {
	return c.chainID
}

// Account returns the signing account, if any
func (c *Client) Account() (common.Address, bool) {
	if c.signer == nil {
		return common.Address{}, false
	}
	return c.signer.Address(), true
}

// ChainID returns the chain id served by the RPC endpoint
func (c *Client) ChainID(ctx context.Context) (uint64, error) {
	id, err := c.reader.ChainID(ctx)
	if err != nil {
		return 0, fmt.Errorf("read chain id: %w", err)
	}
	return toUint64(id, "chain id")
}

// BlockNumber returns the latest block number
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	n, err := c.reader.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("read block number: %w", err)
	}
	return n, nil
}

// CodeAt returns the runtime bytecode at addr
func (c *Client) CodeAt(ctx context.Context, addr common.Address) ([]byte, error) {
	return c.reader.CodeAt(ctx, addr, nil)
}

// WaitMined blocks until the transaction is mined. A reverted receipt is
// returned together with models.ErrTxReverted.
func (c *Client) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	name, method := c.describe(tx)

	receipt, err := bind.WaitMined(ctx, c.reader, tx)
	if err != nil {
		observeTx(name, method, "error")
		return nil, fmt.Errorf("wait for %s: %w", tx.Hash().Hex(), err)
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		observeTx(name, method, "reverted")
		c.log.WithFields(logrus.Fields{
			"contract": name,
			"method":   method,
			"tx":       tx.Hash().Hex(),
			"block":    receipt.BlockNumber,
		}).Warn("transaction reverted")
		return receipt, fmt.Errorf("%s.%s: %w", name, method, models.ErrTxReverted)
	}

	observeTx(name, method, "confirmed")
	c.log.WithFields(logrus.Fields{
		"contract": name,
		"method":   method,
		"tx":       tx.Hash().Hex(),
		"gas_used": receipt.GasUsed,
	}).Info("transaction confirmed")
	return receipt, nil
}

// describe maps a transaction back to the contract and method it calls
func (c *Client) describe(tx *types.Transaction) (string, string) {
	if tx == nil || tx.To() == nil {
		return "unknown", "unknown"
	}
	for _, ct := range []*contract{c.membership, c.listing, c.booking, c.accessNFT} {
		if ct.bound == nil || ct.address != *tx.To() {
			continue
		}
		if data := tx.Data(); len(data) >= 4 {
			if m, err := ct.abi.MethodById(data[:4]); err == nil {
				return ct.name, m.Name
			}
		}
		return ct.name, "unknown"
	}
	return "unknown", "unknown"
}

// call runs a read-only contract call through the rate limiter
func (c *Client) call(ctx context.Context, ct *contract, method string, args ...interface{}) ([]interface{}, error) {
	if ct.bound == nil {
		return nil, models.ContractNotSet(ct.name)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var out []interface{}
	start := time.Now()
	err := ct.bound.Call(&bind.CallOpts{Context: ctx}, &out, method, args...)
	observeCall(ct.name, method, start, err)
	if err != nil {
		if errors.Is(err, bind.ErrNoCode) {
			return nil, fmt.Errorf("%s at %s: %w", ct.name, ct.address.Hex(), models.ErrNoCode)
		}
		return nil, err
	}
	return out, nil
}

// transact signs and broadcasts a contract call from the connected account
func (c *Client) transact(ctx context.Context, ct *contract, value *big.Int, method string, args ...interface{}) (*types.Transaction, error) {
	if ct.bound == nil {
		return nil, models.ContractNotSet(ct.name)
	}
	if c.signer == nil || c.transactor == nil {
		return nil, models.ErrWatchOnly
	}

	opts, err := c.signer.TransactOpts(ctx, new(big.Int).SetUint64(c.chainID))
	if err != nil {
		return nil, fmt.Errorf("prepare signer: %w", err)
	}
	opts.Context = ctx
	opts.Value = value

	start := time.Now()
	tx, err := ct.bound.Transact(opts, method, args...)
	observeCall(ct.name, method, start, err)
	if err != nil {
		observeTx(ct.name, method, "failed")
		return nil, err
	}

	c.log.WithFields(logrus.Fields{
		"contract": ct.name,
		"method":   method,
		"tx":       tx.Hash().Hex(),
		"value":    value,
	}).Info("transaction sent")
	return tx, nil
}

func toUint64(v *big.Int, what string) (uint64, error) {
	if v == nil || v.Sign() < 0 || !v.IsUint64() {
		return 0, fmt.Errorf("%s out of range: %v", what, v)
	}
	return v.Uint64(), nil
}

func bigUint(v uint64) *big.Int {
	return new(big.Int).SetUint64(v)
}
