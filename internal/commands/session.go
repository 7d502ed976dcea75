package commands

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"

	"bookchain/internal/chain"
	"bookchain/internal/config"
	"bookchain/internal/dapp"
	"bookchain/internal/models"
	"bookchain/internal/util"
	"bookchain/internal/wallet"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
)

// session bundles what a command needs to talk to the contracts
type session struct {
	cfg     *config.Config
	conn    *models.Connection // nil when no wallet is connected
	wallet  *wallet.Wallet     // nil for watch-only or disconnected sessions
	client  *chain.Client
	service *dapp.Service
}

// openSession loads the connected wallet and dials the RPC endpoint.
// With needSigner, a connected keystore account is required.
func openSession(ctx context.Context, needSigner bool) (*session, error) {
	cfg := globalConfig
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	globalConfigDir, err := config.GetGlobalConfigDir()
	if err != nil {
		return nil, err
	}

	s := &session{cfg: cfg}

	conn, err := models.NewWalletStore(globalConfigDir).GetConnection()
	switch {
	case errors.Is(err, models.ErrNotConnected):
		if needSigner {
			return nil, fmt.Errorf("%w: run 'bookchain wallet connect' first", models.ErrNotConnected)
		}
	case err != nil:
		return nil, fmt.Errorf("error reading wallet connection: %w", err)
	default:
		s.conn = conn
	}

	var signer chain.Signer
	if s.conn != nil && !s.conn.WatchOnly {
		keystoreDir, err := cfg.KeystorePath()
		if err != nil {
			return nil, err
		}
		w, err := wallet.Open(keystoreDir).Wallet(s.conn.Address, wallet.EnvOrPrompt("Passphrase: "))
		if err != nil {
			return nil, err
		}
		s.wallet = w
		signer = w
	}
	if needSigner && signer == nil {
		return nil, models.ErrWatchOnly
	}

	client, err := chain.Dial(ctx, chain.Config{
		RPCURL:     cfg.RPCURL,
		ChainID:    cfg.ChainID,
		Deployment: cfg.Deployment(),
		RateLimit:  cfg.RPCRateLimit,
		RateBurst:  cfg.RPCRateBurst,
	}, signer, logger)
	if err != nil {
		return nil, err
	}
	s.client = client

	s.service = dapp.NewService(client, dapp.Options{
		ChainID:       cfg.ChainID,
		TokenDecimals: cfg.TokenDecimals,
		PollInterval:  cfg.Poll(),
		Logger:        logger,
	})

	return s, nil
}

// address returns the connected address, zero when disconnected
func (s *session) address() common.Address {
	if s.conn == nil {
		return common.Address{}
	}
	return s.conn.Address
}

func (s *session) close() {
	s.client.Close()
}

// amount formats a token amount with the configured symbol
func (s *session) amount(v *big.Int) string {
	return fmt.Sprintf("%s %s", util.FormatAmount(v, s.cfg.TokenDecimals), s.cfg.CurrencySymbol)
}

// printTx reports every transaction state change on stdout
func printTx(r models.TxResult) {
	switch r.State {
	case models.TxPending:
		color.Yellow("%s: %s\n", r.Action, r.Label())
	case models.TxConfirming:
		color.Yellow("%s: %s tx %s\n", r.Action, r.Label(), r.ShortHash())
	case models.TxConfirmed:
		color.Green("%s: %s tx %s\n", r.Action, r.Label(), r.ShortHash())
	case models.TxFailed:
		if r.HasHash() {
			color.Red("%s: %s tx %s\n", r.Action, r.Label(), r.ShortHash())
		} else {
			color.Red("%s: %s\n", r.Action, r.Label())
		}
		if r.Err != nil {
			fmt.Fprintln(os.Stderr, r.Err)
		}
	}
}
