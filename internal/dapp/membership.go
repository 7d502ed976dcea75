package dapp

import (
	"context"
	"fmt"

	"bookchain/internal/models"
	"bookchain/internal/util"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// MembershipStatus returns the membership state of addr. Status and expiry
// are read concurrently.
func (s *Service) MembershipStatus(ctx context.Context, addr common.Address) (*models.Membership, error) {
	m := &models.Membership{Address: addr}

	if addr == (common.Address{}) {
		m.State = models.MembershipDisconnected
		return m, nil
	}
	if !s.has(models.ContractMembership) {
		m.State = models.MembershipNoContract
		return m, nil
	}

	ok, err := s.onExpectedChain(ctx)
	if err != nil {
		return nil, fmt.Errorf("error reading chain id: %w", err)
	}
	if !ok {
		m.State = models.MembershipWrongNetwork
		return m, nil
	}

	var (
		member bool
		expiry uint64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		member, err = s.contracts.IsMember(gctx, addr)
		return err
	})
	g.Go(func() error {
		var err error
		expiry, err = s.contracts.MembershipExpiresAt(gctx, addr)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	m.State = models.MembershipInactive
	if member {
		m.State = models.MembershipActive
	}
	m.ExpiresAt = expiry
	return m, nil
}

// RequireMember fails with MsgBecomeMember unless addr is an active member
func (s *Service) RequireMember(ctx context.Context, addr common.Address) error {
	m, err := s.MembershipStatus(ctx, addr)
	if err != nil {
		return err
	}
	switch m.State {
	case models.MembershipDisconnected:
		return models.ErrNotConnected
	case models.MembershipNoContract:
		return models.ContractNotSet(models.ContractMembership)
	case models.MembershipWrongNetwork:
		return models.ErrWrongNetwork
	case models.MembershipInactive:
		return &Notice{Err: models.ErrNotMember, Message: MsgBecomeMember}
	}
	return nil
}

// BuyMembership pays amount (in whole tokens, parsed with decimals) to buy
// or extend a membership. Empty amount means "1"; decimals <= 0 means the
// configured token decimals.
func (s *Service) BuyMembership(ctx context.Context, amount string, decimals int, observe TxObserver) (models.TxResult, error) {
	if amount == "" {
		amount = "1"
	}
	if decimals <= 0 {
		decimals = s.opts.TokenDecimals
	}

	res := models.TxResult{Action: "becomeMember", State: models.TxIdle}
	if !s.has(models.ContractMembership) {
		return res, models.ContractNotSet(models.ContractMembership)
	}
	if err := s.ensureNetwork(ctx); err != nil {
		return res, err
	}

	value, err := util.ParseUnits(amount, decimals)
	if err != nil {
		return res, err
	}

	s.log.WithFields(logrus.Fields{
		"amount":   amount,
		"decimals": decimals,
	}).Info("buying membership")

	return s.submit(ctx, "becomeMember", observe, func() (*types.Transaction, error) {
		return s.contracts.BecomeMember(ctx, value)
	})
}
