package dapp

import (
	"context"
	"fmt"
	"strings"

	"bookchain/internal/models"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"
)

// ContractCode describes the bytecode found at a configured address
type ContractCode struct {
	Name       string
	Address    common.Address
	Configured bool
	CodeSize   int
}

// DeploymentReport is the result of VerifyDeployment
type DeploymentReport struct {
	ChainID   uint64
	Contracts []ContractCode
}

var contractOrder = []string{
	models.ContractMembership,
	models.ContractListing,
	models.ContractBooking,
	models.ContractAccessNFT,
}

// VerifyDeployment checks that code exists at every configured address.
// The report is returned even when verification fails.
func (s *Service) VerifyDeployment(ctx context.Context) (*DeploymentReport, error) {
	chainID, err := s.contracts.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("error reading chain id: %w", err)
	}

	report := &DeploymentReport{
		ChainID:   chainID,
		Contracts: make([]ContractCode, len(contractOrder)),
	}
	deployment := s.contracts.Deployment()

	g, gctx := errgroup.WithContext(ctx)
	for i, name := range contractOrder {
		report.Contracts[i] = ContractCode{Name: name}
		if !deployment.Has(name) {
			continue
		}
		addr, err := deployment.Address(name)
		if err != nil {
			return nil, err
		}
		report.Contracts[i].Address = addr
		report.Contracts[i].Configured = true

		g.Go(func() error {
			code, err := s.contracts.CodeAt(gctx, addr)
			if err != nil {
				return fmt.Errorf("%s: %w", contractOrder[i], err)
			}
			report.Contracts[i].CodeSize = len(code)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	if s.opts.ChainID != 0 && chainID != s.opts.ChainID {
		return report, fmt.Errorf("endpoint serves chain %d, expected %d: %w", chainID, s.opts.ChainID, models.ErrWrongNetwork)
	}

	var missing []string
	for _, c := range report.Contracts {
		if c.Configured && c.CodeSize == 0 {
			missing = append(missing, c.Name)
		}
	}
	if len(missing) > 0 {
		return report, fmt.Errorf("%s: %w", strings.Join(missing, ", "), models.ErrNoCode)
	}

	return report, nil
}
