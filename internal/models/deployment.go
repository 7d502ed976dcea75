package models

import (
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// Contract names used in errors, logs and metrics
const (
	ContractMembership = "membership"
	ContractListing    = "listing"
	ContractBooking    = "booking"
	ContractAccessNFT  = "access_nft"
)

// Deployment holds the deployed contract addresses.
// The YAML decoder also accepts the JSON manifest written by the deploy script.
type Deployment struct {
	Membership string `json:"membership" yaml:"membership"`
	Listing    string `json:"listing" yaml:"listing"`
	Booking    string `json:"booking" yaml:"booking"`
	AccessNFT  string `json:"accessNft,omitempty" yaml:"accessNft"`
}

// LoadDeployment reads a deployment manifest from a JSON or YAML file
func LoadDeployment(path string) (*Deployment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var d Deployment
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("error parsing deployment manifest: %w", err)
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}

	return &d, nil
}

// Named returns the addresses keyed by contract name
func (d Deployment) Named() map[string]string {
	return map[string]string{
		ContractMembership: d.Membership,
		ContractListing:    d.Listing,
		ContractBooking:    d.Booking,
		ContractAccessNFT:  d.AccessNFT,
	}
}

// Has reports whether the named contract has an address
func (d Deployment) Has(name string) bool {
	return strings.TrimSpace(d.Named()[name]) != ""
}

// Address returns the parsed address of the named contract
func (d Deployment) Address(name string) (common.Address, error) {
	raw := strings.TrimSpace(d.Named()[name])
	if raw == "" {
		return common.Address{}, ContractNotSet(name)
	}
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("%s: invalid address %q", name, raw)
	}
	return common.HexToAddress(raw), nil
}

// Validate checks that every configured address is well formed
func (d Deployment) Validate() error {
	for name, raw := range d.Named() {
		raw = strings.TrimSpace(raw)
		if raw != "" && !common.IsHexAddress(raw) {
			return fmt.Errorf("%s: invalid address %q", name, raw)
		}
	}
	return nil
}
