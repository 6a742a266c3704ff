package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"

	"github.com/haMahdiyar/analyzer-galxe-refdrop/internal/domain"
)

var ErrNoNetworks = errors.New("config: no networks configured")

// The tracking contract exposes both reads, so it serves both capabilities.
var defaultNetworks = []domain.Network{
	{
		Name:                 "Linea",
		RPCURL:               "https://rpc.linea.build",
		ReferralContract:     "0xB78F9d52405DcF40D6fC684032fDaf658dA67725",
		SubscriptionContract: "0xB78F9d52405DcF40D6fC684032fDaf658dA67725",
	},
	{
		Name:                 "Arbitrum",
		RPCURL:               "https://arb1.arbitrum.io/rpc",
		ReferralContract:     "0xAd2969f87Def708FE5BaCbA4662a9e704dE8cdC4",
		SubscriptionContract: "0xAd2969f87Def708FE5BaCbA4662a9e704dE8cdC4",
	},
	{
		Name:                 "Ethereum",
		RPCURL:               "https://1rpc.io/eth",
		ReferralContract:     "0xDFe1AF29E0Acfe73D61374619091A11582E56696",
		SubscriptionContract: "0xDFe1AF29E0Acfe73D61374619091A11582E56696",
	},
	{
		Name:                 "Base",
		RPCURL:               "https://mainnet.base.org",
		ReferralContract:     "0xf7523828D4934F468F23A2AECdB1D7CA224E8d38",
		SubscriptionContract: "0xf7523828D4934F468F23A2AECdB1D7CA224E8d38",
	},
	{
		Name:                 "BSC",
		RPCURL:               "https://1rpc.io/bnb",
		ReferralContract:     "0xBf67C207031B0Bdc8f64265B885ffAe95C2076d9",
		SubscriptionContract: "0xBf67C207031B0Bdc8f64265B885ffAe95C2076d9",
	},
}

// DefaultNetworks returns a copy of the built-in five-network table.
func DefaultNetworks() []domain.Network {
	out := make([]domain.Network, len(defaultNetworks))
	copy(out, defaultNetworks)
	return out
}

type networksFile struct {
	Networks []domain.Network `yaml:"networks"`
}

// LoadNetworks reads a YAML network table:
//
//	networks:
//	  - name: Linea
//	    rpc_url: https://rpc.linea.build
//	    referral_contract: "0x..."
//	    subscription_contract: "0x..."
func LoadNetworks(path string) ([]domain.Network, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read networks file: %w", err)
	}
	var file networksFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse networks file %s: %w", path, err)
	}
	if err := ValidateNetworks(file.Networks); err != nil {
		return nil, fmt.Errorf("networks file %s: %w", path, err)
	}
	return file.Networks, nil
}

func ValidateNetworks(networks []domain.Network) error {
	if len(networks) == 0 {
		return ErrNoNetworks
	}
	seen := make(map[string]struct{}, len(networks))
	var errs []error
	for i, n := range networks {
		if n.Name == "" {
			errs = append(errs, fmt.Errorf("network %d: name is required", i))
		} else if _, dup := seen[n.Name]; dup {
			errs = append(errs, fmt.Errorf("network %s: duplicate name", n.Name))
		}
		seen[n.Name] = struct{}{}
		if n.RPCURL == "" {
			errs = append(errs, fmt.Errorf("network %s: rpc_url is required", n.Name))
		}
		if n.ReferralContract == "" && n.SubscriptionContract == "" {
			errs = append(errs, fmt.Errorf("network %s: no contract configured", n.Name))
		}
		for _, c := range []string{n.ReferralContract, n.SubscriptionContract} {
			if c != "" && !common.IsHexAddress(c) {
				errs = append(errs, fmt.Errorf("network %s: invalid contract address %q", n.Name, c))
			}
		}
	}
	return errors.Join(errs...)
}
