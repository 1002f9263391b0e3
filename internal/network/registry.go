package network

import "fmt"

// Registry resolves network tables by chain id.
type Registry struct {
	networks map[uint64]Network
}

// NewRegistry starts from the built-in tables and applies overrides; an
// override replaces the built-in table for the same chain id.
func NewRegistry(overrides []Config) (*Registry, error) {
	r := &Registry{networks: make(map[uint64]Network)}
	for _, cfg := range append(builtins(), overrides...) {
		n, err := New(cfg)
		if err != nil {
			return nil, err
		}
		r.networks[n.ChainID] = n
	}
	return r, nil
}

// Get returns the table for chainID.
func (r *Registry) Get(chainID uint64) (Network, error) {
	n, ok := r.networks[chainID]
	if !ok {
		return Network{}, fmt.Errorf("unknown network %d", chainID)
	}
	return n, nil
}

func builtins() []Config {
	return []Config{
		{
			ChainID:       1,
			Name:          "ethereum",
			WrappedNative: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
			NativeSymbol:  "ETH",
			NativeName:    "Ether",
			BlocksPerDay:  7200,
			Stablecoins: []string{
				"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", // USDC
				"0xdAC17F958D2ee523a2206206994597C13D831ec7", // USDT
				"0x6B175474E89094C44Da98b954EedeAC495271d0F", // DAI
			},
			Whitelist: []string{
				"0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
				"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
				"0xdAC17F958D2ee523a2206206994597C13D831ec7",
				"0x6B175474E89094C44Da98b954EedeAC495271d0F",
				"0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599", // WBTC
			},
		},
		{
			ChainID:       56,
			Name:          "bsc",
			WrappedNative: "0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c",
			NativeSymbol:  "BNB",
			NativeName:    "BNB",
			BlocksPerDay:  28800,
			Stablecoins: []string{
				"0x55d398326f99059fF775485246999027B3197955", // USDT
				"0x8AC76a51cc950d9822D68b83fE1Ad97B32Cd580d", // USDC
				"0xe9e7CEA3DedcA5984780Bafc599bD69ADd087D56", // BUSD
			},
			Whitelist: []string{
				"0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c",
				"0x55d398326f99059fF775485246999027B3197955",
				"0x8AC76a51cc950d9822D68b83fE1Ad97B32Cd580d",
				"0xe9e7CEA3DedcA5984780Bafc599bD69ADd087D56",
				"0x2170Ed0880ac9A755fd29B2688956BD959F933F8", // ETH
			},
		},
		{
			ChainID:       8453,
			Name:          "base",
			WrappedNative: "0x4200000000000000000000000000000000000006",
			NativeSymbol:  "ETH",
			NativeName:    "Ether",
			BlocksPerDay:  43200,
			Stablecoins: []string{
				"0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", // USDC
				"0x50c5725949A6F0c72E6C4a641F24049A917DB0Cb", // DAI
			},
			Whitelist: []string{
				"0x4200000000000000000000000000000000000006",
				"0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
				"0x50c5725949A6F0c72E6C4a641F24049A917DB0Cb",
			},
		},
		{
			ChainID:       42161,
			Name:          "arbitrum",
			WrappedNative: "0x82aF49447D8a07e3bd95BD0d56f35241523fBab1",
			NativeSymbol:  "ETH",
			NativeName:    "Ether",
			BlocksPerDay:  345600,
			Stablecoins: []string{
				"0xaf88d065e77c8cC2239327C5EDb3A432268e5831", // USDC
				"0xFd086bC7CD5C481DCC9C85ebE478A1C0b69FCbb9", // USDT
				"0xDA10009cBd5D07dd0CeCc66161FC93D7c9000da1", // DAI
			},
			Whitelist: []string{
				"0x82aF49447D8a07e3bd95BD0d56f35241523fBab1",
				"0xaf88d065e77c8cC2239327C5EDb3A432268e5831",
				"0xFd086bC7CD5C481DCC9C85ebE478A1C0b69FCbb9",
			},
		},
	}
}
