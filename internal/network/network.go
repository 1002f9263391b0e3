package network

import (
	"fmt"
	"strings"
)

// ZeroAddress is the native-asset sentinel used by most pool factories.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// Network holds the per-chain reference tables used to classify pools.
type Network struct {
	ChainID        uint64
	Name           string
	NativeAddress  string
	WrappedNative  string
	NativeSymbol   string
	NativeName     string
	NativeDecimals uint8
	BlocksPerDay   uint64
	Stablecoins    map[string]struct{}
	Whitelist      map[string]struct{}
}

// Config is the mapstructure shape of a network table in the config file.
type Config struct {
	ChainID        uint64   `mapstructure:"chain-id"`
	Name           string   `mapstructure:"name"`
	NativeAddress  string   `mapstructure:"native-address"`
	WrappedNative  string   `mapstructure:"wrapped-native"`
	NativeSymbol   string   `mapstructure:"native-symbol"`
	NativeName     string   `mapstructure:"native-name"`
	NativeDecimals uint8    `mapstructure:"native-decimals"`
	BlocksPerDay   uint64   `mapstructure:"blocks-per-day"`
	Stablecoins    []string `mapstructure:"stablecoins"`
	Whitelist      []string `mapstructure:"whitelist"`
}

// New builds a Network from a config entry, normalizing addresses.
func New(cfg Config) (Network, error) {
	if cfg.ChainID == 0 {
		return Network{}, fmt.Errorf("network chain id is required")
	}
	if cfg.BlocksPerDay == 0 {
		return Network{}, fmt.Errorf("network %d: blocks per day is required", cfg.ChainID)
	}
	native := cfg.NativeAddress
	if native == "" {
		native = ZeroAddress
	}
	decimals := cfg.NativeDecimals
	if decimals == 0 {
		decimals = 18
	}
	return Network{
		ChainID:        cfg.ChainID,
		Name:           cfg.Name,
		NativeAddress:  normalize(native),
		WrappedNative:  normalize(cfg.WrappedNative),
		NativeSymbol:   cfg.NativeSymbol,
		NativeName:     cfg.NativeName,
		NativeDecimals: decimals,
		BlocksPerDay:   cfg.BlocksPerDay,
		Stablecoins:    toSet(cfg.Stablecoins),
		Whitelist:      toSet(cfg.Whitelist),
	}, nil
}

// IsStablecoin reports whether address is in the network's stablecoin set.
func (n Network) IsStablecoin(address string) bool {
	_, ok := n.Stablecoins[normalize(address)]
	return ok
}

// IsWhitelisted reports whether address is on the protocol whitelist.
func (n Network) IsWhitelisted(address string) bool {
	_, ok := n.Whitelist[normalize(address)]
	return ok
}

// IsNative reports whether address is the native-asset sentinel.
func (n Network) IsNative(address string) bool {
	return normalize(address) == n.NativeAddress
}

// IsWrappedNative reports whether address is the wrapped native asset.
func (n Network) IsWrappedNative(address string) bool {
	return n.WrappedNative != "" && normalize(address) == n.WrappedNative
}

func normalize(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

func toSet(items []string) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, item := range items {
		item = normalize(item)
		if item == "" {
			continue
		}
		out[item] = struct{}{}
	}
	return out
}
