package config

import (
	"fmt"

	"github.com/spf13/pflag"

	"poolScope/internal/network"
)

// SweepConfig holds configuration for the auto-update sweep.
type SweepConfig struct {
	RPCURL   string
	PGDSN    string
	Schedule string
	LogLevel string
	Engine   EngineConfig
	Networks *network.Registry
}

// LoadSweep merges config file, environment variables, and flags into SweepConfig.
func LoadSweep(cfgFile string, flags *pflag.FlagSet) (SweepConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return SweepConfig{}, err
	}
	engine, err := loadEngine(v)
	if err != nil {
		return SweepConfig{}, err
	}
	networks, err := loadNetworks(v)
	if err != nil {
		return SweepConfig{}, err
	}

	cfg := SweepConfig{
		RPCURL:   v.GetString("rpc"),
		PGDSN:    v.GetString("pg-dsn"),
		Schedule: v.GetString("schedule"),
		LogLevel: v.GetString("log-level"),
		Engine:   engine,
		Networks: networks,
	}
	if cfg.RPCURL == "" {
		return SweepConfig{}, fmt.Errorf("rpc is required")
	}
	if cfg.PGDSN == "" {
		return SweepConfig{}, fmt.Errorf("pg-dsn is required")
	}
	return cfg, nil
}
