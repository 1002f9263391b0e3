package config

import (
	"fmt"

	"github.com/spf13/pflag"

	"poolScope/internal/network"
)

// ProcessConfig holds configuration for the event processor.
type ProcessConfig struct {
	RPCURL        string
	Input         string
	PGDSN         string
	StateFile     string
	ReprocessFrom uint64
	LogLevel      string
	Engine        EngineConfig
	Networks      *network.Registry
}

// LoadProcess merges config file, environment variables, and flags into ProcessConfig.
func LoadProcess(cfgFile string, flags *pflag.FlagSet) (ProcessConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return ProcessConfig{}, err
	}
	engine, err := loadEngine(v)
	if err != nil {
		return ProcessConfig{}, err
	}
	networks, err := loadNetworks(v)
	if err != nil {
		return ProcessConfig{}, err
	}

	cfg := ProcessConfig{
		RPCURL:        v.GetString("rpc"),
		Input:         v.GetString("in"),
		PGDSN:         v.GetString("pg-dsn"),
		StateFile:     v.GetString("state-file"),
		ReprocessFrom: v.GetUint64("reprocess-from"),
		LogLevel:      v.GetString("log-level"),
		Engine:        engine,
		Networks:      networks,
	}
	if cfg.Input == "" {
		return ProcessConfig{}, fmt.Errorf("in is required")
	}
	return cfg, nil
}
