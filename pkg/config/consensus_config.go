package config

import "time"

// Consensus stores configuration for the dBFT consensus service.
type Consensus struct {
	Enabled         bool          `yaml:"Enabled"`
	UnlockWallet    Wallet        `yaml:"UnlockWallet"`
	WatchdogTimeout time.Duration `yaml:"WatchdogTimeout"`
}
