package build

import (
	"fmt"

	"github.com/btcsuite/btclog/v2"
)

const (
	callSiteOff   = "off"
	callSiteShort = "short"
	callSiteLong  = "long"
)

// LoggerConfig holds options for a particular logger.
//
//nolint:lll
type LoggerConfig struct {
	Disable      bool   `long:"disable" description:"Disable this logger." yaml:"disable"`
	NoTimestamps bool   `long:"no-timestamps" description:"Omit timestamps from log lines." yaml:"noTimestamps"`
	CallSite     string `long:"call-site" description:"Include the call-site of each log line." choice:"off" choice:"short" choice:"long" yaml:"callSite"`
}

// DefaultLoggerConfig returns the default console logger options.
func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{
		CallSite: callSiteOff,
	}
}

// Validate checks that the call-site option is one we understand.
func (cfg *LoggerConfig) Validate() error {
	switch cfg.CallSite {
	case "", callSiteOff, callSiteShort, callSiteLong:
		return nil
	}

	return fmt.Errorf("invalid call-site option: %v", cfg.CallSite)
}

// HandlerOptions returns the set of btclog.HandlerOptions that the state of the
// config struct translates to.
func (cfg *LoggerConfig) HandlerOptions() []btclog.HandlerOption {
	var opts []btclog.HandlerOption

	if cfg.NoTimestamps {
		opts = append(opts, btclog.WithNoTimestamp())
	}

	switch cfg.CallSite {
	case callSiteShort:
		opts = append(opts, btclog.WithCallerFlags(btclog.Lshortfile))
	case callSiteLong:
		opts = append(opts, btclog.WithCallerFlags(btclog.Llongfile))
	}

	return opts
}
