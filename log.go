package robots

import (
	"fmt"
	"io"

	"github.com/btcsuite/btclog/v2"
	"github.com/lightninglabs/robots/actor"
	"github.com/lightninglabs/robots/build"
	"github.com/lightninglabs/robots/pool"
)

// SetupLoggers initializes all package-global logger variables of the
// runtime with loggers generated by root.
func SetupLoggers(root *build.SubLoggerManager) {
	AddSubLogger(root, actor.Subsystem, actor.UseLogger)
	AddSubLogger(root, pool.Subsystem, pool.UseLogger)
}

// AddSubLogger is a helper method to conveniently create and register the
// logger of one or more sub systems.
func AddSubLogger(root *build.SubLoggerManager, subsystem string,
	useLoggers ...func(btclog.Logger)) {

	// Create and register just a single logger to prevent them from
	// overwriting each other internally.
	logger := root.GenSubLogger(subsystem)
	for _, useLogger := range useLoggers {
		useLogger(logger)
	}
}

// NewLogManager creates the console handler described by cfg, wires every
// runtime package to it and applies the configured debug levels.
func NewLogManager(cfg *actor.Config,
	w io.Writer) (*build.SubLoggerManager, error) {

	console := cfg.Console
	if console == nil {
		console = build.DefaultLoggerConfig()
	}
	if err := console.Validate(); err != nil {
		return nil, err
	}

	root := build.NewSubLoggerManager(build.NewConsoleHandler(console, w))
	SetupLoggers(root)

	if err := build.ParseAndSetDebugLevels(cfg.DebugLevel, root); err != nil {
		return nil, fmt.Errorf("unable to set debug levels: %w", err)
	}

	return root, nil
}
