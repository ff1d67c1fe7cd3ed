package actor

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/lightninglabs/robots/build"
	"github.com/lightninglabs/robots/pool"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultMaxRestarts is the default number of failures an actor may
	// have within the restart window before it is stopped.
	DefaultMaxRestarts = 10

	// DefaultRestartWindow is the default period failures are counted in.
	DefaultRestartWindow = time.Minute

	// DefaultFailureHistory is the default number of failure records the
	// system keeps.
	DefaultFailureHistory = 100

	// DefaultShutdownTimeout is the default time Shutdown waits for the
	// actors to stop.
	DefaultShutdownTimeout = 10 * time.Second
)

// Config holds the options of an actor System.
//
//nolint:lll
type Config struct {
	// Workers is the maximum number of goroutines processing actors.
	Workers int `long:"workers" description:"Maximum number of goroutines processing actor messages." yaml:"workers"`

	// WorkerTimeout is how long an idle worker goroutine lingers.
	WorkerTimeout time.Duration `long:"workertimeout" description:"Time an idle worker goroutine waits for new work before exiting." yaml:"workerTimeout"`

	// MaxRestarts is the number of failures within RestartWindow after
	// which an actor is stopped rather than restarted. Zero disables the
	// limit.
	MaxRestarts int `long:"maxrestarts" description:"Number of failures within the restart window after which an actor is stopped; 0 disables the limit." yaml:"maxRestarts"`

	// RestartWindow is the period failures are counted in.
	RestartWindow time.Duration `long:"restartwindow" description:"Period in which actor failures are counted against the restart limit." yaml:"restartWindow"`

	// FailureHistory is the number of failure records kept.
	FailureHistory int `long:"failurehistory" description:"Number of recent actor failures kept for inspection." yaml:"failureHistory"`

	// ShutdownTimeout bounds how long Shutdown waits for actors to stop.
	ShutdownTimeout time.Duration `long:"shutdowntimeout" description:"Maximum time to wait for actors to stop on shutdown." yaml:"shutdownTimeout"`

	// DebugLevel is the log level string, e.g. "info,ACTR=debug".
	DebugLevel string `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <global-level>,<subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems." yaml:"debugLevel"`

	// Console holds the options of the console log handler.
	Console *build.LoggerConfig `group:"console" namespace:"console" yaml:"console"`

	// Clock is the time source for failure records and restart
	// accounting.
	Clock clock.Clock `no-flag:"true" yaml:"-"`

	// Registerer, if set, is used to register the system metrics.
	Registerer prometheus.Registerer `no-flag:"true" yaml:"-"`

	// Scheduler, if set, replaces the default worker pool scheduler.
	Scheduler Scheduler `no-flag:"true" yaml:"-"`
}

// DefaultConfig returns the default system configuration.
func DefaultConfig() *Config {
	return &Config{
		Workers:         pool.DefaultNumWorkers,
		WorkerTimeout:   pool.DefaultWorkerTimeout,
		MaxRestarts:     DefaultMaxRestarts,
		RestartWindow:   DefaultRestartWindow,
		FailureHistory:  DefaultFailureHistory,
		ShutdownTimeout: DefaultShutdownTimeout,
		DebugLevel:      build.LogLevel,
		Console:         build.DefaultLoggerConfig(),
		Clock:           clock.NewDefaultClock(),
	}
}

// Validate checks the configuration for sane values.
func (c *Config) Validate() error {
	switch {
	case c.Workers <= 0:
		return fmt.Errorf("workers must be positive, got %d", c.Workers)

	case c.WorkerTimeout <= 0:
		return fmt.Errorf("worker timeout must be positive, got %v",
			c.WorkerTimeout)

	case c.MaxRestarts < 0:
		return fmt.Errorf("max restarts must not be negative, got %d",
			c.MaxRestarts)

	case c.MaxRestarts > 0 && c.RestartWindow <= 0:
		return errors.New("restart window must be positive when a " +
			"restart limit is set")

	case c.FailureHistory <= 0:
		return fmt.Errorf("failure history must be positive, got %d",
			c.FailureHistory)

	case c.ShutdownTimeout <= 0:
		return fmt.Errorf("shutdown timeout must be positive, got %v",
			c.ShutdownTimeout)

	case c.Clock == nil:
		return errors.New("clock must be set")
	}

	if c.Console != nil {
		if err := c.Console.Validate(); err != nil {
			return fmt.Errorf("console logger: %w", err)
		}
	}

	return nil
}

// ParseConfig parses command line style args on top of the default
// configuration and validates the result. Unknown flags are an error.
func ParseConfig(args []string) (*Config, error) {
	return LoadConfig("", args)
}

// LoadConfig builds a configuration in three layers: the defaults, then the
// YAML file at path if path is not empty, then command line style args.
// The result is validated.
func LoadConfig(path string, args []string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("unable to read config file: %w",
				err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("unable to decode config file "+
				"%v: %w", path, err)
		}
	}

	parser := flags.NewParser(cfg, flags.Default&^flags.PrintErrors)
	if _, err := parser.ParseArgs(args); err != nil {
		return nil, fmt.Errorf("unable to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
