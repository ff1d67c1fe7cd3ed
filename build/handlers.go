package build

import (
	"io"

	"github.com/btcsuite/btclog/v2"
)

// NewConsoleHandler returns the log handler an embedding application uses to
// write runtime logs to w. A disabled config yields a handler that writes
// nothing.
func NewConsoleHandler(cfg *LoggerConfig, w io.Writer) btclog.Handler {
	if cfg.Disable {
		w = io.Discard
	}

	return btclog.NewDefaultHandler(
		&LogWriter{Out: w}, cfg.HandlerOptions()...,
	)
}
