package observability

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger returns a zerolog Logger writing to w.
// APP_ENV=dev (or development) uses a human-friendly console writer.
// The stdio server passes stderr here because stdout carries the RPC channel.
func NewLogger(env string, w io.Writer) zerolog.Logger {
	l := zerolog.New(w).With().Timestamp().Logger()
	if env == "dev" || env == "development" {
		l = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
			With().Timestamp().Logger()
	}
	return l
}
