// Package logx configures the global zerolog logger.
package logx

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Debug        bool   `split_words:"true" default:"false"`
	PrettyFormat bool   `split_words:"true" default:"false"`
	Service      string `default:"travel-assistant"`
	Caller       bool   `default:"true"`
}

// New builds a logger writing to w.
func New(w io.Writer, conf Config) zerolog.Logger {
	if conf.PrettyFormat {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	level := zerolog.InfoLevel
	if conf.Debug {
		level = zerolog.DebugLevel
	}

	ctx := zerolog.New(w).Level(level).With().Timestamp()
	if conf.Service != "" {
		ctx = ctx.Str("service", conf.Service)
	}
	if conf.Caller {
		ctx = ctx.Caller()
	}
	return ctx.Logger()
}

// Init replaces the global logger. Pretty output goes to stderr so it does
// not interleave with the CLI conversation on stdout.
func Init(conf Config) {
	var out io.Writer = os.Stdout
	if conf.PrettyFormat {
		out = os.Stderr
	}
	log.Logger = New(out, conf)
}
