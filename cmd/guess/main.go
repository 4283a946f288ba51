// cmd/guess/main.go
//
// Terminal front end. Shares config with the server; logs go to LOG_FILE
// (or nowhere) since the terminal belongs to the UI.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/guess/internal/config"
	"github.com/robalobadob/guess/internal/rng"
	"github.com/robalobadob/guess/internal/tui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var out io.Writer = io.Discard
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintln(os.Stderr, "open log file:", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	err = tui.Run(tui.Options{
		Source:          rng.Factory(cfg.Seed)(),
		RevealCorrect:   cfg.RevealCorrect,
		RevealExhausted: cfg.RevealExhausted,
	})
	if err != nil {
		log.Error().Err(err).Msg("tui exited")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
