// main.go
//
// HTTP/WebSocket server entry point.
// Loads config from env (.env supported), picks the session store, and runs
// the server until SIGINT/SIGTERM.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/guess/internal/config"
	"github.com/robalobadob/guess/internal/httpserver"
	"github.com/robalobadob/guess/internal/rng"
	"github.com/robalobadob/guess/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("bad config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	st, err := openStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("failed to open session store")
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := httpserver.New(st, cfg, rng.Factory(cfg.Seed))
	log.Info().Str("port", cfg.Port).Str("store", cfg.StoreDriver).Msg("starting guess server")
	if err := srv.Run(ctx, ":"+cfg.Port); err != nil {
		log.Error().Err(err).Msg("server exited")
		return
	}
	log.Info().Msg("server stopped")
}

func openStore(cfg config.Config) (store.Store, error) {
	if cfg.StoreDriver == config.StoreSQLite {
		return store.OpenSQLite(cfg.StoreDSN)
	}
	return store.NewMemoryStore(), nil
}
