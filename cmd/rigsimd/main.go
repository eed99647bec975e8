// Command rigsimd serves the test-bench HTTP API from a local SQLite store.
// It exists so the rigview dashboard can be developed and demoed without
// bench infrastructure.
package main

import (
	"log/slog"
	"os"

	"github.com/lmittmann/tint"

	"github.com/rigbench/rigview/internal/sim"
)

func main() {
	log := slog.New(tint.NewHandler(os.Stdout, nil))
	slog.SetDefault(log)

	cfg := sim.Load()

	store, err := sim.Open(cfg.DBPath)
	if err != nil {
		log.Error("open store", "err", err)
		os.Exit(1)
	}
	defer store.Close()

	srv := sim.NewServer(store, cfg, log)
	log.Info("rigsimd listening", "port", cfg.Port, "db", cfg.DBPath, "replay_rate", cfg.ReplayRate)
	if err := srv.Routes().Run(":" + cfg.Port); err != nil {
		log.Error("server exited", "err", err)
		os.Exit(1)
	}
}
