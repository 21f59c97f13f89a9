package main

import (
	"log/slog"

	"github.com/flemzord/loadout/internal/attention"
	"github.com/flemzord/loadout/internal/compiler"
	"github.com/flemzord/loadout/internal/config"
	"github.com/flemzord/loadout/internal/delta"
	"github.com/flemzord/loadout/internal/engine"
	"github.com/flemzord/loadout/internal/integrity"
	"github.com/flemzord/loadout/internal/state"
	"github.com/flemzord/loadout/internal/workspace"
	sqlitestore "github.com/flemzord/loadout/modules/store/sqlite"
)

// buildEngine constructs the engine with the configured storage backend.
// The returned cleanup releases backend resources and is always non-nil.
func buildEngine(cfg *config.Config, ws *workspace.Workspace, logger *slog.Logger) (*engine.Engine, func(), error) {
	if err := ws.EnsureStructure(); err != nil {
		return nil, nil, err
	}

	var (
		weights  state.WeightStore
		hashes   state.HashStore
		baseline state.BaselineStore
		cleanup  = func() {}
	)
	if cfg.Storage.Backend == config.BackendSQLite {
		stores, db, err := sqlitestore.Open(ws.StorePath())
		if err != nil {
			return nil, nil, err
		}
		weights, hashes, baseline = stores.Weights, stores.Hashes, stores.Baseline
		cleanup = func() { _ = db.Close() }
	} else {
		weights = state.NewFileWeightStore(ws.WeightsPath(), logger)
		hashes = state.NewFileHashStore(ws.HashesPath(), logger)
		baseline = state.NewFileBaselineStore(ws.BaselinePath(), logger)
	}

	ledger, err := attention.NewLedger(weights, attention.Config{
		ReinforcementIncrement: cfg.Attention.ReinforcementIncrement,
		DecayFactor:            cfg.Attention.DecayFactor,
		ForgetEpsilon:          cfg.Attention.ForgetEpsilon,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	monitor, err := integrity.NewMonitor(baseline, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	comp := compiler.New(
		compiler.NewCharCostModel(cfg.Cost.CharsPerUnit),
		ledger,
		compiler.Config{
			CharsPerUnit:      cfg.Cost.CharsPerUnit,
			SkeletonThreshold: cfg.Compiler.SkeletonThreshold,
			FooterFloor:       cfg.Compiler.FooterFloor,
			HeaderShare:       cfg.Compiler.HeaderShare,
		},
	)

	eng := engine.New(ledger, comp, delta.NewDetector(hashes), monitor, logger)
	return eng, cleanup, nil
}
