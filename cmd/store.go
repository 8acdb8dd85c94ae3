package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/assessor-cli/internal/activity"
	"github.com/sells-group/assessor-cli/internal/config"
	"github.com/sells-group/assessor-cli/internal/lineage"
	"github.com/sells-group/assessor-cli/internal/records"
	"github.com/sells-group/assessor-cli/internal/store"
)

// env bundles the wired core for a command invocation.
type env struct {
	Store   store.Store
	Ledger  *lineage.Ledger
	Updater *records.Updater
}

func (e *env) Close() {
	_ = e.Store.Close()
}

// initEnv opens the configured store, runs migrations, and wires the
// lineage ledger, mutation tracker, and updater.
func initEnv(ctx context.Context) (*env, error) {
	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}

	ledger := lineage.NewLedger(st)
	tracker := lineage.NewTracker(ledger)
	updater := records.NewUpdater(st, tracker, activity.ZapRecorder{})

	return &env{Store: st, Ledger: ledger, Updater: updater}, nil
}

func openStore(ctx context.Context, sc config.StoreConfig) (store.Store, error) {
	switch sc.Driver {
	case "memory":
		return store.NewMemory(), nil
	case "sqlite", "":
		return store.NewSQLite(sc.SQLitePath)
	case "postgres":
		poolCfg := &store.PoolConfig{MaxConns: sc.Pool.MaxConns, MinConns: sc.Pool.MinConns}
		return store.NewPostgres(ctx, sc.DatabaseURL, poolCfg)
	default:
		return nil, eris.Errorf("unknown store driver %q", sc.Driver)
	}
}
