package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/patent-cli/internal/ingest"
	"github.com/sells-group/patent-cli/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, cfg.Store.Driver)
}

// loadRegistry opens the configured store and seeds it from the firm and
// patent tables. The applicant table is parsed only when applicants is
// non-empty and returned in the dataset.
func loadRegistry(ctx context.Context, applicants string) (store.Store, *ingest.Dataset, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, nil, err
	}

	ds, err := ingest.Load(ctx, ingest.Sources{
		Firms:      cfg.Data.FirmsCSV,
		Patents:    cfg.Data.PatentsCSV,
		Applicants: applicants,
	})
	if err != nil {
		st.Close() //nolint:errcheck
		return nil, nil, eris.Wrap(err, "load data")
	}

	stats, err := ingest.Apply(ctx, st, ds)
	if err != nil {
		st.Close() //nolint:errcheck
		return nil, nil, eris.Wrap(err, "seed store")
	}
	zap.L().Debug("store seeded",
		zap.String("driver", cfg.Store.Driver),
		zap.Int("firms", stats.Firms),
		zap.Int("patents", stats.Patents),
		zap.Int("applicants", len(ds.Applicants)),
	)

	return st, ds, nil
}
