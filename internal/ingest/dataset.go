package ingest

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/patent-cli/internal/model"
	"github.com/sells-group/patent-cli/internal/store"
)

// Sources names the CSV files to load. An empty path skips that table.
type Sources struct {
	Firms      string
	Patents    string
	Applicants string
}

// FirmRow is one row of the firm table.
type FirmRow struct {
	FirmID string
	Name   string
}

// Dataset is the parsed content of all three tables.
type Dataset struct {
	Firms      []FirmRow
	Patents    []model.Patent
	Applicants []model.Patent
}

// Load parses the configured tables concurrently. A missing firm table is
// tolerated because patent loading creates placeholder firms, and a missing
// applicant table just means nothing is queued. The patent table must exist.
func Load(ctx context.Context, src Sources) (*Dataset, error) {
	ds := &Dataset{}
	g, gCtx := errgroup.WithContext(ctx)

	if src.Firms != "" {
		g.Go(func() error {
			if missing(src.Firms) {
				zap.L().Warn("ingest: firm table not found, firms will be created from patents",
					zap.String("path", src.Firms))
				return nil
			}
			rows, err := parseFile(gCtx, src.Firms, parseFirm)
			ds.Firms = rows
			return err
		})
	}
	if src.Patents != "" {
		g.Go(func() error {
			rows, err := parseFile(gCtx, src.Patents, parsePatent)
			for _, r := range rows {
				ds.Patents = append(ds.Patents, r...)
			}
			return err
		})
	}
	if src.Applicants != "" {
		g.Go(func() error {
			if missing(src.Applicants) {
				zap.L().Warn("ingest: applicant table not found, no applications queued",
					zap.String("path", src.Applicants))
				return nil
			}
			rows, err := parseFile(gCtx, src.Applicants, parseApplicant)
			ds.Applicants = rows
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ds, nil
}

// ApplyStats counts what Apply wrote.
type ApplyStats struct {
	Firms   int
	Patents int
}

// Apply writes firms, then patents, into the store. Duplicate firm rows keep
// the first name seen.
func Apply(ctx context.Context, st store.Store, ds *Dataset) (ApplyStats, error) {
	var stats ApplyStats
	for _, f := range ds.Firms {
		err := st.AddFirm(ctx, f.FirmID, f.Name)
		if errors.Is(err, store.ErrFirmExists) {
			zap.L().Warn("ingest: duplicate firm row", zap.String("firm_id", f.FirmID))
			continue
		}
		if err != nil {
			return stats, eris.Wrapf(err, "ingest: add firm %s", f.FirmID)
		}
		stats.Firms++
	}
	for _, p := range ds.Patents {
		if err := st.AddPatent(ctx, p.FirmID, p); err != nil {
			return stats, eris.Wrapf(err, "ingest: add patent %s", p.PatentID)
		}
		stats.Patents++
	}
	return stats, nil
}

func missing(path string) bool {
	_, err := os.Stat(path)
	return errors.Is(err, fs.ErrNotExist)
}

func parseFile[T any](ctx context.Context, path string, parse func(Record) (T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	var out []T
	rowCh, errCh := StreamCSV(ctx, f)
	err = collect(rowCh, errCh, func(rec Record) error {
		v, err := parse(rec)
		if err != nil {
			return eris.Wrapf(err, "ingest: %s line %d", path, rec.Line)
		}
		out = append(out, v)
		return nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: parse %s", path)
	}
	return out, nil
}

// parseFirm reads firmID,firmName.
func parseFirm(rec Record) (FirmRow, error) {
	id := rec.Field(0)
	if id == "" {
		return FirmRow{}, eris.New("missing firm id")
	}
	return FirmRow{FirmID: id, Name: rec.Field(1)}, nil
}

// parsePatent reads patentID,title,firmIDs[,grantDate,applDate,country] and
// yields one record per listed firm.
func parsePatent(rec Record) ([]model.Patent, error) {
	id := rec.Field(0)
	if id == "" {
		return nil, eris.New("missing patent id")
	}
	firmIDs := splitFirmIDs(rec.Field(2))
	if len(firmIDs) == 0 {
		return nil, eris.Errorf("patent %s has no firm", id)
	}
	out := make([]model.Patent, 0, len(firmIDs))
	for _, firmID := range firmIDs {
		out = append(out, model.Patent{
			PatentID:        id,
			Title:           rec.Field(1),
			FirmID:          firmID,
			GrantDate:       rec.Field(3),
			ApplicationDate: rec.Field(4),
			Country:         rec.Field(5),
		})
	}
	return out, nil
}

// parseApplicant reads patentID,applDate,title,firmID,result where result "y"
// marks an accepted verdict.
func parseApplicant(rec Record) (model.Patent, error) {
	id := rec.Field(0)
	if id == "" {
		return model.Patent{}, eris.New("missing patent id")
	}
	firmID := rec.Field(3)
	if firmID == "" {
		return model.Patent{}, eris.Errorf("application %s has no firm", id)
	}
	p := model.Patent{
		PatentID:        id,
		ApplicationDate: rec.Field(1),
		Title:           rec.Field(2),
		FirmID:          firmID,
	}
	return p.WithStatus(strings.EqualFold(rec.Field(4), "y"), 0), nil
}
