// Package store holds the firm/patent record store: the single source of truth
// for which firm owns which patent. Two backends implement Store, an in-process
// map store and a SQLite store on a private in-memory database.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/patent-cli/internal/model"
)

var (
	// ErrFirmNotFound is returned when a referenced firm does not exist.
	ErrFirmNotFound = eris.New("firm not found")

	// ErrPatentNotFound is returned when a firm does not hold the referenced patent.
	ErrPatentNotFound = eris.New("patent not found")

	// ErrFirmExists is returned by AddFirm for a duplicate firm ID.
	ErrFirmExists = eris.New("firm already exists")
)

// Store defines the record operations used by ingestion, the CLI, the
// applicant workflow, and the analytics layer.
type Store interface {
	// Firms
	AddFirm(ctx context.Context, firmID, name string) error
	RemoveFirm(ctx context.Context, firmID string) error
	GetFirm(ctx context.Context, firmID string) (*model.Firm, error)
	Firms(ctx context.Context) ([]model.FirmSummary, error)

	// Patents
	AddPatent(ctx context.Context, firmID string, p model.Patent) error
	RemovePatent(ctx context.Context, firmID, patentID string) error
	TransferPatent(ctx context.Context, fromFirmID, toFirmID, patentID string) error
	LookupPatent(ctx context.Context, firmID, patentID string) (model.Patent, error)
	SearchPatents(ctx context.Context, keyword string) ([]model.Patent, error)

	// CommitGrantedPatent records an accepted application in the firm's
	// holdings. It returns ErrFirmNotFound rather than creating the firm.
	CommitGrantedPatent(ctx context.Context, firmID string, p model.Patent) error

	// SnapshotOwnership returns a fresh copy of firmID -> sorted patent IDs,
	// including firms that hold no patents.
	SnapshotOwnership(ctx context.Context) (map[string][]string, error)

	// Lifecycle
	Close() error
}

// Open returns a ready-to-use store for the given driver ("memory" or "sqlite").
func Open(ctx context.Context, driver string) (Store, error) {
	switch driver {
	case "", "memory":
		return NewMemory(), nil
	case "sqlite":
		st, err := NewSQLite()
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			_ = st.Close()
			return nil, err
		}
		return st, nil
	default:
		return nil, eris.Errorf("unsupported store driver: %s", driver)
	}
}
