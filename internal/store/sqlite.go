package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/sells-group/patent-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. Each store opens its
// own named in-memory database, so nothing outlives the process.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a private in-memory SQLite database.
func NewSQLite() (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:patents-%s?mode=memory&cache=shared", uuid.NewString())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// The in-memory database lives as long as its last connection.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	for _, pragma := range []string{
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS firms (
	firm_id TEXT PRIMARY KEY,
	name    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS patents (
	firm_id          TEXT NOT NULL REFERENCES firms(firm_id),
	patent_id        TEXT NOT NULL,
	title            TEXT NOT NULL DEFAULT '',
	country          TEXT NOT NULL DEFAULT '',
	application_date TEXT NOT NULL DEFAULT '',
	grant_date       TEXT NOT NULL DEFAULT '',
	decided          INTEGER NOT NULL DEFAULT 0,
	attempts         INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (firm_id, patent_id)
);

CREATE INDEX IF NOT EXISTS idx_patents_patent_id ON patents(patent_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) AddFirm(ctx context.Context, firmID, name string) error {
	ok, err := s.firmExists(ctx, s.db, firmID)
	if err != nil {
		return err
	}
	if ok {
		return eris.Wrapf(ErrFirmExists, "sqlite: add firm %s", firmID)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO firms (firm_id, name) VALUES (?, ?)`, firmID, name)
	return eris.Wrapf(err, "sqlite: insert firm %s", firmID)
}

func (s *SQLiteStore) RemoveFirm(ctx context.Context, firmID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin remove firm")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM patents WHERE firm_id = ?`, firmID); err != nil {
		return eris.Wrapf(err, "sqlite: delete patents of firm %s", firmID)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM firms WHERE firm_id = ?`, firmID)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete firm %s", firmID)
	}
	if err := checkRowsAffected(res, ErrFirmNotFound, firmID); err != nil {
		return err
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit remove firm")
}

func (s *SQLiteStore) GetFirm(ctx context.Context, firmID string) (*model.Firm, error) {
	f := &model.Firm{FirmID: firmID}
	err := s.db.QueryRowContext(ctx, `SELECT name FROM firms WHERE firm_id = ?`, firmID).Scan(&f.Name)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrFirmNotFound, "sqlite: get firm %s", firmID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get firm %s", firmID)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+patentColumns+` FROM patents WHERE firm_id = ? ORDER BY patent_id`, firmID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list patents of firm %s", firmID)
	}
	f.Patents, err = scanPatents(rows)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (s *SQLiteStore) Firms(ctx context.Context) ([]model.FirmSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.firm_id, f.name, COUNT(p.patent_id)
		FROM firms f LEFT JOIN patents p ON p.firm_id = f.firm_id
		GROUP BY f.firm_id, f.name
		ORDER BY f.firm_id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list firms")
	}
	defer rows.Close()

	out := []model.FirmSummary{}
	for rows.Next() {
		var fs model.FirmSummary
		if err := rows.Scan(&fs.FirmID, &fs.Name, &fs.PatentCount); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan firm")
		}
		out = append(out, fs)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list firms iterate")
}

func (s *SQLiteStore) AddPatent(ctx context.Context, firmID string, p model.Patent) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin add patent")
	}
	defer tx.Rollback() //nolint:errcheck

	ok, err := s.firmExists(ctx, tx, firmID)
	if err != nil {
		return err
	}
	if !ok {
		zap.L().Warn("sqlite: firm not found, creating placeholder",
			zap.String("firm_id", firmID),
			zap.String("patent_id", p.PatentID),
		)
		if _, err := tx.ExecContext(ctx, `INSERT INTO firms (firm_id, name) VALUES (?, ?)`,
			firmID, model.PlaceholderFirmName); err != nil {
			return eris.Wrapf(err, "sqlite: insert placeholder firm %s", firmID)
		}
	}
	if err := upsertPatent(ctx, tx, firmID, p); err != nil {
		return err
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit add patent")
}

func (s *SQLiteStore) RemovePatent(ctx context.Context, firmID, patentID string) error {
	ok, err := s.firmExists(ctx, s.db, firmID)
	if err != nil {
		return err
	}
	if !ok {
		return eris.Wrapf(ErrFirmNotFound, "sqlite: remove patent from firm %s", firmID)
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM patents WHERE firm_id = ? AND patent_id = ?`, firmID, patentID)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete patent %s", patentID)
	}
	return checkRowsAffected(res, ErrPatentNotFound, patentID)
}

func (s *SQLiteStore) TransferPatent(ctx context.Context, fromFirmID, toFirmID, patentID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin transfer")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, id := range []string{fromFirmID, toFirmID} {
		ok, err := s.firmExists(ctx, tx, id)
		if err != nil {
			return err
		}
		if !ok {
			return eris.Wrapf(ErrFirmNotFound, "sqlite: transfer firm %s", id)
		}
	}

	p, err := lookupPatent(ctx, tx, fromFirmID, patentID)
	if err != nil {
		return err
	}
	if fromFirmID == toFirmID {
		return nil
	}
	if err := upsertPatent(ctx, tx, toFirmID, p); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM patents WHERE firm_id = ? AND patent_id = ?`,
		fromFirmID, patentID); err != nil {
		return eris.Wrapf(err, "sqlite: delete transferred patent %s", patentID)
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit transfer")
}

func (s *SQLiteStore) LookupPatent(ctx context.Context, firmID, patentID string) (model.Patent, error) {
	ok, err := s.firmExists(ctx, s.db, firmID)
	if err != nil {
		return model.Patent{}, err
	}
	if !ok {
		return model.Patent{}, eris.Wrapf(ErrFirmNotFound, "sqlite: lookup in firm %s", firmID)
	}
	return lookupPatent(ctx, s.db, firmID, patentID)
}

func (s *SQLiteStore) SearchPatents(ctx context.Context, keyword string) ([]model.Patent, error) {
	m := newTitleMatcher(keyword)
	if m.empty() {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+patentColumns+` FROM patents ORDER BY firm_id, patent_id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: search patents")
	}
	all, err := scanPatents(rows)
	if err != nil {
		return nil, err
	}
	var out []model.Patent
	for _, p := range all {
		if m.match(p.Title) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *SQLiteStore) CommitGrantedPatent(ctx context.Context, firmID string, p model.Patent) error {
	ok, err := s.firmExists(ctx, s.db, firmID)
	if err != nil {
		return err
	}
	if !ok {
		return eris.Wrapf(ErrFirmNotFound, "sqlite: commit patent %s to firm %s", p.PatentID, firmID)
	}
	return upsertPatent(ctx, s.db, firmID, p)
}

func (s *SQLiteStore) SnapshotOwnership(ctx context.Context) (map[string][]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.firm_id, p.patent_id
		FROM firms f LEFT JOIN patents p ON p.firm_id = f.firm_id
		ORDER BY f.firm_id, p.patent_id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: snapshot ownership")
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var firmID string
		var patentID sql.NullString
		if err := rows.Scan(&firmID, &patentID); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan ownership")
		}
		if _, ok := out[firmID]; !ok {
			out[firmID] = []string{}
		}
		if patentID.Valid {
			out[firmID] = append(out[firmID], patentID.String)
		}
	}
	return out, eris.Wrap(rows.Err(), "sqlite: snapshot ownership iterate")
}

// helpers

const patentColumns = `firm_id, patent_id, title, country, application_date, grant_date, decided, attempts`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLiteStore) firmExists(ctx context.Context, q execer, firmID string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM firms WHERE firm_id = ?`, firmID).Scan(&n)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: check firm %s", firmID)
	}
	return n > 0, nil
}

func upsertPatent(ctx context.Context, q execer, firmID string, p model.Patent) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO patents (`+patentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(firm_id, patent_id) DO UPDATE SET
			title = excluded.title,
			country = excluded.country,
			application_date = excluded.application_date,
			grant_date = excluded.grant_date,
			decided = excluded.decided,
			attempts = excluded.attempts`,
		firmID, p.PatentID, p.Title, p.Country, p.ApplicationDate, p.GrantDate,
		p.Status.Decided, p.Status.Attempts,
	)
	return eris.Wrapf(err, "sqlite: upsert patent %s for firm %s", p.PatentID, firmID)
}

func lookupPatent(ctx context.Context, q execer, firmID, patentID string) (model.Patent, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+patentColumns+` FROM patents WHERE firm_id = ? AND patent_id = ?`, firmID, patentID)
	p, err := scanPatent(row)
	if err == sql.ErrNoRows {
		return model.Patent{}, eris.Wrapf(ErrPatentNotFound, "sqlite: lookup patent %s in firm %s", patentID, firmID)
	}
	if err != nil {
		return model.Patent{}, eris.Wrapf(err, "sqlite: lookup patent %s", patentID)
	}
	return p, nil
}

func checkRowsAffected(res sql.Result, notFound error, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(notFound, "sqlite: %s", id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanPatent(row scannable) (model.Patent, error) {
	var p model.Patent
	err := row.Scan(&p.FirmID, &p.PatentID, &p.Title, &p.Country, &p.ApplicationDate, &p.GrantDate,
		&p.Status.Decided, &p.Status.Attempts)
	return p, err
}

func scanPatents(rows *sql.Rows) ([]model.Patent, error) {
	defer rows.Close()
	out := []model.Patent{}
	for rows.Next() {
		p, err := scanPatent(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan patent")
		}
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: scan patents iterate")
}
