// Package ingest reads the firm, patent, and applicant CSV tables that seed
// the record store and the applicant workflow.
package ingest

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// Record is one parsed CSV row with its 1-based line number.
type Record struct {
	Line   int
	Fields []string
}

// Field returns the i-th field, or "" when the row is short.
func (r Record) Field(i int) string {
	if i < len(r.Fields) {
		return r.Fields[i]
	}
	return ""
}

// StreamCSV reads comma-separated rows from r and sends them to the returned
// channel, skipping the header row and trimming whitespace from every field.
// Both channels are closed when the reader is exhausted or ctx is cancelled.
func StreamCSV(ctx context.Context, r io.Reader) (<-chan Record, <-chan error) {
	rowCh := make(chan Record, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		reader := csv.NewReader(r)
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1
		reader.TrimLeadingSpace = true

		header := true
		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}

			fields, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "csv: read row")
				return
			}
			if header {
				header = false
				continue
			}

			line, _ := reader.FieldPos(0)
			for i, f := range fields {
				fields[i] = strings.TrimSpace(f)
			}
			if blank(fields) {
				continue
			}

			select {
			case rowCh <- Record{Line: line, Fields: fields}:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}
		}
	}()

	return rowCh, errCh
}

// collect drains a StreamCSV pair, applying fn to every record.
func collect(rowCh <-chan Record, errCh <-chan error, fn func(Record) error) error {
	for rec := range rowCh {
		if err := fn(rec); err != nil {
			// Drain so the reader goroutine can exit.
			for range rowCh {
			}
			return err
		}
	}
	return <-errCh
}

func blank(fields []string) bool {
	for _, f := range fields {
		if f != "" {
			return false
		}
	}
	return true
}

// splitFirmIDs splits a possibly comma-separated firm ID cell.
func splitFirmIDs(cell string) []string {
	var out []string
	for _, id := range strings.Split(cell, ",") {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}
