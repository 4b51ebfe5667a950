// Package analytics builds the firm×patent incidence matrix from a store
// snapshot and answers shared-patent questions from the cached product
// R = M × Mᵗ.
package analytics

import (
	"context"
	"slices"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/patent-cli/internal/sparse"
)

var (
	// ErrNotBuilt is returned by lookups made before the first Rebuild.
	ErrNotBuilt = eris.New("analytics: matrix not built")
	// ErrUnknownFirm is returned for a firm that was not in the last snapshot.
	ErrUnknownFirm = eris.New("analytics: firm not in matrix")
)

// OwnershipSource provides the firm to patent-ID relation.
type OwnershipSource interface {
	SnapshotOwnership(ctx context.Context) (map[string][]string, error)
}

// Facade caches the index assignment and the shared-patent matrix of the
// last Rebuild. Results go stale when the store changes until Rebuild is
// called again. A Facade is not safe for concurrent use.
type Facade struct {
	src OwnershipSource

	firmIndex   map[string]int
	patentIndex map[string]int
	report      *Report
}

// New returns a Facade that has not been built yet.
func New(src OwnershipSource) *Facade {
	return &Facade{src: src}
}

// Rebuild snapshots the store and recomputes M, Mᵗ and R. Firms and patents
// are indexed in lexicographic order; firms with no patents still get a row.
func (f *Facade) Rebuild(ctx context.Context) (*Report, error) {
	snap, err := f.src.SnapshotOwnership(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "analytics: snapshot ownership")
	}

	firms := make([]string, 0, len(snap))
	seen := make(map[string]struct{})
	var patents []string
	for firmID, ids := range snap {
		firms = append(firms, firmID)
		for _, id := range ids {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				patents = append(patents, id)
			}
		}
	}
	slices.Sort(firms)
	slices.Sort(patents)

	firmIndex := indexOf(firms)
	patentIndex := indexOf(patents)

	incidence := make([][]int, len(firms))
	for i, firmID := range firms {
		incidence[i] = make([]int, len(patents))
		for _, id := range snap[firmID] {
			incidence[i][patentIndex[id]] = 1
		}
	}

	m, err := sparse.FromDense(incidence)
	if err != nil {
		return nil, eris.Wrap(err, "analytics: build incidence matrix")
	}
	mt := m.Transpose()
	r, err := m.Multiply(mt)
	if err != nil {
		return nil, eris.Wrap(err, "analytics: multiply")
	}

	report := &Report{
		Firms:             firms,
		Patents:           patents,
		Incidence:         m.Dense(),
		Shared:            r.Dense(),
		IncidenceTriplets: m.Triplets(),
		TransposeTriplets: mt.Triplets(),
	}

	f.firmIndex = firmIndex
	f.patentIndex = patentIndex
	f.report = report

	zap.L().Debug("analytics: matrix rebuilt",
		zap.Int("firms", len(firms)),
		zap.Int("patents", len(patents)),
		zap.Int("nnz", m.NNZ()),
	)
	return report, nil
}

// Report returns the result of the last Rebuild.
func (f *Facade) Report() (*Report, error) {
	if f.report == nil {
		return nil, ErrNotBuilt
	}
	return f.report, nil
}

// SharedPatentCount returns R[a][b], the number of patents both firms held
// at the last Rebuild. SharedPatentCount(a, a) is a's patent count.
func (f *Facade) SharedPatentCount(firmA, firmB string) (int, error) {
	if f.report == nil {
		return 0, ErrNotBuilt
	}
	i, ok := f.firmIndex[firmA]
	if !ok {
		return 0, eris.Wrapf(ErrUnknownFirm, "firm %s", firmA)
	}
	j, ok := f.firmIndex[firmB]
	if !ok {
		return 0, eris.Wrapf(ErrUnknownFirm, "firm %s", firmB)
	}
	return f.report.Shared[i][j], nil
}

// PatentColumn returns the column index assigned to patentID.
func (f *Facade) PatentColumn(patentID string) (int, bool) {
	col, ok := f.patentIndex[patentID]
	return col, ok
}

// FirmRow returns the row index assigned to firmID.
func (f *Facade) FirmRow(firmID string) (int, bool) {
	row, ok := f.firmIndex[firmID]
	return row, ok
}

func indexOf(ids []string) map[string]int {
	out := make(map[string]int, len(ids))
	for i, id := range ids {
		out[id] = i
	}
	return out
}
