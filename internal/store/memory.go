package store

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/patent-cli/internal/model"
)

type memFirm struct {
	name    string
	patents map[string]model.Patent
}

// MemoryStore implements Store with plain maps guarded by a mutex.
type MemoryStore struct {
	mu    sync.RWMutex
	firms map[string]*memFirm
}

// NewMemory returns an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{firms: make(map[string]*memFirm)}
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) AddFirm(_ context.Context, firmID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.firms[firmID]; ok {
		return eris.Wrapf(ErrFirmExists, "memory: add firm %s", firmID)
	}
	s.firms[firmID] = &memFirm{name: name, patents: make(map[string]model.Patent)}
	return nil
}

func (s *MemoryStore) RemoveFirm(_ context.Context, firmID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.firms[firmID]; !ok {
		return eris.Wrapf(ErrFirmNotFound, "memory: remove firm %s", firmID)
	}
	delete(s.firms, firmID)
	return nil
}

func (s *MemoryStore) GetFirm(_ context.Context, firmID string) (*model.Firm, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.firms[firmID]
	if !ok {
		return nil, eris.Wrapf(ErrFirmNotFound, "memory: get firm %s", firmID)
	}
	return &model.Firm{FirmID: firmID, Name: f.name, Patents: sortedPatents(f.patents)}, nil
}

func (s *MemoryStore) Firms(_ context.Context) ([]model.FirmSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.FirmSummary, 0, len(s.firms))
	for _, id := range s.sortedFirmIDs() {
		f := s.firms[id]
		out = append(out, model.FirmSummary{FirmID: id, Name: f.name, PatentCount: len(f.patents)})
	}
	return out, nil
}

func (s *MemoryStore) AddPatent(_ context.Context, firmID string, p model.Patent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.firms[firmID]
	if !ok {
		zap.L().Warn("memory: firm not found, creating placeholder",
			zap.String("firm_id", firmID),
			zap.String("patent_id", p.PatentID),
		)
		f = &memFirm{name: model.PlaceholderFirmName, patents: make(map[string]model.Patent)}
		s.firms[firmID] = f
	}
	f.patents[p.PatentID] = p.WithFirm(firmID)
	return nil
}

func (s *MemoryStore) RemovePatent(_ context.Context, firmID, patentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.firms[firmID]
	if !ok {
		return eris.Wrapf(ErrFirmNotFound, "memory: remove patent from firm %s", firmID)
	}
	if _, ok := f.patents[patentID]; !ok {
		return eris.Wrapf(ErrPatentNotFound, "memory: remove patent %s from firm %s", patentID, firmID)
	}
	delete(f.patents, patentID)
	return nil
}

func (s *MemoryStore) TransferPatent(_ context.Context, fromFirmID, toFirmID, patentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	from, ok := s.firms[fromFirmID]
	if !ok {
		return eris.Wrapf(ErrFirmNotFound, "memory: transfer from firm %s", fromFirmID)
	}
	to, ok := s.firms[toFirmID]
	if !ok {
		return eris.Wrapf(ErrFirmNotFound, "memory: transfer to firm %s", toFirmID)
	}
	p, ok := from.patents[patentID]
	if !ok {
		return eris.Wrapf(ErrPatentNotFound, "memory: transfer patent %s from firm %s", patentID, fromFirmID)
	}
	if fromFirmID == toFirmID {
		return nil
	}
	to.patents[patentID] = p.WithFirm(toFirmID)
	delete(from.patents, patentID)
	return nil
}

func (s *MemoryStore) LookupPatent(_ context.Context, firmID, patentID string) (model.Patent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.firms[firmID]
	if !ok {
		return model.Patent{}, eris.Wrapf(ErrFirmNotFound, "memory: lookup in firm %s", firmID)
	}
	p, ok := f.patents[patentID]
	if !ok {
		return model.Patent{}, eris.Wrapf(ErrPatentNotFound, "memory: lookup patent %s in firm %s", patentID, firmID)
	}
	return p, nil
}

func (s *MemoryStore) SearchPatents(_ context.Context, keyword string) ([]model.Patent, error) {
	m := newTitleMatcher(keyword)
	if m.empty() {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Patent
	for _, id := range s.sortedFirmIDs() {
		for _, p := range sortedPatents(s.firms[id].patents) {
			if m.match(p.Title) {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (s *MemoryStore) CommitGrantedPatent(_ context.Context, firmID string, p model.Patent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.firms[firmID]
	if !ok {
		return eris.Wrapf(ErrFirmNotFound, "memory: commit patent %s to firm %s", p.PatentID, firmID)
	}
	f.patents[p.PatentID] = p.WithFirm(firmID)
	return nil
}

func (s *MemoryStore) SnapshotOwnership(_ context.Context) (map[string][]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]string, len(s.firms))
	for id, f := range s.firms {
		ids := make([]string, 0, len(f.patents))
		for pid := range f.patents {
			ids = append(ids, pid)
		}
		slices.Sort(ids)
		out[id] = ids
	}
	return out, nil
}

// helpers

func (s *MemoryStore) sortedFirmIDs() []string {
	ids := make([]string, 0, len(s.firms))
	for id := range s.firms {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func sortedPatents(m map[string]model.Patent) []model.Patent {
	out := make([]model.Patent, 0, len(m))
	for _, p := range m {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b model.Patent) int {
		return strings.Compare(a.PatentID, b.PatentID)
	})
	return out
}
