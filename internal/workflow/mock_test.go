package workflow

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/patent-cli/internal/model"
)

// mockRegistry implements Registry for testing.
type mockRegistry struct {
	mock.Mock
}

func (m *mockRegistry) LookupPatent(ctx context.Context, firmID, patentID string) (model.Patent, error) {
	args := m.Called(ctx, firmID, patentID)
	return args.Get(0).(model.Patent), args.Error(1)
}

func (m *mockRegistry) CommitGrantedPatent(ctx context.Context, firmID string, p model.Patent) error {
	args := m.Called(ctx, firmID, p)
	return args.Error(0)
}

func (m *mockRegistry) AddFirm(ctx context.Context, firmID, name string) error {
	args := m.Called(ctx, firmID, name)
	return args.Error(0)
}

func (m *mockRegistry) Firms(ctx context.Context) ([]model.FirmSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.FirmSummary), args.Error(1)
}

// mockReviewer implements Reviewer for testing.
type mockReviewer struct {
	mock.Mock
}

func (m *mockReviewer) ReviseVerdict(ctx context.Context, req ReviewRequest) (Verdict, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(Verdict), args.Error(1)
}
