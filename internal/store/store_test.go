package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/patent-cli/internal/model"
)

// backends returns one fresh store per driver so every contract test runs
// against both implementations.
func backends(t *testing.T) map[string]Store {
	t.Helper()
	out := make(map[string]Store)
	for _, driver := range []string{"memory", "sqlite"} {
		st, err := Open(context.Background(), driver)
		require.NoError(t, err)
		t.Cleanup(func() { st.Close() }) //nolint:errcheck
		out[driver] = st
	}
	return out
}

func seed(t *testing.T, st Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, st.AddFirm(ctx, "F1", "Acme"))
	require.NoError(t, st.AddFirm(ctx, "F2", "Globex"))
	require.NoError(t, st.AddPatent(ctx, "F1", model.Patent{PatentID: "P1", Title: "Rotating Widget"}))
	require.NoError(t, st.AddPatent(ctx, "F1", model.Patent{PatentID: "P2", Title: "Solar cell array"}))
	require.NoError(t, st.AddPatent(ctx, "F2", model.Patent{PatentID: "P2", Title: "Solar cell array"}))
	require.NoError(t, st.AddPatent(ctx, "F2", model.Patent{PatentID: "P3", Title: "Widget housing"}))
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), "postgres")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store driver")
}

func TestStore_FirmsAndGetFirm(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seed(t, st)

			firms, err := st.Firms(ctx)
			require.NoError(t, err)
			assert.Equal(t, []model.FirmSummary{
				{FirmID: "F1", Name: "Acme", PatentCount: 2},
				{FirmID: "F2", Name: "Globex", PatentCount: 2},
			}, firms)

			f, err := st.GetFirm(ctx, "F2")
			require.NoError(t, err)
			assert.Equal(t, "Globex", f.Name)
			require.Len(t, f.Patents, 2)
			assert.Equal(t, "P2", f.Patents[0].PatentID)
			assert.Equal(t, "F2", f.Patents[0].FirmID)
			assert.Equal(t, "P3", f.Patents[1].PatentID)

			_, err = st.GetFirm(ctx, "F9")
			assert.ErrorIs(t, err, ErrFirmNotFound)
		})
	}
}

func TestStore_AddFirmDuplicate(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, st.AddFirm(ctx, "F1", "Acme"))
			assert.ErrorIs(t, st.AddFirm(ctx, "F1", "Acme again"), ErrFirmExists)
		})
	}
}

func TestStore_AddPatentCreatesPlaceholderFirm(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, st.AddPatent(ctx, "F7", model.Patent{PatentID: "P9", FirmID: "ignored"}))

			f, err := st.GetFirm(ctx, "F7")
			require.NoError(t, err)
			assert.Equal(t, model.PlaceholderFirmName, f.Name)
			require.Len(t, f.Patents, 1)
			assert.Equal(t, "F7", f.Patents[0].FirmID)
		})
	}
}

func TestStore_AddPatentReplacesSameID(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, st.AddFirm(ctx, "F1", "Acme"))
			require.NoError(t, st.AddPatent(ctx, "F1", model.Patent{PatentID: "P1", Title: "old"}))
			require.NoError(t, st.AddPatent(ctx, "F1", model.Patent{PatentID: "P1", Title: "new"}))

			f, err := st.GetFirm(ctx, "F1")
			require.NoError(t, err)
			assert.Equal(t, 1, f.PatentCount())
			assert.Equal(t, "new", f.Patents[0].Title)
		})
	}
}

func TestStore_LookupPatent(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seed(t, st)

			p, err := st.LookupPatent(ctx, "F1", "P1")
			require.NoError(t, err)
			assert.Equal(t, "Rotating Widget", p.Title)

			_, err = st.LookupPatent(ctx, "F1", "P3")
			assert.ErrorIs(t, err, ErrPatentNotFound)

			_, err = st.LookupPatent(ctx, "F9", "P1")
			assert.ErrorIs(t, err, ErrFirmNotFound)
		})
	}
}

func TestStore_RemovePatentAndFirm(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seed(t, st)

			require.NoError(t, st.RemovePatent(ctx, "F1", "P1"))
			assert.ErrorIs(t, st.RemovePatent(ctx, "F1", "P1"), ErrPatentNotFound)
			assert.ErrorIs(t, st.RemovePatent(ctx, "F9", "P1"), ErrFirmNotFound)

			require.NoError(t, st.RemoveFirm(ctx, "F2"))
			assert.ErrorIs(t, st.RemoveFirm(ctx, "F2"), ErrFirmNotFound)

			snap, err := st.SnapshotOwnership(ctx)
			require.NoError(t, err)
			assert.Equal(t, map[string][]string{"F1": {"P2"}}, snap)
		})
	}
}

func TestStore_TransferPatent(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seed(t, st)

			require.NoError(t, st.TransferPatent(ctx, "F1", "F2", "P1"))

			p, err := st.LookupPatent(ctx, "F2", "P1")
			require.NoError(t, err)
			assert.Equal(t, "F2", p.FirmID)
			assert.Equal(t, "Rotating Widget", p.Title)

			_, err = st.LookupPatent(ctx, "F1", "P1")
			assert.ErrorIs(t, err, ErrPatentNotFound)

			assert.ErrorIs(t, st.TransferPatent(ctx, "F1", "F9", "P2"), ErrFirmNotFound)
			assert.ErrorIs(t, st.TransferPatent(ctx, "F1", "F2", "P1"), ErrPatentNotFound)

			// Self-transfer is a no-op.
			require.NoError(t, st.TransferPatent(ctx, "F2", "F2", "P3"))
			_, err = st.LookupPatent(ctx, "F2", "P3")
			require.NoError(t, err)
		})
	}
}

func TestStore_CommitGrantedPatent(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, st.AddFirm(ctx, "F1", "Acme"))

			granted := model.Patent{PatentID: "P5", ApplicationDate: "2019"}.WithStatus(true, 1).Granted("20241012")
			require.NoError(t, st.CommitGrantedPatent(ctx, "F1", granted))

			p, err := st.LookupPatent(ctx, "F1", "P5")
			require.NoError(t, err)
			assert.Equal(t, "20241012", p.GrantDate)
			assert.Equal(t, model.ApplicationStatus{Decided: true, Attempts: 1}, p.Status)

			err = st.CommitGrantedPatent(ctx, "F9", granted)
			assert.ErrorIs(t, err, ErrFirmNotFound)
			_, err = st.GetFirm(ctx, "F9")
			assert.ErrorIs(t, err, ErrFirmNotFound, "commit must not create firms")
		})
	}
}

func TestStore_SnapshotOwnership(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seed(t, st)
			require.NoError(t, st.AddFirm(ctx, "F3", "Empty Co"))

			snap, err := st.SnapshotOwnership(ctx)
			require.NoError(t, err)
			assert.Equal(t, map[string][]string{
				"F1": {"P1", "P2"},
				"F2": {"P2", "P3"},
				"F3": {},
			}, snap)

			// The snapshot is a copy.
			snap["F1"][0] = "mutated"
			again, err := st.SnapshotOwnership(ctx)
			require.NoError(t, err)
			assert.Equal(t, "P1", again["F1"][0])
		})
	}
}

func TestStore_SearchPatents(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seed(t, st)

			hits, err := st.SearchPatents(ctx, "  WIDGET ")
			require.NoError(t, err)
			require.Len(t, hits, 2)
			assert.Equal(t, "P1", hits[0].PatentID)
			assert.Equal(t, "F1", hits[0].FirmID)
			assert.Equal(t, "P3", hits[1].PatentID)

			hits, err = st.SearchPatents(ctx, "solar")
			require.NoError(t, err)
			assert.Len(t, hits, 2, "co-held patent is listed once per firm")

			hits, err = st.SearchPatents(ctx, "")
			require.NoError(t, err)
			assert.Empty(t, hits)

			hits, err = st.SearchPatents(ctx, "quantum")
			require.NoError(t, err)
			assert.Empty(t, hits)
		})
	}
}
