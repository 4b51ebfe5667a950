package workflow

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/patent-cli/internal/model"
)

func reviewRequest(firmID, patentID string) ReviewRequest {
	return ReviewRequest{
		Patent: application(firmID, patentID, "2020", false).WithStatus(false, 1),
		Roster: []model.FirmSummary{
			{FirmID: "F1", Name: "Acme", PatentCount: 2},
			{FirmID: "F2", Name: "Globex", PatentCount: 0},
		},
	}
}

func TestVerdict_StringAndParse(t *testing.T) {
	for _, v := range []Verdict{VerdictAccept, VerdictReject, VerdictDefer} {
		got, err := ParseVerdict(strings.ToUpper(v.String()))
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
	_, err := ParseVerdict("maybe")
	assert.Error(t, err)
	assert.Equal(t, "verdict(7)", Verdict(7).String())
}

func TestPromptReviewer_Answers(t *testing.T) {
	var out bytes.Buffer
	r := NewPromptReviewer(strings.NewReader("y\n n \n0\nY\n"), &out, 0)
	ctx := context.Background()

	want := []Verdict{VerdictAccept, VerdictReject, VerdictDefer, VerdictAccept, VerdictDefer}
	for i, w := range want {
		got, err := r.ReviseVerdict(ctx, reviewRequest("F1", "P1"))
		require.NoError(t, err)
		assert.Equal(t, w, got, "answer %d", i)
	}

	text := out.String()
	assert.Contains(t, text, "Acme")
	assert.Contains(t, text, "Globex")
	assert.Contains(t, text, "Patent P1  firm F1  applied 2020  attempts 1")
	assert.Contains(t, text, "set patent status y/n")
}

func TestPromptReviewer_ShortensTitle(t *testing.T) {
	var out bytes.Buffer
	r := NewPromptReviewer(strings.NewReader("n\n"), &out, 8)
	req := reviewRequest("F1", "P1")
	req.Patent.Title = "A very long patent title indeed"

	_, err := r.ReviseVerdict(context.Background(), req)
	require.NoError(t, err)
	assert.NotContains(t, out.String(), req.Patent.Title)
	assert.Contains(t, out.String(), req.Patent.ShortTitle(8))
}

func TestPromptReviewer_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewPromptReviewer(strings.NewReader("y\n"), &bytes.Buffer{}, 0)
	v, err := r.ReviseVerdict(ctx, reviewRequest("F1", "P1"))
	require.Error(t, err)
	assert.Equal(t, VerdictDefer, v)
}

func TestRulesReviewer_Precedence(t *testing.T) {
	r, err := NewRulesReviewer(RulesConfig{
		Default:   "accept",
		MaxRounds: 5,
		Patents:   map[string]string{"P1": "reject"},
		Firms:     map[string]string{"F2": "defer", "F1": "reject"},
	})
	require.NoError(t, err)
	ctx := context.Background()

	v, err := r.ReviseVerdict(ctx, reviewRequest("F2", "P1"))
	require.NoError(t, err)
	assert.Equal(t, VerdictReject, v, "patent rule beats firm rule")

	v, _ = r.ReviseVerdict(ctx, reviewRequest("F2", "P2"))
	assert.Equal(t, VerdictDefer, v)

	v, _ = r.ReviseVerdict(ctx, reviewRequest("F3", "P2"))
	assert.Equal(t, VerdictAccept, v)
}

func TestRulesReviewer_DefersAfterMaxRounds(t *testing.T) {
	r, err := NewRulesReviewer(RulesConfig{MaxRounds: 2})
	require.NoError(t, err)
	ctx := context.Background()

	for range 2 {
		v, err := r.ReviseVerdict(ctx, reviewRequest("F1", "P1"))
		require.NoError(t, err)
		assert.Equal(t, VerdictReject, v)
	}
	v, _ := r.ReviseVerdict(ctx, reviewRequest("F1", "P1"))
	assert.Equal(t, VerdictDefer, v)

	// Rounds are tracked per firm and patent.
	v, _ = r.ReviseVerdict(ctx, reviewRequest("F2", "P1"))
	assert.Equal(t, VerdictReject, v)
}

func TestRulesReviewer_InvalidVerdicts(t *testing.T) {
	_, err := NewRulesReviewer(RulesConfig{Default: "perhaps"})
	assert.Error(t, err)
	_, err = NewRulesReviewer(RulesConfig{Patents: map[string]string{"P1": "x"}})
	assert.Error(t, err)
	_, err = NewRulesReviewer(RulesConfig{Firms: map[string]string{"F1": ""}})
	assert.Error(t, err)
}

func TestLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`review:
  default: reject
  max_rounds: 1
  patents:
    P7: accept
  firms:
    F3: defer
`), 0o644))

	r, err := LoadRules(path)
	require.NoError(t, err)
	ctx := context.Background()

	v, _ := r.ReviseVerdict(ctx, reviewRequest("F1", "P7"))
	assert.Equal(t, VerdictAccept, v)
	v, _ = r.ReviseVerdict(ctx, reviewRequest("F3", "P1"))
	assert.Equal(t, VerdictDefer, v)
	v, _ = r.ReviseVerdict(ctx, reviewRequest("F1", "P1"))
	assert.Equal(t, VerdictReject, v)
	v, _ = r.ReviseVerdict(ctx, reviewRequest("F1", "P1"))
	assert.Equal(t, VerdictDefer, v)
}

func TestLoadRules_Errors(t *testing.T) {
	_, err := LoadRules(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("review: [unclosed"), 0o644))
	_, err = LoadRules(path)
	assert.Error(t, err)
}

func TestRulesReviewer_EndsPass(t *testing.T) {
	reg := newTestRegistry(t, "F1")
	rules, err := NewRulesReviewer(RulesConfig{Default: "reject", MaxRounds: 3})
	require.NoError(t, err)
	e := NewEngine(reg, rules, fixedOptions())
	submitAll(t, e, application("F1", "P1", "2020", false))

	res, err := e.Process(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Deferred)
	assert.Equal(t, 3, res.Reviewed)
	assert.Equal(t, 4, res.Rejected)
}
