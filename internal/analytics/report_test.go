package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
	"gopkg.in/yaml.v3"
)

func scenarioReport(t *testing.T) *Report {
	t.Helper()
	rep, err := New(twoFirmStore(t)).Rebuild(context.Background())
	require.NoError(t, err)
	return rep
}

func TestRender_Table(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, scenarioReport(t).Render(&buf, FormatTable))

	out := buf.String()
	assert.Contains(t, out, "Firms-Patents Matrix:")
	assert.Contains(t, out, "Shared Patents:")
	lines := strings.Split(out, "\n")
	var f1 []string
	for _, l := range lines {
		if strings.HasPrefix(strings.TrimSpace(l), "F1") {
			f1 = append(f1, strings.Join(strings.Fields(l), " "))
		}
	}
	assert.Equal(t, []string{"F1 1 1 0", "F1 F2", "F1 2 1"}, f1)
}

func TestRender_DefaultIsTable(t *testing.T) {
	var a, b bytes.Buffer
	rep := scenarioReport(t)
	require.NoError(t, rep.Render(&a, ""))
	require.NoError(t, rep.Render(&b, FormatTable))
	assert.Equal(t, b.String(), a.String())
}

func TestRender_Sparse(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, scenarioReport(t).Render(&buf, FormatSparse))

	assert.Equal(t, "M 2x3 nnz=4\nrow,col,value\n0,0,1\n0,1,1\n1,1,1\n1,2,1\n"+
		"Mt 3x2 nnz=4\nrow,col,value\n0,0,1\n1,0,1\n1,1,1\n2,1,1\n", buf.String())
}

func TestRender_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, scenarioReport(t).Render(&buf, FormatJSON))

	var got Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, [][]int{{2, 1}, {1, 2}}, got.Shared)
	assert.Equal(t, []string{"P1", "P2", "P3"}, got.Patents)
}

func TestRender_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, scenarioReport(t).Render(&buf, FormatYAML))
	assert.Contains(t, buf.String(), "incidence_triplets:")

	var got Report
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, []string{"F1", "F2"}, got.Firms)
	assert.Equal(t, [][]int{{1, 1, 0}, {0, 1, 1}}, got.Incidence)
}

func TestRender_UnknownFormat(t *testing.T) {
	err := scenarioReport(t).Render(&bytes.Buffer{}, "csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matrix.xlsx")
	require.NoError(t, scenarioReport(t).WriteXLSX(path))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 2)

	inc, ok := f.Sheet[SheetIncidence]
	require.True(t, ok)
	require.Len(t, inc.Rows, 3)
	var header []string
	for _, c := range inc.Rows[0].Cells {
		header = append(header, c.String())
	}
	assert.Equal(t, []string{"firm", "P1", "P2", "P3"}, header)
	assert.Equal(t, "F2", inc.Rows[2].Cells[0].String())

	shared, ok := f.Sheet[SheetShared]
	require.True(t, ok)
	require.Len(t, shared.Rows, 3)
	var r1 []int
	for _, c := range shared.Rows[1].Cells[1:] {
		v, err := c.Int()
		require.NoError(t, err)
		r1 = append(r1, v)
	}
	assert.Equal(t, []int{2, 1}, r1)
}
