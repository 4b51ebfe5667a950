package analytics

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/patent-cli/internal/sparse"
)

// Report is the output of one Rebuild. Incidence[i][j] is 1 when Firms[i]
// holds Patents[j]; Shared[i][j] counts patents held by both Firms[i] and
// Firms[j].
type Report struct {
	Firms             []string              `json:"firms" yaml:"firms"`
	Patents           []string              `json:"patents" yaml:"patents"`
	Incidence         [][]int               `json:"incidence" yaml:"incidence"`
	Shared            [][]int               `json:"shared" yaml:"shared"`
	IncidenceTriplets []sparse.Triplet[int] `json:"incidence_triplets" yaml:"incidence_triplets"`
	TransposeTriplets []sparse.Triplet[int] `json:"transpose_triplets" yaml:"transpose_triplets"`
}

// Output formats accepted by Render.
const (
	FormatTable  = "table"
	FormatSparse = "sparse"
	FormatYAML   = "yaml"
	FormatJSON   = "json"
)

// Formats lists the values accepted by Render.
var Formats = []string{FormatTable, FormatSparse, FormatYAML, FormatJSON}

// Render writes the report to w in the given format.
func (r *Report) Render(w io.Writer, format string) error {
	switch format {
	case FormatTable, "":
		return r.renderTable(w)
	case FormatSparse:
		return r.renderSparse(w)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return eris.Wrap(err, "analytics: encode yaml")
		}
		if err := enc.Close(); err != nil {
			return eris.Wrap(err, "analytics: flush yaml")
		}
		return nil
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r); err != nil {
			return eris.Wrap(err, "analytics: encode json")
		}
		return nil
	}
	return eris.Errorf("analytics: unknown format %q (want one of %s)", format, strings.Join(Formats, ", "))
}

func (r *Report) renderTable(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 1, ' ', tabwriter.AlignRight)

	_, _ = fmt.Fprintln(tw, "Firms-Patents Matrix:")
	writeGrid(tw, r.Patents, r.Firms, r.Incidence)
	_, _ = fmt.Fprintln(tw, "\t")
	_, _ = fmt.Fprintln(tw, "Shared Patents:")
	writeGrid(tw, r.Firms, r.Firms, r.Shared)

	if err := tw.Flush(); err != nil {
		return eris.Wrap(err, "analytics: write table")
	}
	return nil
}

func writeGrid(w io.Writer, colLabels, rowLabels []string, cells [][]int) {
	_, _ = fmt.Fprintf(w, "\t%s\t\n", strings.Join(colLabels, "\t"))
	for i, label := range rowLabels {
		vals := make([]string, len(cells[i]))
		for j, v := range cells[i] {
			vals[j] = strconv.Itoa(v)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t\n", label, strings.Join(vals, "\t"))
	}
}

func (r *Report) renderSparse(w io.Writer) error {
	sections := []struct {
		title    string
		rows     int
		cols     int
		triplets []sparse.Triplet[int]
	}{
		{"M", len(r.Firms), len(r.Patents), r.IncidenceTriplets},
		{"Mt", len(r.Patents), len(r.Firms), r.TransposeTriplets},
	}
	for _, s := range sections {
		if _, err := fmt.Fprintf(w, "%s %dx%d nnz=%d\nrow,col,value\n", s.title, s.rows, s.cols, len(s.triplets)); err != nil {
			return eris.Wrap(err, "analytics: write sparse")
		}
		for _, t := range s.triplets {
			if _, err := fmt.Fprintf(w, "%d,%d,%d\n", t.Row, t.Col, t.Value); err != nil {
				return eris.Wrap(err, "analytics: write sparse")
			}
		}
	}
	return nil
}
