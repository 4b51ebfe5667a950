package workflow

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"

	"github.com/sells-group/patent-cli/internal/model"
)

// Verdict is a reviewer's decision on an escalated application.
type Verdict int

const (
	VerdictReject Verdict = iota
	VerdictAccept
	// VerdictDefer requeues the application and ends the pass.
	VerdictDefer
)

func (v Verdict) String() string {
	switch v {
	case VerdictReject:
		return "reject"
	case VerdictAccept:
		return "accept"
	case VerdictDefer:
		return "defer"
	default:
		return fmt.Sprintf("verdict(%d)", int(v))
	}
}

// ParseVerdict maps "accept", "reject" and "defer" (any case) to a Verdict.
func ParseVerdict(s string) (Verdict, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "accept":
		return VerdictAccept, nil
	case "reject":
		return VerdictReject, nil
	case "defer":
		return VerdictDefer, nil
	}
	return VerdictReject, eris.Errorf("workflow: unknown verdict %q", s)
}

// ReviewRequest carries what a reviewer sees for one escalated application.
type ReviewRequest struct {
	Patent model.Patent
	Roster []model.FirmSummary
}

// Reviewer supplies a revised verdict for an application that was already
// rejected once. Implementations may block.
type Reviewer interface {
	ReviseVerdict(ctx context.Context, req ReviewRequest) (Verdict, error)
}

// ReviewerFunc adapts a function to the Reviewer interface.
type ReviewerFunc func(ctx context.Context, req ReviewRequest) (Verdict, error)

// ReviseVerdict calls f.
func (f ReviewerFunc) ReviseVerdict(ctx context.Context, req ReviewRequest) (Verdict, error) {
	return f(ctx, req)
}

// PromptReviewer asks a person on a terminal. "y" accepts, "0" defers and
// anything else rejects. End of input defers.
type PromptReviewer struct {
	out   io.Writer
	in    *bufio.Scanner
	width int
}

// NewPromptReviewer reads answers from in and writes prompts to out. A
// positive titleWidth truncates long patent titles.
func NewPromptReviewer(in io.Reader, out io.Writer, titleWidth int) *PromptReviewer {
	return &PromptReviewer{out: out, in: bufio.NewScanner(in), width: titleWidth}
}

// ReviseVerdict implements Reviewer.
func (r *PromptReviewer) ReviseVerdict(ctx context.Context, req ReviewRequest) (Verdict, error) {
	if err := ctx.Err(); err != nil {
		return VerdictDefer, eris.Wrap(err, "workflow: prompt cancelled")
	}

	w := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "FIRM\tNAME\tPATENTS")
	_, _ = fmt.Fprintln(w, "----\t----\t-------")
	for _, f := range req.Roster {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\n", f.FirmID, f.Name, f.PatentCount)
	}
	if err := w.Flush(); err != nil {
		return VerdictDefer, eris.Wrap(err, "workflow: write roster")
	}

	p := req.Patent
	title := p.Title
	if r.width > 0 {
		title = p.ShortTitle(r.width)
	}
	_, _ = fmt.Fprintf(r.out, "\nPatent %s  firm %s  applied %s  attempts %d\n%s\n",
		p.PatentID, p.FirmID, p.ApplicationDate, p.Status.Attempts, title)
	_, _ = fmt.Fprint(r.out, "set patent status y/n\nenter '0' to defer\ninput: ")

	if !r.in.Scan() {
		if err := r.in.Err(); err != nil {
			return VerdictDefer, eris.Wrap(err, "workflow: read verdict")
		}
		return VerdictDefer, nil
	}
	switch strings.ToLower(strings.TrimSpace(r.in.Text())) {
	case "0":
		return VerdictDefer, nil
	case "y":
		return VerdictAccept, nil
	default:
		return VerdictReject, nil
	}
}
