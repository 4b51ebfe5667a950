// Package workflow runs patent applications through the grant queue: ordered
// by application date, retried once automatically after a rejection, then
// escalated to a Reviewer for a revised verdict.
package workflow

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/patent-cli/internal/model"
	"github.com/sells-group/patent-cli/internal/store"
)

var (
	// ErrDuplicateApplication is returned when a firm already has the same
	// patent ID waiting in a queue.
	ErrDuplicateApplication = eris.New("application already queued")
	// ErrAlreadyGranted is returned when the firm already holds the patent.
	ErrAlreadyGranted = eris.New("patent already granted to firm")
)

// Registry is the narrow view of the record store the engine needs.
type Registry interface {
	LookupPatent(ctx context.Context, firmID, patentID string) (model.Patent, error)
	CommitGrantedPatent(ctx context.Context, firmID string, p model.Patent) error
	AddFirm(ctx context.Context, firmID, name string) error
	Firms(ctx context.Context) ([]model.FirmSummary, error)
}

// Options tune an Engine. Zero fields take the DefaultOptions value.
type Options struct {
	// CycleThreshold is the pending length at or below which one rejected
	// application is moved back into the pending queue.
	CycleThreshold  int
	PlaceholderName string
	GrantDateFormat string
	Now             func() time.Time
}

// DefaultOptions returns the standard engine settings.
func DefaultOptions() Options {
	return Options{
		CycleThreshold:  3,
		PlaceholderName: model.PlaceholderFirmName,
		GrantDateFormat: "20060102",
		Now:             time.Now,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.CycleThreshold <= 0 {
		o.CycleThreshold = d.CycleThreshold
	}
	if o.PlaceholderName == "" {
		o.PlaceholderName = d.PlaceholderName
	}
	if o.GrantDateFormat == "" {
		o.GrantDateFormat = d.GrantDateFormat
	}
	if o.Now == nil {
		o.Now = d.Now
	}
	return o
}

// PassResult summarizes one drain pass.
type PassResult struct {
	PassID    string `json:"pass_id" yaml:"pass_id"`
	Processed int    `json:"processed" yaml:"processed"`
	Granted   int    `json:"granted" yaml:"granted"`
	Rejected  int    `json:"rejected" yaml:"rejected"`
	Reviewed  int    `json:"reviewed" yaml:"reviewed"`
	Deferred  bool   `json:"deferred" yaml:"deferred"`
	// Placeholders lists firms created because a grant targeted a firm that
	// no longer existed.
	Placeholders []string `json:"placeholders,omitempty" yaml:"placeholders,omitempty"`
}

// Engine owns the application queues and histories. It is not safe for
// concurrent use.
type Engine struct {
	registry Registry
	reviewer Reviewer
	opts     Options

	pending    Queue[model.Patent]
	rejected   Queue[model.Patent]
	history    Stack[string]
	rejections Stack[string]
	// firmAppl maps firm ID to the queued patent IDs, in submission order.
	firmAppl map[string][]string
}

// NewEngine creates an Engine with empty queues.
func NewEngine(registry Registry, reviewer Reviewer, opts Options) *Engine {
	return &Engine{
		registry: registry,
		reviewer: reviewer,
		opts:     opts.withDefaults(),
		firmAppl: make(map[string][]string),
	}
}

// Submit enqueues an application.
func (e *Engine) Submit(ctx context.Context, p model.Patent) error {
	if slices.Contains(e.firmAppl[p.FirmID], p.PatentID) {
		return eris.Wrapf(ErrDuplicateApplication, "workflow: submit %s for firm %s", p.PatentID, p.FirmID)
	}

	_, err := e.registry.LookupPatent(ctx, p.FirmID, p.PatentID)
	switch {
	case err == nil:
		return eris.Wrapf(ErrAlreadyGranted, "workflow: submit %s for firm %s", p.PatentID, p.FirmID)
	case errors.Is(err, store.ErrPatentNotFound), errors.Is(err, store.ErrFirmNotFound):
	default:
		return eris.Wrapf(err, "workflow: lookup %s", p.PatentID)
	}

	e.pending.Push(p)
	e.firmAppl[p.FirmID] = append(e.firmAppl[p.FirmID], p.PatentID)
	return nil
}

// Process runs one drain pass. The pass ends when the pending queue is empty,
// when the reviewer defers, or with an error. A cancelled ctx stops the pass
// between applications.
func (e *Engine) Process(ctx context.Context) (*PassResult, error) {
	res := &PassResult{PassID: uuid.NewString()}
	log := zap.L().With(zap.String("phase", "grant"), zap.String("pass_id", res.PassID))
	log.Info("workflow: pass started",
		zap.Int("pending", e.pending.Len()),
		zap.Int("rejected", e.rejected.Len()),
	)

	e.pending.SortStable(func(a, b model.Patent) int {
		return strings.Compare(a.ApplicationDate, b.ApplicationDate)
	})

	for e.pending.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return res, eris.Wrap(err, "workflow: pass cancelled")
		}

		p, _ := e.pending.Pop()
		switch {
		case p.Status.Decided:
			if err := e.grant(ctx, log, res, p); err != nil {
				e.pending.PushFront(p)
				return res, err
			}
		case p.Status.Attempts < 1:
			e.reject(log, res, p.WithStatus(false, p.Status.Attempts+1))
		default:
			stop, err := e.review(ctx, log, res, p)
			if err != nil || stop {
				return res, err
			}
		}
		res.Processed++

		if e.pending.Len() <= e.opts.CycleThreshold && e.rejected.Len() > 0 {
			back, _ := e.rejected.Pop()
			e.pending.Push(back)
		}
	}

	log.Info("workflow: pass finished",
		zap.Int("processed", res.Processed),
		zap.Int("granted", res.Granted),
		zap.Int("rejected", res.Rejected),
		zap.Int("reviewed", res.Reviewed),
	)
	return res, nil
}

// review escalates p to the reviewer. stop reports that the pass must end.
func (e *Engine) review(ctx context.Context, log *zap.Logger, res *PassResult, p model.Patent) (stop bool, err error) {
	roster, err := e.registry.Firms(ctx)
	if err != nil {
		e.pending.PushFront(p)
		return true, eris.Wrap(err, "workflow: load firm roster")
	}

	verdict, err := e.reviewer.ReviseVerdict(ctx, ReviewRequest{Patent: p, Roster: roster})
	if err != nil {
		e.pending.PushFront(p)
		return true, eris.Wrapf(err, "workflow: review %s", p.PatentID)
	}

	switch verdict {
	case VerdictDefer:
		e.pending.Push(p)
		res.Deferred = true
		log.Info("workflow: review deferred, pass stopped",
			zap.String("patent_id", p.PatentID),
			zap.Int("pending", e.pending.Len()),
		)
		return true, nil
	case VerdictAccept:
		res.Reviewed++
		accepted := p.WithStatus(true, p.Status.Attempts)
		if err := e.grant(ctx, log, res, accepted); err != nil {
			e.pending.PushFront(p)
			return true, err
		}
	case VerdictReject:
		res.Reviewed++
		e.reject(log, res, p.WithStatus(false, p.Status.Attempts))
	default:
		e.pending.PushFront(p)
		return true, eris.Errorf("workflow: unknown verdict %d for %s", verdict, p.PatentID)
	}
	return false, nil
}

func (e *Engine) reject(log *zap.Logger, res *PassResult, p model.Patent) {
	e.rejected.Push(p)
	e.history.Push(p.PatentID)
	e.rejections.Push(p.PatentID)
	res.Rejected++
	log.Debug("workflow: application rejected",
		zap.String("patent_id", p.PatentID),
		zap.String("firm_id", p.FirmID),
		zap.Int("attempts", p.Status.Attempts),
	)
}

// grant commits p into its firm, creating a placeholder firm when the target
// no longer exists.
func (e *Engine) grant(ctx context.Context, log *zap.Logger, res *PassResult, p model.Patent) error {
	granted := p.Granted(e.opts.Now().Format(e.opts.GrantDateFormat))

	err := e.registry.CommitGrantedPatent(ctx, granted.FirmID, granted)
	if errors.Is(err, store.ErrFirmNotFound) {
		log.Warn("workflow: grant target firm missing, creating placeholder",
			zap.String("firm_id", granted.FirmID),
			zap.String("patent_id", granted.PatentID),
		)
		if err := e.registry.AddFirm(ctx, granted.FirmID, e.opts.PlaceholderName); err != nil && !errors.Is(err, store.ErrFirmExists) {
			return eris.Wrapf(err, "workflow: create placeholder firm %s", granted.FirmID)
		}
		res.Placeholders = append(res.Placeholders, granted.FirmID)
		err = e.registry.CommitGrantedPatent(ctx, granted.FirmID, granted)
	}
	if err != nil {
		return eris.Wrapf(err, "workflow: commit %s to firm %s", granted.PatentID, granted.FirmID)
	}

	e.dropApplication(granted.FirmID, granted.PatentID)
	e.history.Push(granted.PatentID)
	res.Granted++
	log.Info("workflow: patent granted",
		zap.String("patent_id", granted.PatentID),
		zap.String("firm_id", granted.FirmID),
		zap.String("grant_date", granted.GrantDate),
	)
	return nil
}

func (e *Engine) dropApplication(firmID, patentID string) {
	ids := slices.DeleteFunc(e.firmAppl[firmID], func(id string) bool { return id == patentID })
	if len(ids) == 0 {
		delete(e.firmAppl, firmID)
		return
	}
	e.firmAppl[firmID] = ids
}

// Pending returns the pending queue, head first.
func (e *Engine) Pending() []model.Patent { return e.pending.Items() }

// Rejected returns the rejected queue, head first.
func (e *Engine) Rejected() []model.Patent { return e.rejected.Items() }

// PendingByFirm returns a copy of the queued patent IDs per firm.
func (e *Engine) PendingByFirm() map[string][]string {
	out := make(map[string][]string, len(e.firmAppl))
	for id, ids := range e.firmAppl {
		out[id] = slices.Clone(ids)
	}
	return out
}

// PendingCount returns how many applications firmID has queued.
func (e *Engine) PendingCount(firmID string) int { return len(e.firmAppl[firmID]) }

// History returns every decided patent ID, newest first.
func (e *Engine) History() []string { return e.history.Items() }

// RejectionHistory returns rejected patent IDs, newest first.
func (e *Engine) RejectionHistory() []string { return e.rejections.Items() }

// Reset discards all queues and histories.
func (e *Engine) Reset() {
	e.pending.Clear()
	e.rejected.Clear()
	e.history.Clear()
	e.rejections.Clear()
	e.firmAppl = make(map[string][]string)
}
