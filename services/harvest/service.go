package harvest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"pfetracker/lib/journal"
	"pfetracker/lib/scrapers/wordpress"
	"pfetracker/lib/sheetstore"
	"pfetracker/lib/telemetry"
	"pfetracker/lib/tracker"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("pfetracker.services.harvest")
var meter = telemetry.Meter("pfetracker.services.harvest")

var appendedCounter, _ = meter.Int64Counter("harvest.records_appended")

type Fetcher interface {
	FetchAll(ctx context.Context) (wordpress.Harvest, error)
}

type Journal interface {
	Record(ctx context.Context, run journal.Run) error
}

type Notifier interface {
	Notify(ctx context.Context, names []string) error
}

type Options struct {
	// nil disables the journal
	Journal Journal
	// nil disables notifications
	Notifier      Notifier
	HintThreshold float64
}

type Service struct {
	fetcher Fetcher
	store   sheetstore.Store
	opts    Options
}

func NewService(fetcher Fetcher, store sheetstore.Store, opts Options) Service {
	return Service{
		fetcher: fetcher,
		store:   store,
		opts:    opts,
	}
}

// Report summarizes a reconciliation.
type Report struct {
	Existing int
	Appended []tracker.Record
	Total    int
	Hints    []tracker.Hint
	// whether the dataset file existed before this run
	Existed bool
	// whether the dataset file was rewritten
	Written bool
}

func (r Report) UpToDate() bool {
	return len(r.Appended) == 0
}

func (r Report) AppendedNames() []string {
	names := make([]string, len(r.Appended))
	for i, rec := range r.Appended {
		names[i] = rec.Name
	}
	return names
}

// Reconcile loads the dataset, appends the names it does not contain yet
// and writes it back. Nothing is written when no name is new, or when
// `dryRun` is set.
func (s Service) Reconcile(ctx context.Context, names []string, dryRun bool) (Report, error) {
	ctx, span := tracer.Start(ctx, "Reconcile")
	defer span.End()

	unlock, err := s.store.Lock()
	if err != nil {
		span.SetStatus(codes.Error, "failed to lock dataset")
		return Report{}, err
	}
	defer func() {
		err := unlock()
		if err != nil {
			slog.WarnContext(ctx, "failed to release dataset lock", "err", err)
		}
	}()

	existing, existed, err := s.store.Load()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load dataset")
		return Report{}, fmt.Errorf("load dataset: %w", err)
	}

	result := tracker.Merge(existing, names, s.store.Labels().NotDone)
	report := Report{
		Existing: len(existing),
		Appended: result.Appended,
		Total:    len(result.Dataset),
		Existed:  existed,
	}
	span.SetAttributes(
		attribute.Int("existing", report.Existing),
		attribute.Int("appended", len(report.Appended)),
	)

	if result.UpToDate() {
		slog.InfoContext(ctx, "dataset is up to date", "path", s.store.Path(), "records", report.Total)
		return report, nil
	}

	report.Hints = tracker.NearDuplicates(existing, result.Appended, s.opts.HintThreshold)
	for _, hint := range report.Hints {
		slog.WarnContext(
			ctx, "new entry resembles an existing one",
			"name", hint.Name,
			"existing", hint.Existing,
			"similarity", hint.Similarity,
		)
	}

	if dryRun {
		slog.InfoContext(ctx, "dry run, dataset not written", "path", s.store.Path(), "would_append", len(report.Appended))
		return report, nil
	}

	err = s.store.Save(result.Dataset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to save dataset")
		return report, fmt.Errorf("save dataset: %w", err)
	}
	report.Written = true
	appendedCounter.Add(ctx, int64(len(report.Appended)))

	slog.InfoContext(
		ctx, "dataset updated",
		"path", s.store.Path(),
		"appended", len(report.Appended),
		"records", report.Total,
	)
	return report, nil
}

// RunResult is everything a run produced, including partial results of a
// failed fetch.
type RunResult struct {
	ID       string
	Harvest  wordpress.Harvest
	Report   Report
	FetchErr error
}

// Run fetches every page and reconciles the names into the dataset. When
// fetching fails part way, the names gathered so far are still reconciled
// and the fetch error is returned afterwards.
func (s Service) Run(ctx context.Context, dryRun bool) (RunResult, error) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	result := RunResult{ID: uuid.NewString()}
	span.SetAttributes(attribute.String("run_id", result.ID))
	startedAt := time.Now()

	result.Harvest, result.FetchErr = s.fetcher.FetchAll(ctx)
	if result.FetchErr != nil {
		slog.WarnContext(
			ctx, "fetching stopped early, reconciling partial results",
			"fetched", len(result.Harvest.Names),
			"err", result.FetchErr,
		)
	}

	report, reconcileErr := s.Reconcile(ctx, result.Harvest.Names, dryRun)
	result.Report = report

	err := errors.Join(result.FetchErr, reconcileErr)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "run failed")
	}

	s.record(ctx, result, startedAt, dryRun, err)
	if reconcileErr == nil && !dryRun {
		s.notify(ctx, report)
	}

	return result, err
}

func (s Service) record(ctx context.Context, result RunResult, startedAt time.Time, dryRun bool, runErr error) {
	if s.opts.Journal == nil {
		return
	}

	run := journal.Run{
		ID:         result.ID,
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
		Pages:      result.Harvest.Pages,
		Fetched:    len(result.Harvest.Names),
		Appended:   len(result.Report.Appended),
		Total:      result.Report.Total,
	}
	switch {
	case runErr != nil:
		run.Outcome = journal.OutcomeFailed
		run.Error = runErr.Error()
	case dryRun:
		run.Outcome = journal.OutcomeDryRun
	case result.Report.UpToDate():
		run.Outcome = journal.OutcomeUpToDate
	default:
		run.Outcome = journal.OutcomeUpdated
	}
	// dry runs journal what they would have appended, real runs only what landed
	if !dryRun && !result.Report.Written {
		run.Appended = 0
	}

	err := s.opts.Journal.Record(ctx, run)
	if err != nil {
		slog.WarnContext(ctx, "failed to journal run", "run_id", run.ID, "err", err)
	}
}

func (s Service) notify(ctx context.Context, report Report) {
	if s.opts.Notifier == nil || report.UpToDate() {
		return
	}
	err := s.opts.Notifier.Notify(ctx, report.AppendedNames())
	if err != nil {
		slog.WarnContext(ctx, "failed to send notification", "err", err)
	}
}
