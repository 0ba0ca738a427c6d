package journal

import (
	"context"
	"database/sql"
	"time"
)

type Outcome string

const (
	OutcomeUpdated  Outcome = "updated"
	OutcomeUpToDate Outcome = "up_to_date"
	OutcomeDryRun   Outcome = "dry_run"
	OutcomeFailed   Outcome = "failed"
)

// Run is one fetch and reconcile pass over the dataset.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Outcome    Outcome
	Pages      int
	Fetched    int
	Appended   int
	Total      int
	// empty unless fetching or reconciling failed
	Error string
}

func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) Store {
	return Store{db: database}
}

func (s Store) Record(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(
		ctx,
		`insert into harvest_run
			(id, started_at, finished_at, outcome, pages, fetched, appended, total, error)
			values (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.StartedAt.UnixMilli(),
		run.FinishedAt.UnixMilli(),
		string(run.Outcome),
		run.Pages,
		run.Fetched,
		run.Appended,
		run.Total,
		run.Error,
	)
	return err
}

// Recent returns at most `limit` runs, newest first.
func (s Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`select id, started_at, finished_at, outcome, pages, fetched, appended, total, error
			from harvest_run
			order by started_at desc, rowid desc
			limit ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var startedAt, finishedAt int64
		var outcome string
		err := rows.Scan(
			&run.ID,
			&startedAt,
			&finishedAt,
			&outcome,
			&run.Pages,
			&run.Fetched,
			&run.Appended,
			&run.Total,
			&run.Error,
		)
		if err != nil {
			return nil, err
		}
		run.StartedAt = time.UnixMilli(startedAt)
		run.FinishedAt = time.UnixMilli(finishedAt)
		run.Outcome = Outcome(outcome)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
