package testutil

import (
	"database/sql"
	"testing"

	"pfetracker/lib/journal/db"
	"pfetracker/lib/telemetry"

	_ "modernc.org/sqlite"
)

// OpenJournalDB returns an in-memory sqlite database with the journal
// schema applied, closed when the test ends.
func OpenJournalDB(t testing.TB) *sql.DB {
	t.Helper()
	telemetry.SetupForTesting(t)

	sqlite, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	// every new connection to :memory: would be a new, empty database
	sqlite.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlite.Close() })

	_, err = sqlite.Exec(db.Schema)
	if err != nil {
		t.Fatal(err)
	}
	return sqlite
}
