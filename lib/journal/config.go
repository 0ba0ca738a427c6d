package journal

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	"pfetracker/lib/journal/db"
)

// Config selects where runs are journaled. With Url set the journal lives
// in a remote libsql database, otherwise in the sqlite file at File.
// Leaving both empty disables the journal.
type Config struct {
	File      string `json:"file"`
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

func (c Config) Enabled() bool {
	return c.File != "" || c.Url != ""
}

func (c Config) OpenDB() (*sql.DB, error) {
	var database *sql.DB
	var err error

	if c.Url != "" {
		dsn := c.Url
		if c.AuthToken != "" {
			link, err := url.Parse(c.Url)
			if err != nil {
				return nil, err
			}
			query := link.Query()
			query.Set("authToken", c.AuthToken)
			link.RawQuery = query.Encode()
			dsn = link.String()
		}
		database, err = sql.Open("libsql", dsn)
	} else {
		database, err = sql.Open("sqlite", c.File)
	}
	if err != nil {
		return nil, err
	}

	err = ApplySchema(database)
	if err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

// ApplySchema runs the schema one statement at a time, the remote libsql
// driver does not accept several statements in a single Exec.
func ApplySchema(database *sql.DB) error {
	for _, stmt := range strings.Split(db.Schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		_, err := database.Exec(stmt)
		if err != nil {
			return fmt.Errorf("apply journal schema: %w", err)
		}
	}
	return nil
}
