// Package store implements the server-side persistence backing the
// Queryable dispatch handler (spec §4.F, §6 "Persisted state"): an
// output/status table pair over SQLite, grounded on
// _examples/teranos-QNTX/ats/storage/task_log_store.go's
// database/sql-plus-mattn/go-sqlite3 pattern.
package store

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyhorde/barto-sub000/barto/errors"
	"github.com/rustyhorde/barto-sub000/internal/codec/shared"
)

const schema = `
CREATE TABLE IF NOT EXISTS output (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	uuid       TEXT NOT NULL,
	cmd_name   TEXT NOT NULL,
	bartoc_name TEXT NOT NULL,
	timestamp  TEXT NOT NULL,
	kind       TEXT NOT NULL,
	data       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS status (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	uuid        TEXT NOT NULL,
	cmd_name    TEXT NOT NULL,
	bartoc_name TEXT NOT NULL,
	timestamp   TEXT NOT NULL,
	exit_code   INTEGER NOT NULL,
	success     INTEGER NOT NULL,
	data        TEXT
);

CREATE INDEX IF NOT EXISTS idx_status_bartoc_name ON status(bartoc_name);
CREATE INDEX IF NOT EXISTS idx_status_cmd_name ON status(cmd_name);
`

// Store is the SQLite-backed output/status table pair (spec §3's domain
// stack entry for barto/store).
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and
// applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database %s", path)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, errors.Wrap(err, "failed to apply schema")
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// RecordOutput appends one streamed output line (spec §4.E "Dispatch discipline").
func (s *Store) RecordOutput(bartocName, cmdName string, out shared.Output) error {
	_, err := s.db.Exec(
		`INSERT INTO output (uuid, cmd_name, bartoc_name, timestamp, kind, data) VALUES (?, ?, ?, ?, ?, ?)`,
		out.UUID.String(), cmdName, bartocName, out.Timestamp.Format(time.RFC3339Nano), out.Kind.String(), out.Data,
	)
	return errors.Wrap(err, "failed to record output")
}

// RecordStatus appends one command completion record.
func (s *Store) RecordStatus(bartocName, cmdName string, lo shared.ListOutput) error {
	var data interface{}
	if lo.Data != nil {
		data = *lo.Data
	}
	var ts string
	if lo.Timestamp != nil {
		ts = lo.Timestamp.Format(time.RFC3339Nano)
	} else {
		ts = time.Now().UTC().Format(time.RFC3339Nano)
	}
	_, err := s.db.Exec(
		`INSERT INTO status (uuid, cmd_name, bartoc_name, timestamp, exit_code, success, data) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		"", cmdName, bartocName, ts, lo.ExitCode, lo.Success, data,
	)
	return errors.Wrap(err, "failed to record status")
}

// ListByCommand returns every completion record for cmdName, newest last.
func (s *Store) ListByCommand(cmdName string) ([]shared.ListOutput, error) {
	rows, err := s.db.Query(
		`SELECT timestamp, data, exit_code, success FROM status WHERE cmd_name = ? ORDER BY id ASC`, cmdName,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query status")
	}
	defer rows.Close()

	var out []shared.ListOutput
	for rows.Next() {
		var ts string
		var data sql.NullString
		var lo shared.ListOutput
		if err := rows.Scan(&ts, &data, &lo.ExitCode, &lo.Success); err != nil {
			return nil, errors.Wrap(err, "failed to scan status row")
		}
		if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			t := shared.Timestamp{Time: parsed}
			lo.Timestamp = &t
		}
		if data.Valid {
			v := data.String
			lo.Data = &v
		}
		out = append(out, lo)
	}
	return out, rows.Err()
}

// FailedSince returns up to limit status records whose success flag is 0,
// most recent first.
func (s *Store) FailedSince(limit int) ([]shared.FailedOutput, error) {
	rows, err := s.db.Query(
		`SELECT timestamp, bartoc_name, cmd_name, data, exit_code, success FROM status WHERE success = 0 ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query failed status")
	}
	defer rows.Close()

	var out []shared.FailedOutput
	for rows.Next() {
		var ts, bartocName, cmdName string
		var data sql.NullString
		var fo shared.FailedOutput
		if err := rows.Scan(&ts, &bartocName, &cmdName, &data, &fo.ExitCode, &fo.Success); err != nil {
			return nil, errors.Wrap(err, "failed to scan failed status row")
		}
		if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			t := shared.Timestamp{Time: parsed}
			fo.Timestamp = &t
		}
		bn := bartocName
		fo.BartocName = &bn
		cn := cmdName
		fo.CmdName = &cn
		if data.Valid {
			v := data.String
			fo.Data = &v
		}
		out = append(out, fo)
	}
	return out, rows.Err()
}

// Cleanup deletes status/output rows older than before, returning (removed,
// kept) counts of status rows; deleted output rows are not counted.
func (s *Store) Cleanup(before time.Time) (removed, kept uint64, err error) {
	cutoff := before.UTC().Format(time.RFC3339Nano)
	res, err := s.db.Exec(`DELETE FROM status WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, 0, errors.Wrap(err, "failed to cleanup status")
	}
	n, _ := res.RowsAffected()

	if _, err := s.db.Exec(`DELETE FROM output WHERE timestamp < ?`, cutoff); err != nil {
		return 0, 0, errors.Wrap(err, "failed to cleanup output")
	}

	var remaining int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM status`).Scan(&remaining); err != nil {
		return 0, 0, errors.Wrap(err, "failed to count remaining status rows")
	}
	return uint64(n), uint64(remaining), nil
}
