package ledger

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"
)

// Entry is one recorded generation.
type Entry struct {
	Seq         int64    `json:"seq"`
	Fingerprint string   `json:"fingerprint"`
	Version     string   `json:"version,omitempty"`
	BuildHash   string   `json:"build_hash,omitempty"`
	Outputs     []Output `json:"outputs,omitempty"`
}

// Output is one file a generation produced.
type Output struct {
	Path    string `json:"path"`
	Written bool   `json:"written"`
}

// Record appends e and returns the entry recorded before it, or nil for
// the first run. e.Seq is ignored; the stored sequence is returned in the
// second result.
func (l *Ledger) Record(ctx context.Context, e Entry) (prev *Entry, seq int64, err error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, errors.Wrap(err, "begin ledger transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	prev, err = latest(ctx, tx)
	if err != nil {
		return nil, 0, err
	}
	seq = 1
	if prev != nil {
		seq = prev.Seq + 1
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO generations (seq, fingerprint, version, build_hash)
		VALUES (?, ?, ?, ?)
	`, seq, e.Fingerprint, e.Version, e.BuildHash); err != nil {
		return nil, 0, errors.Wrap(err, "record generation")
	}
	for _, o := range e.Outputs {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO outputs (generation_seq, path, written)
			VALUES (?, ?, ?)
			ON CONFLICT DO NOTHING
		`, seq, o.Path, o.Written); err != nil {
			return nil, 0, errors.Wrapf(err, "record output %s", o.Path)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, 0, errors.Wrap(err, "commit generation")
	}
	return prev, seq, nil
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Latest returns the most recent entry without outputs, or nil when the
// ledger is empty.
func (l *Ledger) Latest(ctx context.Context) (*Entry, error) {
	return latest(ctx, l.db)
}

func latest(ctx context.Context, q querier) (*Entry, error) {
	var e Entry
	err := q.QueryRowContext(ctx, `
		SELECT seq, fingerprint, version, build_hash
		FROM generations
		ORDER BY seq DESC
		LIMIT 1
	`).Scan(&e.Seq, &e.Fingerprint, &e.Version, &e.BuildHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "query latest generation")
	}
	return &e, nil
}

// History returns up to limit entries, newest first, with their outputs.
// A limit of zero or less returns every entry.
func (l *Ledger) History(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := l.db.QueryContext(ctx, `
		SELECT seq, fingerprint, version, build_hash
		FROM generations
		ORDER BY seq DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query generations")
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Seq, &e.Fingerprint, &e.Version, &e.BuildHash); err != nil {
			return nil, errors.Wrap(err, "scan generation")
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate generations")
	}

	for i := range entries {
		outs, err := l.outputs(ctx, entries[i].Seq)
		if err != nil {
			return nil, err
		}
		entries[i].Outputs = outs
	}
	return entries, nil
}

func (l *Ledger) outputs(ctx context.Context, seq int64) ([]Output, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT path, written
		FROM outputs
		WHERE generation_seq = ?
		ORDER BY path COLLATE BINARY ASC
	`, seq)
	if err != nil {
		return nil, errors.Wrap(err, "query outputs")
	}
	defer rows.Close()

	var outs []Output
	for rows.Next() {
		var o Output
		if err := rows.Scan(&o.Path, &o.Written); err != nil {
			return nil, errors.Wrap(err, "scan output")
		}
		outs = append(outs, o)
	}
	return outs, errors.Wrap(rows.Err(), "iterate outputs")
}

// Drifted reports whether the surface changed between prev and fingerprint.
// The first recorded run never drifts.
func Drifted(prev *Entry, fingerprint string) bool {
	return prev != nil && prev.Fingerprint != fingerprint
}
