package export

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // cgo driver "sqlite3"
	_ "modernc.org/sqlite"          // pure Go driver "sqlite"

	"synesis-hq/synesis/pkg/config"
	"synesis-hq/synesis/pkg/telemetry/logging"
)

// Driver names accepted by OpenStore.
const (
	DriverModernC = "sqlite"
	DriverCGo     = "sqlite3"
)

// Store keeps compilation runs in a SQLite database, one row set per
// compilation ID.
type Store struct {
	db     *sql.DB
	config config.SQLiteConfig
	logger *slog.Logger
}

// OpenStore opens or creates the run store described by cfg.
func OpenStore(ctx context.Context, cfg *config.SQLiteConfig, logger *slog.Logger) (*Store, error) {
	c := *cfg
	if c.Driver == "" {
		c.Driver = config.DefaultSQLiteDriver
	}
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = config.DefaultSQLiteMaxOpenConns
	}
	if logger == nil {
		logger = logging.Discard()
	}
	if c.Path == "" {
		return nil, NewStorageError(c.Driver, "open", fmt.Errorf("database path is empty"))
	}

	if dir := filepath.Dir(c.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, NewStorageError(c.Driver, "open", err)
		}
	}

	db, err := sql.Open(c.Driver, dataSourceName(&c))
	if err != nil {
		return nil, NewStorageError(c.Driver, "open", err)
	}
	db.SetMaxOpenConns(c.MaxOpenConns)
	db.SetMaxIdleConns(c.MaxOpenConns)

	s := &Store{
		db:     db,
		config: c,
		logger: logger.With("component", "export.sqlite"),
	}
	if err := s.initialize(ctx); err != nil {
		db.Close()
		return nil, err
	}

	s.logger.Debug("run store opened",
		"path", c.Path,
		"driver", c.Driver,
		"wal_mode", c.WALMode)
	return s, nil
}

// dataSourceName builds the DSN with the pragmas each driver understands,
// so that every pooled connection gets them.
func dataSourceName(c *config.SQLiteConfig) string {
	busy := c.BusyTimeout.Milliseconds()
	var params []string
	switch c.Driver {
	case DriverCGo:
		params = append(params, fmt.Sprintf("_busy_timeout=%d", busy), "_foreign_keys=1")
		if c.WALMode {
			params = append(params, "_journal_mode=WAL")
		}
	default:
		params = append(params, fmt.Sprintf("_pragma=busy_timeout(%d)", busy), "_pragma=foreign_keys(1)")
		if c.WALMode {
			params = append(params, "_pragma=journal_mode(WAL)")
		}
	}
	return "file:" + c.Path + "?" + strings.Join(params, "&")
}

// initialize sets the pragmas and creates the schema.
func (s *Store) initialize(ctx context.Context) error {
	if s.config.WALMode {
		if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
			return NewStorageError(s.config.Driver, "enable_wal", err)
		}
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout=%d;", s.config.BusyTimeout.Milliseconds())); err != nil {
		return NewStorageError(s.config.Driver, "set_busy_timeout", err)
	}

	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return NewStorageError(s.config.Driver, "create_schema", err)
	}
	if _, err := s.db.ExecContext(ctx, InsertSchemaVersion, SchemaVersion, time.Now().UnixMilli()); err != nil {
		return NewStorageError(s.config.Driver, "insert_schema_version", err)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, GetSchemaVersion).Scan(&version); err != nil {
		return NewStorageError(s.config.Driver, "get_schema_version", err)
	}
	if version != SchemaVersion {
		return NewStorageError(s.config.Driver, "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}
	return nil
}

// Save stores snap in one transaction.
func (s *Store) Save(ctx context.Context, snap *Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return NewStorageError(s.config.Driver, "begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	r := snap.Run
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (
			id, project, started_at, duration_ms, status, strict,
			sources, items, concepts, codes, chains, triples,
			errors, warnings, infos
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Project, r.StartedAt.UnixMilli(), r.DurationMS, r.Status, r.Strict,
		r.Stats.Sources, r.Stats.Items, r.Stats.Concepts, r.Stats.Codes, r.Stats.Chains, r.Stats.Triples,
		r.Stats.Errors, r.Stats.Warnings, r.Stats.Infos)
	if err != nil {
		return NewStorageError(s.config.Driver, "store_run", err)
	}

	insert := func(op, query string, rows [][]any) error {
		if len(rows) == 0 {
			return nil
		}
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return NewStorageError(s.config.Driver, op, err)
		}
		defer stmt.Close()
		for _, row := range rows {
			if _, err := stmt.ExecContext(ctx, append([]any{r.ID}, row...)...); err != nil {
				return NewStorageError(s.config.Driver, op, err)
			}
		}
		return nil
	}

	var sources, items, codes, relations, diags [][]any
	for _, x := range snap.Sources {
		sources = append(sources, []any{x.Key, x.Bibref, x.Citation, x.EntryType, x.Entry["title"], x.Items, x.Position.File, x.Position.Line})
	}
	for _, x := range snap.Items {
		items = append(items, []any{
			x.Seq, x.SourceKey, x.Bibref, x.Nested, x.Quote,
			strings.Join(x.Codes, listSeparator), strings.Join(x.Memos, listSeparator), strings.Join(x.Chains, listSeparator),
			x.Position.File, x.Position.Line,
		})
	}
	for _, x := range snap.Codes {
		codes = append(codes, []any{x.Code, x.Count, x.Items, x.Defined})
	}
	for _, x := range snap.Relations {
		relations = append(relations, []any{x.Seq, x.From, x.Relation, x.To, x.Field, x.Bibref, x.Qualified, x.Position.File, x.Position.Line})
	}
	for _, x := range snap.Diagnostics {
		diags = append(diags, []any{x.Seq, x.Severity, x.Kind, x.Position.File, x.Position.Line, x.Position.Column, x.Message, x.Suggestion})
	}

	steps := []struct {
		op, query string
		rows      [][]any
	}{
		{"store_sources", `INSERT INTO sources (run_id, key, bibref, citation, entry_type, title, items, file, line)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, sources},
		{"store_items", `INSERT INTO items (run_id, seq, source_key, bibref, nested, quote, codes, memos, chains, file, line)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, items},
		{"store_codes", `INSERT INTO codes (run_id, code, count, items, defined)
			VALUES (?, ?, ?, ?, ?)`, codes},
		{"store_relations", `INSERT INTO relations (run_id, seq, from_concept, relation, to_concept, field, bibref, qualified, file, line)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, relations},
		{"store_diagnostics", `INSERT INTO diagnostics (run_id, seq, severity, kind, file, line, col, message, suggestion)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, diags},
	}
	for _, st := range steps {
		if err := insert(st.op, st.query, st.rows); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return NewStorageError(s.config.Driver, "commit", err)
	}
	s.logger.DebugContext(ctx, "run stored", "run_id", r.ID, "items", len(snap.Items))
	return nil
}

// Runs returns the stored runs of project, newest first. An empty project
// selects every run; limit <= 0 means no limit.
func (s *Store) Runs(ctx context.Context, project string, limit int) ([]RunRecord, error) {
	query := `SELECT id, project, started_at, duration_ms, status, strict,
		sources, items, concepts, codes, chains, triples, errors, warnings, infos
		FROM runs`
	var args []any
	if project != "" {
		query += " WHERE project = ?"
		args = append(args, project)
	}
	query += " ORDER BY started_at DESC, id"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, NewStorageError(s.config.Driver, "query_runs", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var r RunRecord
		var started int64
		err := rows.Scan(&r.ID, &r.Project, &started, &r.DurationMS, &r.Status, &r.Strict,
			&r.Stats.Sources, &r.Stats.Items, &r.Stats.Concepts, &r.Stats.Codes, &r.Stats.Chains, &r.Stats.Triples,
			&r.Stats.Errors, &r.Stats.Warnings, &r.Stats.Infos)
		if err != nil {
			return nil, NewStorageError(s.config.Driver, "scan_run", err)
		}
		r.StartedAt = time.UnixMilli(started).UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStorageError(s.config.Driver, "query_runs", err)
	}
	return out, nil
}

// Prune deletes every run started before cutoff together with its rows and
// returns the number of runs deleted.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, NewStorageError(s.config.Driver, "begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	ms := cutoff.UnixMilli()
	for _, table := range childTables {
		query := fmt.Sprintf("DELETE FROM %s WHERE run_id IN (SELECT id FROM runs WHERE started_at < ?)", table)
		if _, err := tx.ExecContext(ctx, query, ms); err != nil {
			return 0, NewStorageError(s.config.Driver, "prune_"+table, err)
		}
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM runs WHERE started_at < ?", ms)
	if err != nil {
		return 0, NewStorageError(s.config.Driver, "prune_runs", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, NewStorageError(s.config.Driver, "prune_runs", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, NewStorageError(s.config.Driver, "commit", err)
	}
	return n, nil
}

// Count returns the number of rows of table belonging to runID.
func (s *Store) Count(ctx context.Context, table, runID string) (int, error) {
	known := table == "runs"
	for _, t := range childTables {
		known = known || t == table
	}
	if !known {
		return 0, NewStorageError(s.config.Driver, "count", fmt.Errorf("unknown table %q", table))
	}

	column := "run_id"
	if table == "runs" {
		column = "id"
	}
	var n int
	err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = ?", table, column), runID).Scan(&n)
	if err != nil {
		return 0, NewStorageError(s.config.Driver, "count", err)
	}
	return n, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
