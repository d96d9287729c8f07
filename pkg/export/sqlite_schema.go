package export

// SchemaVersion is the current run store schema version.
const SchemaVersion = 1

// Schema contains the SQL statements that create the run store. Every
// table is keyed by the compilation ID of the run it belongs to.
const Schema = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    project TEXT NOT NULL,
    started_at INTEGER NOT NULL,
    duration_ms INTEGER NOT NULL,
    status TEXT NOT NULL,
    strict BOOLEAN NOT NULL,
    sources INTEGER NOT NULL,
    items INTEGER NOT NULL,
    concepts INTEGER NOT NULL,
    codes INTEGER NOT NULL,
    chains INTEGER NOT NULL,
    triples INTEGER NOT NULL,
    errors INTEGER NOT NULL,
    warnings INTEGER NOT NULL,
    infos INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS sources (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    key TEXT NOT NULL,
    bibref TEXT NOT NULL,
    citation TEXT,
    entry_type TEXT,
    title TEXT,
    items INTEGER NOT NULL,
    file TEXT,
    line INTEGER
);

CREATE TABLE IF NOT EXISTS items (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    seq INTEGER NOT NULL,
    source_key TEXT,
    bibref TEXT,
    nested BOOLEAN NOT NULL,
    quote TEXT,
    codes TEXT,
    memos TEXT,
    chains TEXT,
    file TEXT,
    line INTEGER,
    PRIMARY KEY (run_id, seq)
);

CREATE TABLE IF NOT EXISTS codes (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    code TEXT NOT NULL,
    count INTEGER NOT NULL,
    items INTEGER NOT NULL,
    defined BOOLEAN NOT NULL,
    PRIMARY KEY (run_id, code)
);

CREATE TABLE IF NOT EXISTS relations (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    seq INTEGER NOT NULL,
    from_concept TEXT NOT NULL,
    relation TEXT NOT NULL,
    to_concept TEXT NOT NULL,
    field TEXT,
    bibref TEXT,
    qualified BOOLEAN NOT NULL,
    file TEXT,
    line INTEGER,
    PRIMARY KEY (run_id, seq)
);

CREATE TABLE IF NOT EXISTS diagnostics (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    seq INTEGER NOT NULL,
    severity TEXT NOT NULL,
    kind TEXT NOT NULL,
    file TEXT,
    line INTEGER,
    col INTEGER,
    message TEXT NOT NULL,
    suggestion TEXT,
    PRIMARY KEY (run_id, seq)
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
CREATE INDEX IF NOT EXISTS idx_runs_project ON runs(project);
CREATE INDEX IF NOT EXISTS idx_sources_run ON sources(run_id, key);
CREATE INDEX IF NOT EXISTS idx_relations_from ON relations(run_id, from_concept);
CREATE INDEX IF NOT EXISTS idx_diagnostics_kind ON diagnostics(run_id, kind);
`

// InsertSchemaVersion records the schema version.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, ?)
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

// childTables are deleted before their runs when pruning.
var childTables = []string{"sources", "items", "codes", "relations", "diagnostics"}
