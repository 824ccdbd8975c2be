package sqlite

// schema is applied in full against a fresh database and is itself
// idempotent (every statement uses IF NOT EXISTS); forward changes to
// an existing database are handled by migrations.go instead of by
// editing this string, mirroring the teacher's schema.go +
// migrations.go split.
const schema = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER NOT NULL
);
INSERT INTO schema_version (version)
    SELECT 0 WHERE NOT EXISTS (SELECT 1 FROM schema_version);

CREATE TABLE IF NOT EXISTS projects (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    repo_path TEXT NOT NULL UNIQUE,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL,
    kind TEXT NOT NULL DEFAULT 'manual',
    started_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    last_activity_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    ended_at DATETIME,
    total_turns INTEGER NOT NULL DEFAULT 0,
    title TEXT DEFAULT '',
    summary TEXT DEFAULT '',
    metadata TEXT DEFAULT '{}',
    FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_sessions_project ON sessions(project_id);
CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at);
-- Partial index used to resolve get_current_session: the one row per
-- project with ended_at IS NULL, ordered by started_at DESC.
CREATE INDEX IF NOT EXISTS idx_sessions_active ON sessions(project_id, started_at) WHERE ended_at IS NULL;

CREATE TABLE IF NOT EXISTS turns (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL,
    turn_number INTEGER NOT NULL,
    user_message TEXT NOT NULL DEFAULT '',
    assistant_summary TEXT NOT NULL DEFAULT '',
    tools_used TEXT NOT NULL DEFAULT '[]',
    files_touched TEXT NOT NULL DEFAULT '[]',
    status TEXT NOT NULL DEFAULT 'in_progress',
    content_hash TEXT DEFAULT '',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(session_id, turn_number),
    FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id);
CREATE INDEX IF NOT EXISTS idx_turns_status ON turns(session_id, status);
CREATE INDEX IF NOT EXISTS idx_turns_created_at ON turns(created_at);

CREATE TABLE IF NOT EXISTS turn_content (
    turn_id TEXT NOT NULL UNIQUE,
    content_path TEXT NOT NULL,
    size_bytes INTEGER NOT NULL DEFAULT 0,
    content_hash TEXT NOT NULL,
    FOREIGN KEY (turn_id) REFERENCES turns(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS checkpoints (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL,
    commit_hash TEXT NOT NULL,
    branch TEXT DEFAULT '',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    diff_summary TEXT DEFAULT '',
    files_snapshot TEXT DEFAULT '{}',
    metadata TEXT DEFAULT '{}',
    FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_checkpoints_session ON checkpoints(session_id);
CREATE INDEX IF NOT EXISTS idx_checkpoints_commit ON checkpoints(commit_hash);
CREATE INDEX IF NOT EXISTS idx_checkpoints_created_at ON checkpoints(created_at);

CREATE TABLE IF NOT EXISTS attributions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    file_path TEXT NOT NULL,
    start_line INTEGER NOT NULL,
    end_line INTEGER NOT NULL,
    checkpoint_id TEXT NOT NULL,
    kind TEXT NOT NULL,
    agent_id TEXT DEFAULT '',
    confidence REAL,
    CHECK (start_line <= end_line),
    FOREIGN KEY (checkpoint_id) REFERENCES checkpoints(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_attributions_file ON attributions(file_path, start_line, end_line);
CREATE INDEX IF NOT EXISTS idx_attributions_checkpoint ON attributions(checkpoint_id);

CREATE TABLE IF NOT EXISTS agents (
    id TEXT PRIMARY KEY,
    agent_type TEXT NOT NULL DEFAULT '',
    display_name TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS futures_assessments (
    id TEXT PRIMARY KEY,
    verdict TEXT NOT NULL,
    impact_summary TEXT DEFAULT '',
    roadmap_alignment TEXT DEFAULT '',
    suggestion TEXT DEFAULT '',
    feedback TEXT DEFAULT '',
    feedback_reason TEXT DEFAULT '',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Lightweight audit trail of notable hook-dispatched occurrences,
-- giving the "event" search target (spec.md §4.6) something concrete
-- to query, in the spirit of the teacher's issues "events" table.
CREATE TABLE IF NOT EXISTS events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL,
    event_type TEXT NOT NULL,
    summary TEXT DEFAULT '',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_events_session ON events(session_id);
CREATE INDEX IF NOT EXISTS idx_events_created_at ON events(created_at);

-- Config table backing 'ec config' key/value overrides not already
-- captured by the structured config.toml sections.
CREATE TABLE IF NOT EXISTS config (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

-- Internal bookkeeping (e.g. last FTS rebuild time, ingest dedup keys).
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

-- fts_turns / fts_sessions are external-content FTS5 tables: the index
-- lives alongside turns/sessions but the canonical text stays in the
-- base tables (content='turns', content='sessions'). Triggers below
-- keep them synchronized on every insert/update/delete, per spec.md
-- §4.1 and §9 ("do not replace with application-side dual-writes").
CREATE VIRTUAL TABLE IF NOT EXISTS fts_turns USING fts5(
    user_message,
    assistant_summary,
    content='turns',
    content_rowid='rowid'
);

CREATE TRIGGER IF NOT EXISTS trg_turns_ai AFTER INSERT ON turns BEGIN
    INSERT INTO fts_turns(rowid, user_message, assistant_summary)
    VALUES (new.rowid, new.user_message, new.assistant_summary);
END;

CREATE TRIGGER IF NOT EXISTS trg_turns_ad AFTER DELETE ON turns BEGIN
    INSERT INTO fts_turns(fts_turns, rowid, user_message, assistant_summary)
    VALUES ('delete', old.rowid, old.user_message, old.assistant_summary);
END;

CREATE TRIGGER IF NOT EXISTS trg_turns_au AFTER UPDATE ON turns BEGIN
    INSERT INTO fts_turns(fts_turns, rowid, user_message, assistant_summary)
    VALUES ('delete', old.rowid, old.user_message, old.assistant_summary);
    INSERT INTO fts_turns(rowid, user_message, assistant_summary)
    VALUES (new.rowid, new.user_message, new.assistant_summary);
END;

CREATE VIRTUAL TABLE IF NOT EXISTS fts_sessions USING fts5(
    title,
    summary,
    content='sessions',
    content_rowid='rowid'
);

CREATE TRIGGER IF NOT EXISTS trg_sessions_ai AFTER INSERT ON sessions BEGIN
    INSERT INTO fts_sessions(rowid, title, summary)
    VALUES (new.rowid, new.title, new.summary);
END;

CREATE TRIGGER IF NOT EXISTS trg_sessions_ad AFTER DELETE ON sessions BEGIN
    INSERT INTO fts_sessions(fts_sessions, rowid, title, summary)
    VALUES ('delete', old.rowid, old.title, old.summary);
END;

CREATE TRIGGER IF NOT EXISTS trg_sessions_au AFTER UPDATE ON sessions BEGIN
    INSERT INTO fts_sessions(fts_sessions, rowid, title, summary)
    VALUES ('delete', old.rowid, old.title, old.summary);
    INSERT INTO fts_sessions(rowid, title, summary)
    VALUES (new.rowid, new.title, new.summary);
END;
`
