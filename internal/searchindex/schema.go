package searchindex

const schemaSQL = `
CREATE TABLE IF NOT EXISTS documents (
	id           INTEGER PRIMARY KEY,
	session_id   TEXT NOT NULL,
	project      TEXT NOT NULL DEFAULT '',
	uuid         TEXT NOT NULL DEFAULT '',
	timestamp    TEXT NOT NULL DEFAULT '',
	message_type TEXT NOT NULL DEFAULT '',
	model        TEXT NOT NULL DEFAULT '',
	tool_name    TEXT NOT NULL DEFAULT '',
	content      TEXT NOT NULL DEFAULT '',
	thinking     TEXT NOT NULL DEFAULT '',
	tool_input   TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_documents_session ON documents(session_id);
CREATE INDEX IF NOT EXISTS idx_documents_project ON documents(project);
CREATE INDEX IF NOT EXISTS idx_documents_model ON documents(model);
CREATE INDEX IF NOT EXISTS idx_documents_tool_name ON documents(tool_name);
CREATE INDEX IF NOT EXISTS idx_documents_message_type ON documents(message_type);

CREATE VIRTUAL TABLE IF NOT EXISTS documents_fts USING fts5(
	content, thinking, tool_input,
	content='documents',
	content_rowid='id',
	tokenize='porter unicode61'
);

CREATE TRIGGER IF NOT EXISTS documents_ai AFTER INSERT ON documents BEGIN
	INSERT INTO documents_fts(rowid, content, thinking, tool_input)
		VALUES (new.id, new.content, new.thinking, new.tool_input);
END;

CREATE TRIGGER IF NOT EXISTS documents_ad AFTER DELETE ON documents BEGIN
	INSERT INTO documents_fts(documents_fts, rowid, content, thinking, tool_input)
		VALUES('delete', old.id, old.content, old.thinking, old.tool_input);
END;

CREATE TRIGGER IF NOT EXISTS documents_au AFTER UPDATE ON documents BEGIN
	INSERT INTO documents_fts(documents_fts, rowid, content, thinking, tool_input)
		VALUES('delete', old.id, old.content, old.thinking, old.tool_input);
	INSERT INTO documents_fts(rowid, content, thinking, tool_input)
		VALUES (new.id, new.content, new.thinking, new.tool_input);
END;
`

// schemaVersion is recorded in meta.json so a future incompatible
// schema change can be detected on open rather than producing
// confusing query errors.
const schemaVersion = 1
