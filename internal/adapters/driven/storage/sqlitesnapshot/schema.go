package sqlitesnapshot

import "database/sql"

const schema = `
CREATE TABLE IF NOT EXISTS libraries (
    id TEXT PRIMARY KEY,
    name TEXT,
    description TEXT,
    dimension INTEGER,
    kind TEXT,
    params TEXT,
    is_indexed INTEGER,
    created_at TEXT,
    updated_at TEXT
);

CREATE TABLE IF NOT EXISTS documents (
    id TEXT PRIMARY KEY,
    library_id TEXT,
    name TEXT,
    metadata TEXT,
    created_at TEXT,
    updated_at TEXT
);

CREATE TABLE IF NOT EXISTS chunks (
    id TEXT PRIMARY KEY,
    document_id TEXT,
    content TEXT,
    metadata TEXT,
    embedding BLOB,
    created_at TEXT,
    updated_at TEXT
);
`

// EnsureSchema creates the libraries/documents/chunks tables in db if they
// do not already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
