// Package sqlite implements the repository interfaces on SQLite.
//
// WHY SQLITE, AND WHY modernc.org/sqlite?
// SQLite is embedded — the database is a single file inside the deployment,
// with nothing to install or operate, which fits a single-process backend
// like this one. modernc.org/sqlite is a pure-Go translation of the SQLite
// sources, so there is no CGo: cross-compilation stays trivial and tests can
// run anywhere Go runs against a throwaway database file.
package sqlite

import (
	"database/sql"
	"fmt"

	// Blank import: the driver registers itself with database/sql under the
	// name "sqlite" in its init function.
	_ "modernc.org/sqlite"
)

// DB wraps the sql.DB pool and owns the schema. The repository interfaces
// are implemented by the UserStore and MessageStore views over the same
// pool — one method set per resource keeps the names (Create, GetByID, ...)
// from colliding on a single receiver.
type DB struct {
	conn     *sql.DB
	users    *UserStore
	messages *MessageStore
}

// Users returns the user repository backed by this database.
func (db *DB) Users() *UserStore {
	return db.users
}

// Messages returns the message repository backed by this database.
func (db *DB) Messages() *MessageStore {
	return db.messages
}

// New opens the database at dbPath, configures it, and runs migrations.
//
// PRAGMAS VIA THE DSN:
// database/sql is a connection pool, and a plain `PRAGMA` Exec configures
// only whichever pooled connection ran it. The driver's _pragma DSN options
// apply to every connection the pool opens:
//   - journal_mode(WAL): reads proceed while a write is in flight; default
//     locking would serialize every request in the server
//   - foreign_keys(1): off by default in SQLite; the messages→users
//     reference (with ON DELETE CASCADE) needs it on everywhere
//   - busy_timeout: writers briefly wait on the lock instead of failing
func New(dbPath string) (*DB, error) {
	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		dbPath,
	)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// sql.Open only creates the pool; Ping forces a real connection so a bad
	// path or permission problem surfaces here, not on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn}
	db.users = &UserStore{conn: conn}
	db.messages = &MessageStore{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool. The server defers this on shutdown so
// the WAL is checkpointed and the file lock released.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it idempotent.
//
// The UNIQUE constraints on email and username are a backstop only: the
// service layer enforces uniqueness with an explicit pre-query so it can
// return a proper Conflict error instead of parsing driver error strings.
// The constraint catches whatever races past the pre-check.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			username      TEXT NOT NULL UNIQUE,
			role          TEXT NOT NULL DEFAULT 'user',
			password_hash TEXT NOT NULL,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_login    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
		CREATE INDEX IF NOT EXISTS idx_users_username ON users(username);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// ON DELETE CASCADE: deleting an account takes its messages with it, so
	// account deletion is a single statement and no orphaned rows survive.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS messages (
			id         TEXT PRIMARY KEY,
			sender_id  TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			message    TEXT NOT NULL,
			response   TEXT NOT NULL DEFAULT '',
			collection TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_messages_sender_id ON messages(sender_id);
		CREATE INDEX IF NOT EXISTS idx_messages_collection ON messages(collection);
	`)
	if err != nil {
		return fmt.Errorf("creating messages table: %w", err)
	}

	return nil
}
