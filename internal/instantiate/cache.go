package instantiate

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// CacheStore persists (sourcePath, canonicalArgsKey) -> uname rows
// across process runs in a pure-Go SQLite file, giving spec.md §8
// testable property 8 ("calling complete twice with the same
// (path,args) reuses the same module uname") a durable guarantee
// rather than just an in-process map (SPEC_FULL.md §3 "DOMAIN STACK").
type CacheStore struct {
	db *sql.DB
}

// OpenCache opens (creating if absent) the instantiation cache
// database under cacheDir.
func OpenCache(cacheDir string) (*CacheStore, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("instantiate: cannot create cache dir %s: %w", cacheDir, err)
	}
	path := filepath.Join(cacheDir, "instantiate-cache.sqlite")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("instantiate: opening cache %s: %w", path, err)
	}
	const schema = `
CREATE TABLE IF NOT EXISTS instantiations (
	source_path TEXT NOT NULL,
	args_key    TEXT NOT NULL,
	uname       TEXT NOT NULL,
	PRIMARY KEY (source_path, args_key)
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("instantiate: creating cache schema: %w", err)
	}
	return &CacheStore{db: db}, nil
}

// Lookup returns a previously recorded uname for (sourcePath, argsKey).
func (c *CacheStore) Lookup(sourcePath, argsKey string) (string, bool, error) {
	row := c.db.QueryRow(`SELECT uname FROM instantiations WHERE source_path = ? AND args_key = ?`,
		sourcePath, argsKey)
	var uname string
	if err := row.Scan(&uname); err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, err
	}
	return uname, true, nil
}

// Store records the uname chosen for (sourcePath, argsKey), ignoring a
// later call for the same key (the first writer wins within a run).
func (c *CacheStore) Store(sourcePath, argsKey, uname string) error {
	_, err := c.db.Exec(`INSERT OR IGNORE INTO instantiations (source_path, args_key, uname) VALUES (?, ?, ?)`,
		sourcePath, argsKey, uname)
	return err
}

// Close releases the underlying database handle.
func (c *CacheStore) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}
