package dbclient

import (
	"net/url"
	"os"
	"path/filepath"

	"jsonload/internal/domain"

	_ "modernc.org/sqlite"
)

// newSQLiteConnector creates a connector for a local SQLite file.
// The parent directory is created; the file itself appears on first connect.
func newSQLiteConnector(target domain.DatabaseTarget) (*sqlConnector, error) {
	if dir := filepath.Dir(target.DSN); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &domain.IOError{Target: target.String(), Op: "create db directory", Err: err}
		}
	}
	return newSQLConnector(sqliteDialect, target, sqliteDSN(target.DSN))
}

// sqliteDSN builds a file: URI for path. The path is percent-encoded so
// '?', '#' and '%' in file names reach SQLite intact.
func sqliteDSN(path string) string {
	return "file:" + (&url.URL{Path: path}).EscapedPath() + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}
