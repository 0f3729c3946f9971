package dbclient

import (
	"context"
	"fmt"

	"jsonload/internal/domain"
)

// SchemaInfo lists the tables of a target database.
type SchemaInfo struct {
	Tables []TableInfo `json:"tables"`
}

// TableInfo describes a table/collection.
type TableInfo struct {
	Name    string       `json:"name"`
	Columns []ColumnInfo `json:"columns"`
}

// ColumnInfo describes a column/field as declared by the engine.
type ColumnInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// LoadRequest is one all-or-nothing batch written to a table.
// Each row holds one value per column, in Columns order; nil is NULL.
type LoadRequest struct {
	Table   string
	Columns []domain.Column
	Rows    [][]any
	Replace bool // drop and recreate the table before inserting
}

// Connector abstracts writing to a target database.
type Connector interface {
	// TestConnection verifies connectivity, creating the database file if needed.
	TestConnection(ctx context.Context) error

	// Load creates the table if absent and inserts all rows in one transaction.
	// It returns the number of rows written. On any error nothing is written.
	Load(ctx context.Context, req LoadRequest) (int, error)

	// DescribeTable returns the declared columns of a table, or nil if it does not exist.
	DescribeTable(ctx context.Context, table string) (*TableInfo, error)

	// Introspect returns every table with its columns.
	Introspect(ctx context.Context) (*SchemaInfo, error)

	// Close releases the connection.
	Close() error
}

// NewConnector creates a Connector for the given target.
func NewConnector(target domain.DatabaseTarget) (Connector, error) {
	switch target.Driver {
	case domain.DatabaseDriverSQLite:
		return newSQLiteConnector(target)
	case domain.DatabaseDriverMySQL:
		dsn, err := buildMySQLDSN(target.DSN)
		if err != nil {
			return nil, err
		}
		return newSQLConnector(mysqlDialect, target, dsn)
	case domain.DatabaseDriverPostgres:
		return newSQLConnector(postgresDialect, target, target.DSN)
	case domain.DatabaseDriverMongoDB:
		return newMongoConnector(target)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", target.Driver)
	}
}

// FoldsColumnNames reports whether the driver treats column names that
// differ only in case as the same column.
func FoldsColumnNames(driver domain.DatabaseDriver) bool {
	switch driver {
	case domain.DatabaseDriverSQLite:
		return sqliteDialect.foldNames
	case domain.DatabaseDriverMySQL:
		return mysqlDialect.foldNames
	case domain.DatabaseDriverPostgres:
		return postgresDialect.foldNames
	default:
		return false
	}
}

// missingColumns returns the names in want that existing does not declare.
func missingColumns(existing []ColumnInfo, want []domain.Column, fold bool) []string {
	have := make(map[string]bool, len(existing))
	for _, c := range existing {
		have[normalizeName(c.Name, fold)] = true
	}
	var missing []string
	for _, c := range want {
		if !have[normalizeName(c.Name, fold)] {
			missing = append(missing, c.Name)
		}
	}
	return missing
}
