package dbclient

import (
	"fmt"
	"strings"

	"jsonload/internal/domain"
)

// dialect captures the SQL differences between the supported engines.
type dialect struct {
	driverName string
	quoteChar  string
	numbered   bool // $1, $2 placeholders instead of ?
	foldNames  bool // column names compare case-insensitively
	types      map[domain.ColumnType]string

	// describeSQL lists (name, type) of a table's columns; one placeholder for the table name.
	describeSQL string
	// listTablesSQL lists the user tables of the current database.
	listTablesSQL string
	// defaultRowSQL inserts one all-default row; %s is the quoted table name.
	defaultRowSQL string
}

func (d dialect) quote(ident string) string {
	return d.quoteChar + strings.ReplaceAll(ident, d.quoteChar, d.quoteChar+d.quoteChar) + d.quoteChar
}

func (d dialect) placeholder(i int) string {
	if d.numbered {
		return fmt.Sprintf("$%d", i+1)
	}
	return "?"
}

func (d dialect) columnType(t domain.ColumnType) string {
	if s, ok := d.types[t]; ok {
		return s
	}
	return d.types[domain.ColTypeText]
}

func (d dialect) createTableSQL(table string, cols []domain.Column) string {
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = d.quote(c.Name) + " " + d.columnType(c.Type)
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", d.quote(table), strings.Join(defs, ", "))
}

func (d dialect) dropTableSQL(table string) string {
	return "DROP TABLE IF EXISTS " + d.quote(table)
}

func (d dialect) insertSQL(table string, cols []domain.Column) string {
	if len(cols) == 0 {
		return fmt.Sprintf(d.defaultRowSQL, d.quote(table))
	}
	names := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, c := range cols {
		names[i] = d.quote(c.Name)
		marks[i] = d.placeholder(i)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.quote(table), strings.Join(names, ", "), strings.Join(marks, ", "))
}

func normalizeName(name string, fold bool) string {
	if fold {
		return strings.ToLower(name)
	}
	return name
}

var sqliteDialect = dialect{
	driverName: "sqlite",
	quoteChar:  `"`,
	foldNames:  true,
	types: map[domain.ColumnType]string{
		domain.ColTypeInteger: "INTEGER",
		domain.ColTypeFloat:   "REAL",
		domain.ColTypeText:    "TEXT",
		domain.ColTypeBoolean: "BOOLEAN",
		domain.ColTypeNull:    "TEXT",
	},
	describeSQL:   `SELECT name, type FROM pragma_table_info(?) ORDER BY cid`,
	listTablesSQL: `SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name`,
	defaultRowSQL: "INSERT INTO %s DEFAULT VALUES",
}

var postgresDialect = dialect{
	driverName: "postgres",
	quoteChar:  `"`,
	numbered:   true,
	types: map[domain.ColumnType]string{
		domain.ColTypeInteger: "BIGINT",
		domain.ColTypeFloat:   "DOUBLE PRECISION",
		domain.ColTypeText:    "TEXT",
		domain.ColTypeBoolean: "BOOLEAN",
		domain.ColTypeNull:    "TEXT",
	},
	describeSQL: `SELECT column_name, data_type FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1
		ORDER BY ordinal_position`,
	listTablesSQL: `SELECT table_name FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
		ORDER BY table_name`,
	defaultRowSQL: "INSERT INTO %s DEFAULT VALUES",
}

var mysqlDialect = dialect{
	driverName: "mysql",
	quoteChar:  "`",
	foldNames:  true,
	types: map[domain.ColumnType]string{
		domain.ColTypeInteger: "BIGINT",
		domain.ColTypeFloat:   "DOUBLE",
		domain.ColTypeText:    "TEXT",
		domain.ColTypeBoolean: "BOOLEAN",
		domain.ColTypeNull:    "TEXT",
	},
	describeSQL: `SELECT COLUMN_NAME, DATA_TYPE FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION`,
	listTablesSQL: `SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME`,
	defaultRowSQL: "INSERT INTO %s () VALUES ()",
}
