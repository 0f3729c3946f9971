package dbclient

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"jsonload/internal/domain"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// sqlConnector is the shared implementation for SQLite, Postgres and MySQL.
type sqlConnector struct {
	dialect dialect
	target  domain.DatabaseTarget
	db      *sql.DB
}

// newSQLConnector creates a generic SQL connector.
func newSQLConnector(d dialect, target domain.DatabaseTarget, dsn string) (*sqlConnector, error) {
	db, err := sql.Open(d.driverName, dsn)
	if err != nil {
		return nil, &domain.IOError{Target: target.String(), Op: "open", Err: err}
	}
	// One load at a time; a single writer avoids SQLITE_BUSY and keeps the tx on one conn.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(10 * time.Minute)

	return &sqlConnector{dialect: d, target: target, db: db}, nil
}

func (c *sqlConnector) TestConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := c.db.PingContext(ctx); err != nil {
		return c.ioErr("connect", err)
	}
	return nil
}

func (c *sqlConnector) Load(ctx context.Context, req LoadRequest) (written int, err error) {
	if req.Table == "" {
		return 0, fmt.Errorf("table name is required")
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, c.ioErr("begin", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
			written = 0
		}
	}()

	if req.Replace {
		if _, err := tx.ExecContext(ctx, c.dialect.dropTableSQL(req.Table)); err != nil {
			return 0, c.ioErr("drop table", err)
		}
	}

	existing, err := c.describe(ctx, tx, req.Table)
	if err != nil {
		return 0, err
	}

	if existing == nil {
		cols := req.Columns
		if len(cols) == 0 {
			cols = []domain.Column{{Name: domain.DefaultKeyColumn, Type: domain.ColTypeText}}
		}
		if _, err := tx.ExecContext(ctx, c.dialect.createTableSQL(req.Table, cols)); err != nil {
			return 0, c.ioErr("create table", err)
		}
	} else if missing := missingColumns(existing.Columns, req.Columns, c.dialect.foldNames); len(missing) > 0 {
		return 0, &domain.SchemaMismatchError{Table: req.Table, Missing: missing}
	}

	if len(req.Rows) > 0 {
		stmt, err := tx.PrepareContext(ctx, c.dialect.insertSQL(req.Table, req.Columns))
		if err != nil {
			return 0, c.ioErr("prepare insert", err)
		}
		defer stmt.Close()

		for i, row := range req.Rows {
			if len(row) != len(req.Columns) {
				return 0, fmt.Errorf("row %d: got %d values for %d columns", i, len(row), len(req.Columns))
			}
			if _, err := stmt.ExecContext(ctx, row...); err != nil {
				return 0, c.ioErr(fmt.Sprintf("insert row %d", i), err)
			}
			written++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, c.ioErr("commit", err)
	}
	return written, nil
}

func (c *sqlConnector) DescribeTable(ctx context.Context, table string) (*TableInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	return c.describe(ctx, c.db, table)
}

// describe returns nil when the table has no columns, i.e. does not exist.
func (c *sqlConnector) describe(ctx context.Context, q queryer, table string) (*TableInfo, error) {
	rows, err := q.QueryContext(ctx, c.dialect.describeSQL, table)
	if err != nil {
		return nil, c.ioErr("describe table", err)
	}
	defer rows.Close()

	var cols []ColumnInfo
	for rows.Next() {
		var ci ColumnInfo
		if err := rows.Scan(&ci.Name, &ci.Type); err != nil {
			return nil, c.ioErr("describe table", err)
		}
		cols = append(cols, ci)
	}
	if err := rows.Err(); err != nil {
		return nil, c.ioErr("describe table", err)
	}
	if len(cols) == 0 {
		return nil, nil
	}
	return &TableInfo{Name: table, Columns: cols}, nil
}

func (c *sqlConnector) Introspect(ctx context.Context) (*SchemaInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	rows, err := c.db.QueryContext(ctx, c.dialect.listTablesSQL)
	if err != nil {
		return nil, c.ioErr("list tables", err)
	}
	var tableNames []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			continue
		}
		tableNames = append(tableNames, name)
	}
	rows.Close()

	schema := &SchemaInfo{}
	for _, tbl := range tableNames {
		info, err := c.describe(ctx, c.db, tbl)
		if err != nil || info == nil {
			schema.Tables = append(schema.Tables, TableInfo{Name: tbl})
			continue
		}
		schema.Tables = append(schema.Tables, *info)
	}
	return schema, nil
}

func (c *sqlConnector) Close() error {
	return c.db.Close()
}

func (c *sqlConnector) ioErr(op string, err error) error {
	return &domain.IOError{Target: c.target.String(), Op: op, Err: err}
}
