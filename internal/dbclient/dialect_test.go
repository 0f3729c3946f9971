package dbclient

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"jsonload/internal/domain"
)

func TestDialectQuote(t *testing.T) {
	assert.Equal(t, `"plain"`, sqliteDialect.quote("plain"))
	assert.Equal(t, `"say ""hi"""`, postgresDialect.quote(`say "hi"`))
	assert.Equal(t, "`a``b`", mysqlDialect.quote("a`b"))
}

func TestDialectCreateTableSQL(t *testing.T) {
	cols := []domain.Column{
		{Name: "id", Type: domain.ColTypeInteger},
		{Name: "score", Type: domain.ColTypeFloat},
		{Name: "ok", Type: domain.ColTypeBoolean},
		{Name: "note", Type: domain.ColTypeNull},
	}

	assert.Equal(t,
		`CREATE TABLE "t" ("id" INTEGER, "score" REAL, "ok" BOOLEAN, "note" TEXT)`,
		sqliteDialect.createTableSQL("t", cols))
	assert.Equal(t,
		`CREATE TABLE "t" ("id" BIGINT, "score" DOUBLE PRECISION, "ok" BOOLEAN, "note" TEXT)`,
		postgresDialect.createTableSQL("t", cols))
	assert.Equal(t,
		"CREATE TABLE `t` (`id` BIGINT, `score` DOUBLE, `ok` BOOLEAN, `note` TEXT)",
		mysqlDialect.createTableSQL("t", cols))
}

func TestDialectInsertSQL(t *testing.T) {
	cols := []domain.Column{{Name: "x"}, {Name: "y"}}

	assert.Equal(t, `INSERT INTO "t" ("x", "y") VALUES (?, ?)`, sqliteDialect.insertSQL("t", cols))
	assert.Equal(t, `INSERT INTO "t" ("x", "y") VALUES ($1, $2)`, postgresDialect.insertSQL("t", cols))
	assert.Equal(t, "INSERT INTO `t` (`x`, `y`) VALUES (?, ?)", mysqlDialect.insertSQL("t", cols))

	assert.Equal(t, `INSERT INTO "t" DEFAULT VALUES`, sqliteDialect.insertSQL("t", nil))
	assert.Equal(t, "INSERT INTO `t` () VALUES ()", mysqlDialect.insertSQL("t", nil))
}

func TestDialectDropTableSQL(t *testing.T) {
	assert.Equal(t, `DROP TABLE IF EXISTS "t"`, postgresDialect.dropTableSQL("t"))
}

func TestMissingColumns(t *testing.T) {
	existing := []ColumnInfo{{Name: "X"}, {Name: "y"}}
	want := []domain.Column{{Name: "x"}, {Name: "y"}, {Name: "z"}}

	assert.Equal(t, []string{"z"}, missingColumns(existing, want, true))
	assert.Equal(t, []string{"x", "z"}, missingColumns(existing, want, false))
	assert.Empty(t, missingColumns(existing, nil, false))
}

func TestFoldsColumnNames(t *testing.T) {
	assert.True(t, FoldsColumnNames(domain.DatabaseDriverSQLite))
	assert.True(t, FoldsColumnNames(domain.DatabaseDriverMySQL))
	assert.False(t, FoldsColumnNames(domain.DatabaseDriverPostgres))
	assert.False(t, FoldsColumnNames(domain.DatabaseDriverMongoDB))
}
