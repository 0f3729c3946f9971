package domain

// ColumnType is the logical type inferred for a loaded column.
type ColumnType string

const (
	ColTypeInteger ColumnType = "integer"
	ColTypeFloat   ColumnType = "float"
	ColTypeText    ColumnType = "text"
	ColTypeBoolean ColumnType = "boolean"
	// ColTypeNull marks a column that only ever held null. It is declared as text.
	ColTypeNull ColumnType = "null"
)

// Column is a named, typed column of a target table.
type Column struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// DefaultKeyColumn names the column used when a table must be created
// without any inferred columns.
const DefaultKeyColumn = "record_id"
