package database

import (
	"context"
	"fmt"
)

// SchemaColumn describes one column of a table, as reported by
// information_schema rather than derived from a live result set.
type SchemaColumn struct {
	Name         string
	DataType     string
	Nullable     bool
	DefaultValue *string
	MaxLength    *int
	PrimaryKey   bool
	Unique       bool
}

// SchemaTable is a table's full column layout.
type SchemaTable struct {
	Schema  string
	Name    string
	Columns []SchemaColumn
}

// ForeignKey is one foreign-key relationship between two tables.
type ForeignKey struct {
	Name       string
	FromTable  string
	FromColumn string
	ToTable    string
	ToColumn   string
}

// ListTables returns the base table names in schema, alphabetically.
func ListTables(ctx context.Context, p *Pool, schema string) ([]string, error) {
	const q = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = ?
		  AND table_type = 'BASE TABLE'
		ORDER BY table_name`

	rows, err := p.Query(ctx, q, schema)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	if err := rows.Ready(); err != nil {
		return nil, err
	}

	var tables []string
	for row := range rows.All() {
		name, _ := row.ByOrdinal(0)
		tables = append(tables, asString(name))
	}
	return tables, rows.Err()
}

// TableExists reports whether schema.table exists.
func TableExists(ctx context.Context, p *Pool, schema, table string) (bool, error) {
	const q = `
		SELECT COUNT(*) > 0
		FROM information_schema.tables
		WHERE table_schema = ? AND table_name = ?`

	row, err := p.QueryRow(ctx, q, schema, table)
	if err != nil {
		return false, fmt.Errorf("table exists: %w", err)
	}
	if row == nil {
		return false, nil
	}
	v, _ := row.ByOrdinal(0)
	return asBool(v), nil
}

// InspectTable returns schema.table's column layout.
func InspectTable(ctx context.Context, p *Pool, schema, table string) (*SchemaTable, error) {
	const q = `
		SELECT
			c.column_name,
			c.data_type,
			c.is_nullable = 'YES' AS is_nullable,
			c.column_default,
			c.character_maximum_length,
			(c.column_key = 'PRI') AS is_primary_key,
			(c.column_key = 'UNI') AS is_unique
		FROM information_schema.columns c
		WHERE c.table_schema = ? AND c.table_name = ?
		ORDER BY c.ordinal_position`

	rows, err := p.Query(ctx, q, schema, table)
	if err != nil {
		return nil, fmt.Errorf("inspect table %s.%s: %w", schema, table, err)
	}
	defer rows.Close()

	if err := rows.Ready(); err != nil {
		return nil, err
	}

	info := &SchemaTable{Schema: schema, Name: table}
	for row := range rows.All() {
		name, _ := row.ByOrdinal(0)
		dataType, _ := row.ByOrdinal(1)
		nullable, _ := row.ByOrdinal(2)
		defaultVal, _ := row.ByOrdinal(3)
		maxLen, _ := row.ByOrdinal(4)
		isPK, _ := row.ByOrdinal(5)
		isUnique, _ := row.ByOrdinal(6)

		col := SchemaColumn{
			Name:       asString(name),
			DataType:   asString(dataType),
			Nullable:   asBool(nullable),
			PrimaryKey: asBool(isPK),
			Unique:     asBool(isUnique),
		}
		if s, ok := asStringPtr(defaultVal); ok {
			col.DefaultValue = s
		}
		if n, ok := asIntPtr(maxLen); ok {
			col.MaxLength = n
		}
		info.Columns = append(info.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(info.Columns) == 0 {
		return nil, fmt.Errorf("table %s.%s not found or has no columns", schema, table)
	}
	return info, nil
}

// ListForeignKeys returns every foreign-key relationship declared in schema.
func ListForeignKeys(ctx context.Context, p *Pool, schema string) ([]ForeignKey, error) {
	const q = `
		SELECT
			rc.constraint_name,
			kcu.table_name,
			kcu.column_name,
			kcu.referenced_table_name,
			kcu.referenced_column_name
		FROM information_schema.referential_constraints rc
		JOIN information_schema.key_column_usage kcu
			ON rc.constraint_name = kcu.constraint_name
			AND rc.constraint_schema = kcu.table_schema
		WHERE rc.constraint_schema = ?
		ORDER BY rc.constraint_name`

	rows, err := p.Query(ctx, q, schema)
	if err != nil {
		return nil, fmt.Errorf("list foreign keys: %w", err)
	}
	defer rows.Close()

	if err := rows.Ready(); err != nil {
		return nil, err
	}

	var fks []ForeignKey
	for row := range rows.All() {
		name, _ := row.ByOrdinal(0)
		fromTable, _ := row.ByOrdinal(1)
		fromColumn, _ := row.ByOrdinal(2)
		toTable, _ := row.ByOrdinal(3)
		toColumn, _ := row.ByOrdinal(4)
		fks = append(fks, ForeignKey{
			Name:       asString(name),
			FromTable:  asString(fromTable),
			FromColumn: asString(fromColumn),
			ToTable:    asString(toTable),
			ToColumn:   asString(toColumn),
		})
	}
	return fks, rows.Err()
}

// asString coerces a driver value to a string. go-sql-driver/mysql returns
// []byte rather than string for most textual columns when scanned into an
// interface{} destination.
func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}

func asStringPtr(v any) (*string, bool) {
	if v == nil {
		return nil, false
	}
	s := asString(v)
	return &s, true
}

func asBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case int64:
		return t != 0
	case []byte:
		return len(t) == 1 && t[0] != '0'
	default:
		return false
	}
}

func asIntPtr(v any) (*int, bool) {
	if v == nil {
		return nil, false
	}
	switch t := v.(type) {
	case int64:
		n := int(t)
		return &n, true
	case []byte:
		var n int
		if _, err := fmt.Sscanf(string(t), "%d", &n); err == nil {
			return &n, true
		}
	}
	return nil, false
}
