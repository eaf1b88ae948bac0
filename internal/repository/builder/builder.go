package builder

import (
	"fmt"
	"strings"
)

type statementKind int

const (
	kindSelect statementKind = iota + 1
	kindInsert
	kindUpdate
	kindDelete
)

// condition is one WHERE fragment written with "?" placeholders. conj is
// the operator joining it to the previous fragment.
type condition struct {
	conj string
	sql  string
	args []interface{}
}

// SQLBuilder helps construct Postgres queries dynamically. Fragments are
// written with "?" placeholders which Build numbers as $1, $2, ... in the
// order they appear in the final statement.
type SQLBuilder struct {
	kind       statementKind
	table      string
	columns    []string
	rows       [][]interface{}
	setCols    []string
	setArgs    []interface{}
	joins      []string
	conds      []condition
	orderBy    []string
	limit      int
	offset     int
	forUpdate  bool
	onConflict string
	returning  []string
}

// NewSQLBuilder creates a new instance of SQLBuilder.
func NewSQLBuilder() *SQLBuilder {
	return &SQLBuilder{}
}

// Select specifies the columns to retrieve.
func (b *SQLBuilder) Select(cols ...string) *SQLBuilder {
	b.kind = kindSelect
	b.columns = cols
	return b
}

// Insert specifies the table and columns for insertion.
func (b *SQLBuilder) Insert(table string, cols ...string) *SQLBuilder {
	b.kind = kindInsert
	b.table = table
	b.columns = cols
	return b
}

// Update specifies the table to update.
func (b *SQLBuilder) Update(table string) *SQLBuilder {
	b.kind = kindUpdate
	b.table = table
	return b
}

// Delete specifies the table to delete from.
func (b *SQLBuilder) Delete(table string) *SQLBuilder {
	b.kind = kindDelete
	b.table = table
	return b
}

// From specifies the table to select from.
func (b *SQLBuilder) From(table string) *SQLBuilder {
	b.table = table
	return b
}

// Set adds "col = ?" to an UPDATE.
func (b *SQLBuilder) Set(col string, val interface{}) *SQLBuilder {
	b.setCols = append(b.setCols, col)
	b.setArgs = append(b.setArgs, val)
	return b
}

// Values adds one row to an INSERT. Call it repeatedly for a multi-row insert.
func (b *SQLBuilder) Values(vals ...interface{}) *SQLBuilder {
	b.rows = append(b.rows, vals)
	return b
}

// Where adds a condition joined with AND.
func (b *SQLBuilder) Where(cond string, args ...interface{}) *SQLBuilder {
	b.conds = append(b.conds, condition{conj: "AND", sql: cond, args: args})
	return b
}

// Or adds a condition joined with OR.
func (b *SQLBuilder) Or(cond string, args ...interface{}) *SQLBuilder {
	b.conds = append(b.conds, condition{conj: "OR", sql: cond, args: args})
	return b
}

// WhereRaw adds a raw SQL condition joined with AND.
func (b *SQLBuilder) WhereRaw(sql string, args ...interface{}) *SQLBuilder {
	return b.Where(sql, args...)
}

// WhereIn adds "col IN (?, ?, ...)". An empty value list matches nothing.
func (b *SQLBuilder) WhereIn(col string, vals ...interface{}) *SQLBuilder {
	if len(vals) == 0 {
		return b.Where("1 = 0")
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(vals)), ", ")
	return b.Where(col+" IN ("+marks+")", vals...)
}

// WhereGroup adds a parenthesized group of conditions joined with AND.
// The provided function receives a new SQLBuilder for building the group.
func (b *SQLBuilder) WhereGroup(fn func(*SQLBuilder) *SQLBuilder) *SQLBuilder {
	g := fn(NewSQLBuilder())
	if len(g.conds) == 0 {
		return b
	}
	sql, args := g.whereClause()
	b.conds = append(b.conds, condition{conj: "AND", sql: "(" + sql + ")", args: args})
	return b
}

// Join adds a JOIN clause.
func (b *SQLBuilder) Join(joinType, table, on string) *SQLBuilder {
	b.joins = append(b.joins, fmt.Sprintf("%s JOIN %s ON %s", joinType, table, on))
	return b
}

// OrderBy adds an ORDER BY clause.
func (b *SQLBuilder) OrderBy(order string) *SQLBuilder {
	b.orderBy = append(b.orderBy, order)
	return b
}

// Limit adds a LIMIT clause.
func (b *SQLBuilder) Limit(limit int) *SQLBuilder {
	b.limit = limit
	return b
}

// Offset adds an OFFSET clause.
func (b *SQLBuilder) Offset(offset int) *SQLBuilder {
	b.offset = offset
	return b
}

// ForUpdate locks the selected rows until the transaction ends.
func (b *SQLBuilder) ForUpdate() *SQLBuilder {
	b.forUpdate = true
	return b
}

// OnConflictDoNothing skips inserted rows that violate a unique constraint.
// Target columns are optional.
func (b *SQLBuilder) OnConflictDoNothing(target ...string) *SQLBuilder {
	b.onConflict = "ON CONFLICT"
	if len(target) > 0 {
		b.onConflict += " (" + strings.Join(target, ", ") + ")"
	}
	b.onConflict += " DO NOTHING"
	return b
}

// Returning adds a RETURNING clause to INSERT, UPDATE and DELETE.
func (b *SQLBuilder) Returning(cols ...string) *SQLBuilder {
	b.returning = cols
	return b
}

// BuildSafe constructs the final SQL string and arguments with safety validation.
// Returns an error if the number of placeholders doesn't match the number of arguments.
func (b *SQLBuilder) BuildSafe() (string, []interface{}, error) {
	if b.kind == 0 {
		return "", nil, fmt.Errorf("no statement type set")
	}
	if b.table == "" {
		return "", nil, fmt.Errorf("no table set")
	}
	if b.kind == kindInsert {
		for i, row := range b.rows {
			if len(row) != len(b.columns) {
				return "", nil, fmt.Errorf("row %d has %d values for %d columns", i, len(row), len(b.columns))
			}
		}
	}

	raw, args := b.compose()
	if n := strings.Count(raw, "?"); n != len(args) {
		return "", nil, fmt.Errorf("placeholder count (%d) does not match argument count (%d)", n, len(args))
	}
	return rebind(raw), args, nil
}

// Build constructs the final SQL string and arguments. Build does not
// modify the builder and may be called more than once.
func (b *SQLBuilder) Build() (string, []interface{}) {
	raw, args := b.compose()
	return rebind(raw), args
}

func (b *SQLBuilder) compose() (string, []interface{}) {
	var sb strings.Builder
	var args []interface{}

	switch b.kind {
	case kindSelect:
		sb.WriteString("SELECT ")
		sb.WriteString(strings.Join(b.columns, ", "))
		sb.WriteString(" FROM ")
		sb.WriteString(b.table)
		for _, join := range b.joins {
			sb.WriteString(" ")
			sb.WriteString(join)
		}
	case kindInsert:
		sb.WriteString("INSERT INTO ")
		sb.WriteString(b.table)
		sb.WriteString(" (")
		sb.WriteString(strings.Join(b.columns, ", "))
		sb.WriteString(") VALUES ")
		for i, row := range b.rows {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("(")
			sb.WriteString(strings.TrimSuffix(strings.Repeat("?, ", len(row)), ", "))
			sb.WriteString(")")
			args = append(args, row...)
		}
		if b.onConflict != "" {
			sb.WriteString(" ")
			sb.WriteString(b.onConflict)
		}
	case kindUpdate:
		sb.WriteString("UPDATE ")
		sb.WriteString(b.table)
		sb.WriteString(" SET ")
		sets := make([]string, len(b.setCols))
		for i, col := range b.setCols {
			sets[i] = col + " = ?"
		}
		sb.WriteString(strings.Join(sets, ", "))
		args = append(args, b.setArgs...)
	case kindDelete:
		sb.WriteString("DELETE FROM ")
		sb.WriteString(b.table)
	}

	if len(b.conds) > 0 && b.kind != kindInsert {
		where, whereArgs := b.whereClause()
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
		args = append(args, whereArgs...)
	}

	if b.kind == kindSelect {
		if len(b.orderBy) > 0 {
			sb.WriteString(" ORDER BY ")
			sb.WriteString(strings.Join(b.orderBy, ", "))
		}
		if b.limit > 0 {
			sb.WriteString(fmt.Sprintf(" LIMIT %d", b.limit))
		}
		if b.offset > 0 {
			sb.WriteString(fmt.Sprintf(" OFFSET %d", b.offset))
		}
		if b.forUpdate {
			sb.WriteString(" FOR UPDATE")
		}
	} else if len(b.returning) > 0 {
		sb.WriteString(" RETURNING ")
		sb.WriteString(strings.Join(b.returning, ", "))
	}

	return sb.String(), args
}

func (b *SQLBuilder) whereClause() (string, []interface{}) {
	var sb strings.Builder
	var args []interface{}
	for i, c := range b.conds {
		if i > 0 {
			sb.WriteString(" ")
			sb.WriteString(c.conj)
			sb.WriteString(" ")
		}
		sb.WriteString(c.sql)
		args = append(args, c.args...)
	}
	return sb.String(), args
}

// rebind numbers "?" placeholders as $1, $2, ... Quoted literals are copied
// unchanged.
func rebind(query string) string {
	var sb strings.Builder
	sb.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for _, r := range query {
		switch {
		case r == '\'':
			inQuote = !inQuote
			sb.WriteRune(r)
		case r == '?' && !inQuote:
			n++
			sb.WriteString(fmt.Sprintf("$%d", n))
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
