package querybuilder

import (
	"fmt"
	"strconv"
	"strings"
)

// Condition is a WHERE fragment with ? placeholders and the arguments that
// fill them. Renumbering to postgres-style $n happens once, when the whole
// statement is assembled.
type Condition struct {
	fragment string
	args     []any
}

// Eq matches a column against a bound value.
func Eq(column string, value any) Condition {
	return Condition{fragment: column + " = ?", args: []any{value}}
}

// In matches a column against any of the bound values. An empty value list
// produces a condition that matches nothing.
func In(column string, values []any) Condition {
	if len(values) == 0 {
		return Condition{fragment: "1=0"}
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")
	return Condition{fragment: column + " IN (" + marks + ")", args: values}
}

// Expr wraps a hand-written fragment, one bound argument per ? mark.
func Expr(fragment string, args ...any) Condition {
	return Condition{fragment: fragment, args: args}
}

// statement accumulates SQL text and bind arguments, renumbering ? marks to
// $n as fragments land.
type statement struct {
	buf  strings.Builder
	args []any
	next int
}

func newStatement() *statement {
	return &statement{next: 1}
}

func (s *statement) raw(text string) {
	s.buf.WriteString(text)
}

// bind appends a fragment, replacing each ? with the next $n placeholder and
// queueing the matching argument. A ? beyond the argument list passes through
// untouched.
func (s *statement) bind(fragment string, args []any) {
	if len(args) == 0 {
		s.buf.WriteString(fragment)
		return
	}
	used := 0
	for i := 0; i < len(fragment); i++ {
		if fragment[i] != '?' || used >= len(args) {
			s.buf.WriteByte(fragment[i])
			continue
		}
		s.buf.WriteString("$" + strconv.Itoa(s.next))
		s.args = append(s.args, args[used])
		s.next++
		used++
	}
}

func (s *statement) where(conditions []Condition) {
	for i, c := range conditions {
		if i == 0 {
			s.raw(" WHERE ")
		} else {
			s.raw(" AND ")
		}
		s.bind(c.fragment, c.args)
	}
}

type SelectBuilder struct {
	columns []string
	table   string
	where   []Condition
	orderBy []string
	limit   int
}

func Select(columns ...string) *SelectBuilder {
	return &SelectBuilder{columns: append([]string(nil), columns...)}
}

func (b *SelectBuilder) From(table string) *SelectBuilder {
	b.table = table
	return b
}

// Where appends conditions. All conditions are ANDed together.
func (b *SelectBuilder) Where(conditions ...Condition) *SelectBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *SelectBuilder) OrderBy(columns ...string) *SelectBuilder {
	b.orderBy = append(b.orderBy, columns...)
	return b
}

// Limit caps the row count. Zero or negative means no limit.
func (b *SelectBuilder) Limit(n int) *SelectBuilder {
	b.limit = n
	return b
}

func (b *SelectBuilder) ToSQL() (string, []any, error) {
	if len(b.columns) == 0 {
		return "", nil, fmt.Errorf("select: no columns")
	}
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("select: no table")
	}

	st := newStatement()
	st.raw("SELECT " + strings.Join(b.columns, ", ") + " FROM " + b.table)
	st.where(b.where)
	if len(b.orderBy) > 0 {
		st.raw(" ORDER BY " + strings.Join(b.orderBy, ", "))
	}
	if b.limit > 0 {
		st.raw(" LIMIT " + strconv.Itoa(b.limit))
	}
	return st.buf.String(), st.args, nil
}

type InsertBuilder struct {
	table   string
	columns []string
	rows    [][]any
	suffix  string
}

func InsertInto(table string) *InsertBuilder {
	return &InsertBuilder{table: table}
}

func (b *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	b.columns = append([]string(nil), columns...)
	return b
}

// Values adds one row per call.
func (b *InsertBuilder) Values(values ...any) *InsertBuilder {
	b.rows = append(b.rows, append([]any(nil), values...))
	return b
}

// Suffix is appended verbatim after the VALUES list. ON CONFLICT and
// RETURNING clauses go here.
func (b *InsertBuilder) Suffix(sql string) *InsertBuilder {
	b.suffix = strings.TrimSpace(sql)
	return b
}

func (b *InsertBuilder) ToSQL() (string, []any, error) {
	switch {
	case strings.TrimSpace(b.table) == "":
		return "", nil, fmt.Errorf("insert: no table")
	case len(b.columns) == 0:
		return "", nil, fmt.Errorf("insert: no columns")
	case len(b.rows) == 0:
		return "", nil, fmt.Errorf("insert: no rows")
	}

	st := newStatement()
	st.raw("INSERT INTO " + b.table + " (" + strings.Join(b.columns, ", ") + ") VALUES ")
	for i, row := range b.rows {
		if len(row) != len(b.columns) {
			return "", nil, fmt.Errorf("insert: row %d has %d values for %d columns", i, len(row), len(b.columns))
		}
		if i > 0 {
			st.raw(", ")
		}
		st.raw("(")
		for j, v := range row {
			if j > 0 {
				st.raw(", ")
			}
			st.bind("?", []any{v})
		}
		st.raw(")")
	}
	if b.suffix != "" {
		st.raw(" " + b.suffix)
	}
	return st.buf.String(), st.args, nil
}
