package repository

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/timesflying/internal/domain"
)

// Field names an indexed time entry column.
type Field string

const (
	FieldStartTime   Field = "start_time"
	FieldEndTime     Field = "end_time"
	FieldDescription Field = "description"
	FieldProject     Field = "project_id"
	FieldPinned      Field = "is_pinned"
)

func (f Field) valid() bool {
	switch f {
	case FieldStartTime, FieldEndTime, FieldDescription, FieldProject, FieldPinned:
		return true
	}
	return false
}

// Direction is the sort direction of an ordered query.
type Direction int

const (
	Asc Direction = iota
	Desc
)

func (d Direction) sql() string {
	if d == Desc {
		return "DESC"
	}
	return "ASC"
}

func (d Direction) reverse() Direction {
	if d == Desc {
		return Asc
	}
	return Desc
}

// Filter restricts the rows a Query returns. SQL filters are compiled into
// the WHERE clause; Match filters run in Go after the rows are read.
type Filter struct {
	column string
	op     string
	arg    any
	match  func(*domain.TimeEntry) bool
}

// IsNull matches rows where f has no value.
func IsNull(f Field) Filter {
	return Filter{column: string(f), op: "IS NULL"}
}

// Equals matches rows where f equals v. Booleans are stored as 0/1.
func Equals(f Field, v any) Filter {
	if b, ok := v.(bool); ok {
		v = boolToInt(b)
	}
	return Filter{column: string(f), op: "= ?", arg: v}
}

// Match filters with an arbitrary predicate evaluated in Go.
func Match(fn func(*domain.TimeEntry) bool) Filter {
	return Filter{match: fn}
}

// DescriptionContains matches descriptions containing sub, ignoring case.
// An empty sub matches every entry.
//
// It filters in Go rather than SQL because SQLite's lower() and LIKE only
// fold ASCII letters. Every search therefore reads the whole time_entries
// table, which is fine for one person's history.
func DescriptionContains(sub string) Filter {
	needle := strings.ToLower(sub)
	return Match(func(e *domain.TimeEntry) bool {
		return strings.Contains(strings.ToLower(e.Description), needle)
	})
}

// Query is a declarative, immutable description of a time entry read:
// filters, ordering, offset and limit. Builder methods return copies.
type Query struct {
	filters   []Filter
	orderBy   Field
	direction Direction
	offset    int
	limit     int
}

// NewQuery returns a query over every entry in insertion order.
func NewQuery() Query {
	return Query{}
}

func (q Query) Where(f Filter) Query {
	filters := make([]Filter, len(q.filters), len(q.filters)+1)
	copy(filters, q.filters)
	q.filters = append(filters, f)
	return q
}

func (q Query) OrderBy(f Field, d Direction) Query {
	q.orderBy = f
	q.direction = d
	return q
}

// Reverse flips the sort direction.
func (q Query) Reverse() Query {
	q.direction = q.direction.reverse()
	return q
}

func (q Query) Offset(n int) Query {
	if n < 0 {
		n = 0
	}
	q.offset = n
	return q
}

// Limit caps the number of rows; n <= 0 removes the cap.
func (q Query) Limit(n int) Query {
	if n < 0 {
		n = 0
	}
	q.limit = n
	return q
}

func (q Query) hasMatchFilters() bool {
	for _, f := range q.filters {
		if f.match != nil {
			return true
		}
	}
	return false
}

// where compiles the SQL filters of q into a WHERE clause (possibly empty).
func (q Query) where() (string, []any) {
	var conds []string
	var params []any
	for _, f := range q.filters {
		if f.match != nil {
			continue
		}
		conds = append(conds, f.column+" "+f.op)
		if f.arg != nil {
			params = append(params, f.arg)
		}
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), params
}

// compile converts q into parameterized SQL over time_entries. When Go-side
// filters are present, offset and limit are left to applyWindow.
func (q Query) compile(columns string) (string, []any, error) {
	where, params := q.where()

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(columns)
	b.WriteString(" FROM time_entries")
	b.WriteString(where)

	// seq breaks ties so paging over equal start times is stable.
	b.WriteString(" ORDER BY ")
	if q.orderBy != "" {
		if !q.orderBy.valid() {
			return "", nil, fmt.Errorf("unsupported order field %q", q.orderBy)
		}
		b.WriteString(fmt.Sprintf("%s %s, ", q.orderBy, q.direction.sql()))
	}
	b.WriteString("seq " + q.direction.sql())

	if !q.hasMatchFilters() && (q.limit > 0 || q.offset > 0) {
		limit := q.limit
		if limit == 0 {
			limit = -1
		}
		b.WriteString(" LIMIT ? OFFSET ?")
		params = append(params, limit, q.offset)
	}

	return b.String(), params, nil
}

// applyWindow runs Go-side filters and then offset/limit over rows already
// ordered by SQL. It is a no-op for pure SQL queries.
func (q Query) applyWindow(rows []*domain.TimeEntry) []*domain.TimeEntry {
	if !q.hasMatchFilters() {
		return rows
	}
	kept := rows[:0]
	for _, e := range rows {
		if q.matches(e) {
			kept = append(kept, e)
		}
	}
	if q.offset >= len(kept) {
		return []*domain.TimeEntry{}
	}
	kept = kept[q.offset:]
	if q.limit > 0 && q.limit < len(kept) {
		kept = kept[:q.limit]
	}
	return kept
}

func (q Query) matches(e *domain.TimeEntry) bool {
	for _, f := range q.filters {
		if f.match != nil && !f.match(e) {
			return false
		}
	}
	return true
}
