package sqlite

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mesh-intelligence/listings/pkg/types"
)

// Operator is a comparison operator usable in a Condition.
type Operator string

const (
	OpEqual          Operator = "="
	OpGreaterOrEqual Operator = ">="
	OpLessOrEqual    Operator = "<="
	OpBetween        Operator = "BETWEEN"
)

// Condition is a single (column, operator, value) predicate. Columns come
// from a per-table allow list, never from caller text, so they can be
// spliced into SQL; values are always bound as parameters.
type Condition struct {
	Column   string
	Operator Operator
	Value    any
}

// Eq creates an equality condition.
func Eq(column string, value any) Condition {
	return Condition{Column: column, Operator: OpEqual, Value: value}
}

// Gte creates a greater-than-or-equal condition.
func Gte(column string, value any) Condition {
	return Condition{Column: column, Operator: OpGreaterOrEqual, Value: value}
}

// Lte creates a less-than-or-equal condition.
func Lte(column string, value any) Condition {
	return Condition{Column: column, Operator: OpLessOrEqual, Value: value}
}

// Between creates an inclusive range condition.
func Between(column string, lo, hi any) Condition {
	return Condition{Column: column, Operator: OpBetween, Value: [2]any{lo, hi}}
}

// whereBuilder collects conditions that are joined with AND. OR is not
// supported: every search in this package is conjunctive.
type whereBuilder struct {
	conditions []Condition
}

// Add appends a condition.
func (w *whereBuilder) Add(c Condition) {
	w.conditions = append(w.conditions, c)
}

// Len returns the number of conditions.
func (w *whereBuilder) Len() int {
	return len(w.conditions)
}

// Build returns the WHERE clause (empty when there are no conditions) and
// its arguments in placeholder order.
func (w *whereBuilder) Build() (string, []any, error) {
	if len(w.conditions) == 0 {
		return "", nil, nil
	}

	parts := make([]string, 0, len(w.conditions))
	var args []any
	for _, c := range w.conditions {
		switch c.Operator {
		case OpEqual, OpGreaterOrEqual, OpLessOrEqual:
			parts = append(parts, fmt.Sprintf("%s %s ?", c.Column, c.Operator))
			args = append(args, c.Value)
		case OpBetween:
			bounds, ok := c.Value.([2]any)
			if !ok {
				return "", nil, fmt.Errorf("BETWEEN on %s requires two bounds: %w", c.Column, types.ErrInvalidFilter)
			}
			parts = append(parts, fmt.Sprintf("%s BETWEEN ? AND ?", c.Column))
			args = append(args, bounds[0], bounds[1])
		default:
			return "", nil, fmt.Errorf("unsupported operator %q: %w", c.Operator, types.ErrInvalidFilter)
		}
	}
	return "WHERE " + strings.Join(parts, " AND "), args, nil
}

// equalityConditions turns a filter map into equality conditions, rejecting
// columns outside allowed. Conditions are sorted by column so the generated
// SQL is deterministic; AND makes the order irrelevant to the result.
func equalityConditions(filter types.Filter, allowed map[string]bool) ([]Condition, error) {
	columns := make([]string, 0, len(filter))
	for col := range filter {
		if !allowed[col] {
			return nil, fmt.Errorf("unknown filter column %q: %w", col, types.ErrInvalidFilter)
		}
		columns = append(columns, col)
	}
	sort.Strings(columns)

	conds := make([]Condition, 0, len(columns))
	for _, col := range columns {
		v := filter[col]
		switch v.(type) {
		case string, int, int64, float64, bool:
		case nil:
			return nil, fmt.Errorf("nil value for filter column %q: %w", col, types.ErrInvalidFilter)
		default:
			return nil, fmt.Errorf("unsupported value type %T for filter column %q: %w", v, col, types.ErrInvalidFilter)
		}
		conds = append(conds, Eq(col, v))
	}
	return conds, nil
}

// priceCondition returns the price clause for the given bounds: BETWEEN when
// both are set, a single comparison when one is, nothing when neither is.
func priceCondition(lo, hi *float64) (Condition, bool, error) {
	for _, bound := range []*float64{lo, hi} {
		if bound != nil && !types.ValidPrice(*bound) {
			return Condition{}, false, fmt.Errorf("price bound %v: %w", *bound, types.ErrInvalidFilter)
		}
	}
	switch {
	case lo != nil && hi != nil:
		if *lo > *hi {
			return Condition{}, false, fmt.Errorf("price min %v exceeds max %v: %w", *lo, *hi, types.ErrInvalidFilter)
		}
		return Between("price", *lo, *hi), true, nil
	case lo != nil:
		return Gte("price", *lo), true, nil
	case hi != nil:
		return Lte("price", *hi), true, nil
	default:
		return Condition{}, false, nil
	}
}

// orderClause maps an OrderBy key ("price", "-price", ...) to an ORDER BY
// clause. id is appended as a tie-breaker so paging stays stable.
func orderClause(orderBy string, allowed map[string]bool) (string, error) {
	if orderBy == "" {
		return "", nil
	}
	dir := "ASC"
	col := orderBy
	if strings.HasPrefix(orderBy, "-") {
		dir = "DESC"
		col = orderBy[1:]
	}
	if !allowed[col] {
		return "", fmt.Errorf("unknown order column %q: %w", col, types.ErrInvalidFilter)
	}
	if col == "id" {
		return "ORDER BY id " + dir, nil
	}
	return fmt.Sprintf("ORDER BY %s %s, id %s", col, dir, dir), nil
}

// setBuilder collects the column assignments of a partial update.
type setBuilder struct {
	columns []string
	args    []any
}

// Set assigns value to column.
func (s *setBuilder) Set(column string, value any) {
	s.columns = append(s.columns, column+" = ?")
	s.args = append(s.args, value)
}

// Len returns the number of assignments.
func (s *setBuilder) Len() int {
	return len(s.columns)
}

// Build returns the SET clause and its arguments.
func (s *setBuilder) Build() (string, []any) {
	return "SET " + strings.Join(s.columns, ", "), s.args
}
