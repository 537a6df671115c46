package repository

import (
	"fmt"
	"strings"
)

// whereClause accumulates AND-ed conditions with positional arguments
type whereClause struct {
	conds []string
	args  []any
}

// add appends a condition; each %s in cond is replaced by the next placeholder
func (w *whereClause) add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, fmt.Sprintf(cond, fmt.Sprintf("$%d", len(w.args))))
}

func (w *whereClause) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(w.conds, " AND ")
}

// limit appends a LIMIT placeholder and returns it
func (w *whereClause) limit(n int) string {
	w.args = append(w.args, n)
	return fmt.Sprintf("LIMIT $%d", len(w.args))
}
