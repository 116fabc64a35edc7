package store

import (
	"fmt"
	"strings"
)

// dialect renders JSON path access for one SQL backend. Paths reaching it
// have been checked by splitPath, so segments are safe to inline.
type dialect interface {
	placeholder(n int) string
	text(path []string) string
	number(path []string) string
	contains(expr, arg string) string
	limit(limit, offset int) string
}

type builder struct {
	d    dialect
	args []any
}

func (b *builder) arg(v any) string {
	b.args = append(b.args, v)
	return b.d.placeholder(len(b.args))
}

func (b *builder) where(filters []Filter) (string, error) {
	if len(filters) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(filters))
	for _, f := range filters {
		sql, err := b.filter(f)
		if err != nil {
			return "", err
		}
		parts = append(parts, sql)
	}
	return " WHERE " + strings.Join(parts, " AND "), nil
}

func (b *builder) filter(f Filter) (string, error) {
	if len(f.Or) > 0 {
		parts := make([]string, 0, len(f.Or))
		for _, sub := range f.Or {
			sql, err := b.filter(sub)
			if err != nil {
				return "", err
			}
			parts = append(parts, sql)
		}
		return "(" + strings.Join(parts, " OR ") + ")", nil
	}

	path, err := splitPath(f.Path)
	if err != nil {
		return "", err
	}
	switch f.Op {
	case OpEq:
		return b.d.text(path) + " = " + b.arg(fmt.Sprint(f.Value)), nil
	case OpContains:
		return b.d.contains(b.d.text(path), b.arg(fmt.Sprint(f.Value))), nil
	case OpGte, OpLte:
		v, ok := toFloat(f.Value)
		if !ok {
			return "", fmt.Errorf("filter %s on %q needs a number, got %T", f.Op, f.Path, f.Value)
		}
		cmp := " >= "
		if f.Op == OpLte {
			cmp = " <= "
		}
		return b.d.number(path) + cmp + b.arg(v), nil
	default:
		return "", fmt.Errorf("unknown filter op %q", f.Op)
	}
}

func (b *builder) order(s *Sort) (string, error) {
	if s == nil {
		return " ORDER BY id", nil
	}
	expr := "modified_at"
	if s.Path != "" {
		path, err := splitPath(s.Path)
		if err != nil {
			return "", err
		}
		expr = b.d.text(path)
		if s.Numeric {
			expr = b.d.number(path)
		}
	}
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s NULLS LAST, id", expr, dir), nil
}

func selectSQL(d dialect, table Container, q Query) (string, []any, error) {
	b := &builder{d: d}
	where, err := b.where(q.Filters)
	if err != nil {
		return "", nil, err
	}
	order, err := b.order(q.Sort)
	if err != nil {
		return "", nil, err
	}
	return "SELECT doc FROM " + string(table) + where + order + d.limit(q.Limit, q.Offset), b.args, nil
}

func countSQL(d dialect, table Container, filters []Filter) (string, []any, error) {
	b := &builder{d: d}
	where, err := b.where(filters)
	if err != nil {
		return "", nil, err
	}
	return "SELECT count(*) FROM " + string(table) + where, b.args, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func knownContainer(c Container) error {
	for _, k := range Containers {
		if c == k {
			return nil
		}
	}
	return fmt.Errorf("unknown container %q", c)
}
