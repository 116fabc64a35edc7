package store

import (
	"fmt"
	"regexp"
	"strings"
)

type Op string

const (
	OpEq       Op = "eq"       // text equality
	OpGte      Op = "gte"      // numeric >=
	OpLte      Op = "lte"      // numeric <=
	OpContains Op = "contains" // case-insensitive substring
)

// Filter matches a document field addressed by a dotted JSON path, e.g.
// "personal_info.first_name". A filter with Or set matches when any of its
// members does; Path, Op and Value are then ignored. Missing fields never match.
type Filter struct {
	Path  string
	Op    Op
	Value any
	Or    []Filter
}

func Eq(path, value string) Filter { return Filter{Path: path, Op: OpEq, Value: value} }
func Gte(path string, v float64) Filter { return Filter{Path: path, Op: OpGte, Value: v} }
func Lte(path string, v float64) Filter { return Filter{Path: path, Op: OpLte, Value: v} }
func Contains(path, sub string) Filter { return Filter{Path: path, Op: OpContains, Value: sub} }
func AnyOf(filters ...Filter) Filter { return Filter{Or: filters} }

// Sort orders results by a JSON path, or by last modification time when Path
// is empty. Documents missing the field sort last.
type Sort struct {
	Path    string
	Numeric bool
	Desc    bool
}

// Newest orders by modification time, most recent first.
var Newest = &Sort{Desc: true}

// Query selects documents from a container. Without a Sort, results are
// ordered by id. Limit 0 means no limit.
type Query struct {
	Filters []Filter
	Sort    *Sort
	Offset  int
	Limit   int
}

var segmentRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

func splitPath(path string) ([]string, error) {
	segs := strings.Split(path, ".")
	for _, s := range segs {
		if !segmentRe.MatchString(s) {
			return nil, fmt.Errorf("invalid field path %q", path)
		}
	}
	return segs, nil
}
