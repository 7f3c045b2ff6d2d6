package docstore

import (
	"regexp"
	"sort"

	perr "popreel/internal/platform/errors"
)

// IDPath filters or orders by document id
const IDPath = "__name__"

// Op is a filter operator
type Op string

const (
	OpEq            Op = "=="
	OpLt            Op = "<"
	OpLte           Op = "<="
	OpGt            Op = ">"
	OpGte           Op = ">="
	OpArrayContains Op = "array-contains"
	OpIn            Op = "in"
)

// Direction orders results
type Direction uint8

const (
	Asc Direction = iota
	Desc
)

// Filter is one where clause
type Filter struct {
	Path  string
	Op    Op
	Value any
}

// Order is one order-by clause
type Order struct {
	Path string
	Dir  Direction
}

// Query describes a read over one collection; build it with From
type Query struct {
	Collection string
	Filters    []Filter
	Orders     []Order
	Max        int
	After      *Doc
}

// From starts a query over collection
func From(collection string) Query { return Query{Collection: collection} }

// Where adds a filter
func (q Query) Where(path string, op Op, v any) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Path: path, Op: op, Value: Normalize(v)})
	return q
}

// OrderBy adds an ordering clause
func (q Query) OrderBy(path string, dir Direction) Query {
	q.Orders = append(append([]Order(nil), q.Orders...), Order{Path: path, Dir: dir})
	return q
}

// Limit caps the result; 0 means no cap
func (q Query) Limit(n int) Query {
	q.Max = n
	return q
}

// StartAfter resumes strictly after d in the query's order
// only d's id and ordered fields are consulted, so a partial Doc works as a cursor
func (q Query) StartAfter(d Doc) Query {
	c := d
	q.After = &c
	return q
}

// Ordering returns the effective order: explicit clauses plus an id tiebreak
// running in the direction of the last clause
func (q Query) Ordering() []Order {
	out := append([]Order(nil), q.Orders...)
	dir := Asc
	for _, o := range out {
		if o.Path == IDPath {
			return out
		}
		dir = o.Dir
	}
	return append(out, Order{Path: IDPath, Dir: dir})
}

var segRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidPath reports whether path is IDPath or dotted identifiers
func ValidPath(path string) bool {
	if path == IDPath {
		return true
	}
	for _, s := range splitPath(path) {
		if !segRE.MatchString(s) {
			return false
		}
	}
	return true
}

// Validate rejects malformed queries before any driver touches them
func (q Query) Validate() error {
	if q.Collection == "" || !segRE.MatchString(q.Collection) {
		return perr.InvalidArgf("invalid collection %q", q.Collection)
	}
	if q.Max < 0 {
		return perr.InvalidArgf("negative limit")
	}
	for _, f := range q.Filters {
		if !ValidPath(f.Path) {
			return perr.InvalidArgf("invalid field path %q", f.Path)
		}
		switch f.Op {
		case OpEq, OpLt, OpLte, OpGt, OpGte, OpArrayContains:
		case OpIn:
			if _, ok := f.Value.([]string); !ok {
				if _, ok := f.Value.([]any); !ok {
					return perr.InvalidArgf("%s in needs a list", f.Path)
				}
			}
		default:
			return perr.InvalidArgf("unknown operator %q", f.Op)
		}
	}
	for _, o := range q.Orders {
		if !ValidPath(o.Path) {
			return perr.InvalidArgf("invalid order path %q", o.Path)
		}
	}
	return nil
}

// Match reports whether d passes every filter
// inequality filters only match values of the same kind
func (q Query) Match(d Doc) bool {
	for _, f := range q.Filters {
		v, ok := d.Get(f.Path)
		if !ok {
			return false
		}
		switch f.Op {
		case OpEq:
			if rank(v) != rank(f.Value) || Compare(v, f.Value) != 0 {
				return false
			}
		case OpLt, OpLte, OpGt, OpGte:
			if rank(v) != rank(f.Value) {
				return false
			}
			c := Compare(v, f.Value)
			if (f.Op == OpLt && c >= 0) || (f.Op == OpLte && c > 0) ||
				(f.Op == OpGt && c <= 0) || (f.Op == OpGte && c < 0) {
				return false
			}
		case OpArrayContains:
			found := false
			for _, e := range asList(v) {
				if rank(e) == rank(f.Value) && Compare(e, f.Value) == 0 {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		case OpIn:
			found := false
			for _, e := range asList(f.Value) {
				if rank(e) == rank(v) && Compare(e, v) == 0 {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}

// CompareDocs orders a and b by the effective ordering
func (q Query) CompareDocs(a, b Doc) int {
	for _, o := range q.Ordering() {
		av, _ := a.Get(o.Path)
		bv, _ := b.Get(o.Path)
		c := Compare(av, bv)
		if o.Dir == Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

// Run evaluates q over an unordered candidate set: filter, order, cursor, limit
// documents missing an ordered field are excluded
func (q Query) Run(docs []Doc) []Doc {
	out := make([]Doc, 0, len(docs))
	for _, d := range docs {
		if d.Ref.Collection != q.Collection || !q.Match(d) || !hasOrderFields(q, d) {
			continue
		}
		out = append(out, d)
	}
	sort.SliceStable(out, func(i, j int) bool { return q.CompareDocs(out[i], out[j]) < 0 })
	if q.After != nil {
		i := sort.Search(len(out), func(i int) bool { return q.CompareDocs(out[i], *q.After) > 0 })
		out = out[i:]
	}
	if q.Max > 0 && len(out) > q.Max {
		out = out[:q.Max]
	}
	return out
}

func hasOrderFields(q Query, d Doc) bool {
	for _, o := range q.Orders {
		if _, ok := d.Get(o.Path); !ok {
			return false
		}
	}
	return true
}
