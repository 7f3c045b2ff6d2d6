package docstore

import (
	"sort"
	"strings"
	"sync"

	perr "popreel/internal/platform/errors"
)

// Index declares a composite index: the filtered paths plus the ordered paths
type Index struct {
	Collection string
	Filters    []string
	Orders     []string
}

func (ix Index) key() string {
	f := append([]string(nil), ix.Filters...)
	sort.Strings(f)
	f = dedupe(f)
	return ix.Collection + "|" + strings.Join(f, ",") + "|" + strings.Join(ix.Orders, ",")
}

// requirement returns the index q needs, or false when a single-field index serves it
// a query needs a composite index once its filters and explicit orders span more than one field
func requirement(q Query) (Index, bool) {
	ix := Index{Collection: q.Collection}
	paths := map[string]struct{}{}
	for _, f := range q.Filters {
		if f.Path == IDPath {
			continue
		}
		ix.Filters = append(ix.Filters, f.Path)
		paths[f.Path] = struct{}{}
	}
	for _, o := range q.Orders {
		if o.Path == IDPath {
			continue
		}
		ix.Orders = append(ix.Orders, o.Path)
		paths[o.Path] = struct{}{}
	}
	if len(ix.Orders) == 0 || len(paths) < 2 {
		return Index{}, false
	}
	return ix, true
}

// Indexes is the set of declared composite indexes
type Indexes struct {
	mu sync.RWMutex
	m  map[string]Index
}

// NewIndexes declares ix
func NewIndexes(ix ...Index) *Indexes {
	s := &Indexes{m: map[string]Index{}}
	s.Declare(ix...)
	return s
}

// Declare adds indexes
func (s *Indexes) Declare(ix ...Index) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, i := range ix {
		s.m[i.key()] = i
	}
}

// Check fails with FailedPrecondition when q needs an undeclared index
func (s *Indexes) Check(q Query) error {
	need, ok := requirement(q)
	if !ok {
		return nil
	}
	if s != nil {
		s.mu.RLock()
		_, have := s.m[need.key()]
		s.mu.RUnlock()
		if have {
			return nil
		}
	}
	return perr.FailedPreconditionf("query requires an index: collection=%s filters=%s orders=%s",
		need.Collection, strings.Join(need.Filters, ","), strings.Join(need.Orders, ","))
}

func dedupe(sorted []string) []string {
	out := sorted[:0]
	for i, s := range sorted {
		if i > 0 && s == sorted[i-1] {
			continue
		}
		out = append(out, s)
	}
	return out
}
