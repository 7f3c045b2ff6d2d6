package docstore

import (
	"time"

	perr "popreel/internal/platform/errors"
)

// Update sets one dotted path; Value may be a transform
type Update struct {
	Path  string
	Value any
}

// transform is a value computed from the field's current content at write time
type transform interface {
	apply(cur any, ok bool) (any, bool)
}

type increment struct {
	n     int64
	floor *int64
}

func (t increment) apply(cur any, ok bool) (any, bool) {
	var next any
	switch c := cur.(type) {
	case float64:
		f := c + float64(t.n)
		if t.floor != nil && f < float64(*t.floor) {
			f = float64(*t.floor)
		}
		next = f
	default:
		var base int64
		if ok {
			base, _ = c.(int64)
		}
		v := base + t.n
		if t.floor != nil && v < *t.floor {
			v = *t.floor
		}
		next = v
	}
	return next, true
}

type arrayUnion []string

func (t arrayUnion) apply(cur any, ok bool) (any, bool) {
	out := Doc{Fields: Fields{"v": cur}}.Strings("v")
	seen := make(map[string]struct{}, len(out)+len(t))
	for _, s := range out {
		seen[s] = struct{}{}
	}
	for _, s := range t {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	if out == nil {
		out = []string{}
	}
	return out, true
}

type arrayRemove []string

func (t arrayRemove) apply(cur any, ok bool) (any, bool) {
	drop := make(map[string]struct{}, len(t))
	for _, s := range t {
		drop[s] = struct{}{}
	}
	out := []string{}
	for _, s := range (Doc{Fields: Fields{"v": cur}}).Strings("v") {
		if _, gone := drop[s]; !gone {
			out = append(out, s)
		}
	}
	return out, true
}

type deleteField struct{}

func (deleteField) apply(any, bool) (any, bool) { return nil, false }

// Increment adds n to a numeric field; an absent field counts as zero
func Increment(n int64) any { return increment{n: n} }

// IncrementFloor is Increment clamped so the result never drops below floor
func IncrementFloor(n, floor int64) any { return increment{n: n, floor: &floor} }

// ArrayUnion adds each value not already present, keeping existing order
func ArrayUnion(vals ...string) any { return arrayUnion(append([]string(nil), vals...)) }

// ArrayRemove drops every occurrence of the values
func ArrayRemove(vals ...string) any { return arrayRemove(append([]string(nil), vals...)) }

// DeleteField removes the field
var DeleteField any = deleteField{}

// Precondition guards a write
type Precondition struct {
	exists  *bool
	version int64
}

// Exists requires the document to be present (true) or absent (false)
func Exists(b bool) Precondition { return Precondition{exists: &b} }

// LastVersion requires the stored version to equal v
func LastVersion(v int64) Precondition { return Precondition{version: v} }

// SetOption tunes Set
type SetOption func(*Write)

// Merge keeps fields not named in the write
func Merge() SetOption { return func(w *Write) { w.Merge = true } }

// Kind is the write verb
type Kind uint8

const (
	KindSet Kind = iota + 1
	KindCreate
	KindUpdate
	KindDelete
)

// Write is one staged mutation of a batch
type Write struct {
	Kind    Kind
	Ref     Ref
	Fields  Fields
	Updates []Update
	Merge   bool
	Pre     []Precondition
}

func checkPre(ref Ref, pre []Precondition, cur *Doc) error {
	for _, p := range pre {
		if p.exists != nil {
			switch {
			case *p.exists && cur == nil:
				return perr.NotFoundf("%s not found", ref.Path())
			case !*p.exists && cur != nil:
				return perr.Conflictf("%s already exists", ref.Path())
			}
		}
		if p.version != 0 {
			if cur == nil {
				return perr.Conflictf("%s was deleted", ref.Path())
			}
			if cur.Version != p.version {
				return perr.Conflictf("%s changed: version %d, expected %d", ref.Path(), cur.Version, p.version)
			}
		}
	}
	return nil
}

// Apply computes the state of a document after w
// cur is nil when the document does not exist; a nil result means deleted
func Apply(w Write, cur *Doc, now time.Time) (*Doc, error) {
	if w.Ref.Collection == "" || w.Ref.ID == "" {
		return nil, perr.InvalidArgf("document ref needs a collection and an id")
	}
	pre := append([]Precondition(nil), w.Pre...)
	switch w.Kind {
	case KindCreate:
		pre = append(pre, Exists(false))
	case KindUpdate:
		pre = append(pre, Exists(true))
	}
	if err := checkPre(w.Ref, pre, cur); err != nil {
		return nil, err
	}

	if w.Kind == KindDelete {
		return nil, nil
	}

	next := &Doc{Ref: w.Ref, CreateTime: now, UpdateTime: now, Version: 1}
	base := Fields{}
	if cur != nil {
		next.CreateTime = cur.CreateTime
		next.Version = cur.Version + 1
		if w.Kind == KindUpdate || w.Merge {
			base = Clone(cur.Fields)
		}
	}

	updates := w.Updates
	if w.Kind != KindUpdate {
		updates = make([]Update, 0, len(w.Fields))
		for k, v := range w.Fields {
			updates = append(updates, Update{Path: k, Value: v})
		}
	}
	for _, u := range updates {
		if u.Path == "" || u.Path == IDPath {
			return nil, perr.InvalidArgf("invalid field path %q", u.Path)
		}
		if t, ok := u.Value.(transform); ok {
			old, had := getPath(base, u.Path)
			v, keep := t.apply(old, had)
			if !keep {
				deletePath(base, u.Path)
				continue
			}
			setPath(base, u.Path, v)
			continue
		}
		setPath(base, u.Path, Normalize(u.Value))
	}
	next.Fields = base
	return next, nil
}
