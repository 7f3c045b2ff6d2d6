package docstore

import (
	"encoding/json"
	"math"
	"strings"
	"time"
)

// Normalize maps Go values onto the stored value set
// every integer kind becomes int64, whole floats become int64 so memory and
// postgres agree after a json round trip, time.Time becomes unix millis
func Normalize(v any) any {
	switch x := v.(type) {
	case nil, bool, string, int64:
		return x
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return int64(x)
	case float32:
		return normFloat(float64(x))
	case float64:
		return normFloat(x)
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n
		}
		f, _ := x.Float64()
		return normFloat(f)
	case time.Time:
		return x.UnixMilli()
	case []string:
		return append([]string(nil), x...)
	case []any:
		strs := make([]string, 0, len(x))
		for _, e := range x {
			s, ok := e.(string)
			if !ok {
				out := make([]any, len(x))
				for i, e := range x {
					out[i] = Normalize(e)
				}
				return out
			}
			strs = append(strs, s)
		}
		return strs
	case map[string]any:
		out := make(Fields, len(x))
		for k, e := range x {
			out[k] = Normalize(e)
		}
		return out
	case transform:
		return x
	}
	return v
}

func normFloat(f float64) any {
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int64(f)
	}
	return f
}

// rank orders values of different kinds: null, bool, number, string, array, map
func rank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case int64, float64:
		return 2
	case string:
		return 3
	case []string, []any:
		return 4
	case Fields:
		return 5
	}
	return 6
}

// Compare is a total order over normalized values
func Compare(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return cmpInt(int64(ra), int64(rb))
	}
	switch x := a.(type) {
	case nil:
		return 0
	case bool:
		y := b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		}
		return 1
	case int64:
		if y, ok := b.(int64); ok {
			return cmpInt(x, y)
		}
		return cmpFloat(float64(x), b.(float64))
	case float64:
		if y, ok := b.(int64); ok {
			return cmpFloat(x, float64(y))
		}
		return cmpFloat(x, b.(float64))
	case string:
		return strings.Compare(x, b.(string))
	case []string, []any:
		xa, ya := asList(a), asList(b)
		for i := 0; i < len(xa) && i < len(ya); i++ {
			if c := Compare(xa[i], ya[i]); c != 0 {
				return c
			}
		}
		return cmpInt(int64(len(xa)), int64(len(ya)))
	case Fields:
		y := b.(Fields)
		return cmpInt(int64(len(x)), int64(len(y)))
	}
	return 0
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func asList(v any) []any {
	switch x := v.(type) {
	case []any:
		return x
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out
	}
	return nil
}

func splitPath(path string) []string { return strings.Split(path, ".") }

func getPath(m Fields, path string) (any, bool) {
	segs := splitPath(path)
	cur := m
	for i, s := range segs {
		v, ok := cur[s]
		if !ok {
			return nil, false
		}
		if i == len(segs)-1 {
			return v, true
		}
		next, ok := v.(Fields)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return nil, false
}

func setPath(m Fields, path string, v any) {
	segs := splitPath(path)
	cur := m
	for _, s := range segs[:len(segs)-1] {
		next, ok := cur[s].(Fields)
		if !ok {
			next = Fields{}
			cur[s] = next
		}
		cur = next
	}
	cur[segs[len(segs)-1]] = v
}

func deletePath(m Fields, path string) {
	segs := splitPath(path)
	cur := m
	for _, s := range segs[:len(segs)-1] {
		next, ok := cur[s].(Fields)
		if !ok {
			return
		}
		cur = next
	}
	delete(cur, segs[len(segs)-1])
}

// Clone deep copies fields
func Clone(m Fields) Fields {
	if m == nil {
		return nil
	}
	out := make(Fields, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case []string:
		return append([]string(nil), x...)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = cloneValue(e)
		}
		return out
	case Fields:
		return Clone(x)
	}
	return v
}
