package pgdoc

import (
	"encoding/json"
	"strings"

	"popreel/internal/platform/docstore"
	perr "popreel/internal/platform/errors"

	sq "github.com/Masterminds/squirrel"
)

// jsonPath renders a validated dotted path as a jsonb accessor chain
func jsonPath(path string) string {
	var b strings.Builder
	b.WriteString("data")
	for _, seg := range strings.Split(path, ".") {
		b.WriteString("->'")
		b.WriteString(seg)
		b.WriteString("'")
	}
	return b.String()
}

func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case int64, float64:
		return "number"
	case string:
		return "string"
	case []string, []any:
		return "array"
	}
	return "object"
}

func jsonArg(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeInvalidArgument, "encode query value")
	}
	return string(b), nil
}

var sqlOps = map[docstore.Op]string{
	docstore.OpEq:  "=",
	docstore.OpLt:  "<",
	docstore.OpLte: "<=",
	docstore.OpGt:  ">",
	docstore.OpGte: ">=",
}

// compare renders `path op value` with the same kind guard memdoc applies
func compare(path, op string, v any) (sq.Sqlizer, error) {
	if path == docstore.IDPath {
		s, ok := v.(string)
		if !ok {
			return sq.Expr("false"), nil
		}
		return sq.Expr("id "+op+" ?", s), nil
	}
	arg, err := jsonArg(v)
	if err != nil {
		return nil, err
	}
	p := jsonPath(path)
	return sq.Expr("(jsonb_typeof("+p+") = ? AND "+p+" "+op+" ?::jsonb)", jsonType(v), arg), nil
}

func filterExpr(f docstore.Filter) (sq.Sqlizer, error) {
	switch f.Op {
	case docstore.OpArrayContains:
		if f.Path == docstore.IDPath {
			return nil, perr.InvalidArgf("array-contains on the document id")
		}
		var wrapped any = []any{f.Value}
		segs := strings.Split(f.Path, ".")
		for i := len(segs) - 1; i >= 0; i-- {
			wrapped = map[string]any{segs[i]: wrapped}
		}
		arg, err := jsonArg(wrapped)
		if err != nil {
			return nil, err
		}
		return sq.Expr("data @> ?::jsonb", arg), nil

	case docstore.OpIn:
		var list []any
		switch l := f.Value.(type) {
		case []string:
			for _, s := range l {
				list = append(list, s)
			}
		case []any:
			list = l
		}
		if f.Path == docstore.IDPath {
			ids := make([]string, 0, len(list))
			for _, v := range list {
				if s, ok := v.(string); ok {
					ids = append(ids, s)
				}
			}
			return sq.Eq{"id": ids}, nil
		}
		or := sq.Or{}
		for _, v := range list {
			e, err := compare(f.Path, "=", v)
			if err != nil {
				return nil, err
			}
			or = append(or, e)
		}
		if len(or) == 0 {
			return sq.Expr("false"), nil
		}
		return or, nil
	}

	op, ok := sqlOps[f.Op]
	if !ok {
		return nil, perr.InvalidArgf("unknown operator %q", f.Op)
	}
	return compare(f.Path, op, f.Value)
}

func orderSQL(o docstore.Order) string {
	col := "id"
	if o.Path != docstore.IDPath {
		col = jsonPath(o.Path)
	}
	if o.Dir == docstore.Desc {
		return col + " DESC"
	}
	return col + " ASC"
}

// afterExpr is the keyset predicate: strictly after the cursor in the effective order
func afterExpr(orders []docstore.Order, after docstore.Doc) (sq.Sqlizer, error) {
	or := sq.Or{}
	for i, o := range orders {
		and := sq.And{}
		for _, prev := range orders[:i] {
			v, _ := after.Get(prev.Path)
			e, err := orderCompare(prev.Path, "=", v)
			if err != nil {
				return nil, err
			}
			and = append(and, e)
		}
		op := ">"
		if o.Dir == docstore.Desc {
			op = "<"
		}
		v, _ := after.Get(o.Path)
		e, err := orderCompare(o.Path, op, v)
		if err != nil {
			return nil, err
		}
		or = append(or, append(and, e))
	}
	return or, nil
}

// orderCompare compares without the kind guard so jsonb ordering decides across kinds
func orderCompare(path, op string, v any) (sq.Sqlizer, error) {
	if path == docstore.IDPath {
		s, _ := v.(string)
		return sq.Expr("id "+op+" ?", s), nil
	}
	arg, err := jsonArg(v)
	if err != nil {
		return nil, err
	}
	return sq.Expr(jsonPath(path)+" "+op+" ?::jsonb", arg), nil
}

func selectFor(q docstore.Query) (string, []any, error) {
	b := psql.Select(columns...).From(table).Where(sq.Eq{"collection": q.Collection})
	for _, f := range q.Filters {
		e, err := filterExpr(f)
		if err != nil {
			return "", nil, err
		}
		b = b.Where(e)
	}
	for _, o := range q.Orders {
		if o.Path != docstore.IDPath {
			b = b.Where(jsonPath(o.Path) + " IS NOT NULL")
		}
	}
	ordering := q.Ordering()
	if q.After != nil {
		e, err := afterExpr(ordering, *q.After)
		if err != nil {
			return "", nil, err
		}
		b = b.Where(e)
	}
	for _, o := range ordering {
		b = b.OrderBy(orderSQL(o))
	}
	if q.Max > 0 {
		b = b.Limit(uint64(q.Max))
	}
	sql, args, err := b.ToSql()
	if err != nil {
		return "", nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "build query")
	}
	return sql, args, nil
}
