// Package doctest is the behaviour suite every docstore driver must pass
package doctest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"popreel/internal/platform/docstore"
	perr "popreel/internal/platform/errors"
)

// Indexes are the composite indexes the suite's queries rely on
var Indexes = []docstore.Index{
	{Collection: "items", Filters: []string{"group"}, Orders: []string{"rank"}},
}

// Opener returns an empty store with the given indexes declared
type Opener func(t *testing.T, ix []docstore.Index) docstore.Client

// Run exercises open's store against the docstore contract
func Run(t *testing.T, open Opener) {
	cases := []struct {
		name string
		fn   func(*testing.T, docstore.Client)
	}{
		{"GetMissing", getMissing},
		{"SetAndMerge", setAndMerge},
		{"CreateConflicts", createConflicts},
		{"UpdateMissing", updateMissing},
		{"Transforms", transforms},
		{"LastVersion", lastVersion},
		{"BatchAtomic", batchAtomic},
		{"GetAllOrder", getAllOrder},
		{"QueryOrderAndFilters", queryOrderAndFilters},
		{"Paging", paging},
		{"IndexRequired", indexRequired},
		{"Subscribe", subscribe},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) { c.fn(t, open(t, Indexes)) })
	}
}

func ref(coll, id string) docstore.Ref { return docstore.Ref{Collection: coll, ID: id} }

func ctx(t *testing.T) context.Context {
	c, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return c
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func wantCode(t *testing.T, err error, code perr.ErrorCode) {
	t.Helper()
	if !perr.IsCode(err, code) {
		t.Fatalf("want %s, got %v (%s)", code, err, perr.CodeOf(err))
	}
}

func ids(docs []docstore.Doc) string {
	s := ""
	for i, d := range docs {
		if i > 0 {
			s += ","
		}
		s += d.ID()
	}
	return s
}

func getMissing(t *testing.T, c docstore.Client) {
	_, err := c.Get(ctx(t), ref("items", "nope"))
	wantCode(t, err, perr.ErrorCodeNotFound)
}

func setAndMerge(t *testing.T, c docstore.Client) {
	x := ctx(t)
	r := ref("items", "a")
	must(t, c.Set(x, r, docstore.Fields{"name": "first", "n": 1, "tags": []string{"x"}}))
	must(t, c.Set(x, r, docstore.Fields{"n": 2}, docstore.Merge()))

	d, err := c.Get(x, r)
	must(t, err)
	if d.Str("name") != "first" || d.Int("n") != 2 || len(d.Strings("tags")) != 1 {
		t.Fatalf("merge lost fields: %#v", d.Fields)
	}
	if d.Version != 2 {
		t.Fatalf("version = %d, want 2", d.Version)
	}

	must(t, c.Set(x, r, docstore.Fields{"n": 3}))
	d, err = c.Get(x, r)
	must(t, err)
	if _, ok := d.Get("name"); ok || d.Int("n") != 3 {
		t.Fatalf("overwrite kept old fields: %#v", d.Fields)
	}
}

func createConflicts(t *testing.T, c docstore.Client) {
	x := ctx(t)
	r, err := c.Create(x, "items", docstore.Fields{"name": "fresh"})
	must(t, err)
	if r.ID == "" || r.Collection != "items" {
		t.Fatalf("bad ref %+v", r)
	}
	err = c.Batch().Create(r, docstore.Fields{"name": "again"}).Commit(x)
	wantCode(t, err, perr.ErrorCodeConflict)
}

func updateMissing(t *testing.T, c docstore.Client) {
	err := c.Update(ctx(t), ref("items", "ghost"), []docstore.Update{{Path: "n", Value: 1}})
	wantCode(t, err, perr.ErrorCodeNotFound)
}

func transforms(t *testing.T, c docstore.Client) {
	x := ctx(t)
	r := ref("items", "t")
	must(t, c.Set(x, r, docstore.Fields{"count": 1, "users": []string{"u1"}, "gone": true}))
	must(t, c.Update(x, r, []docstore.Update{
		{Path: "count", Value: docstore.IncrementFloor(-5, 0)},
		{Path: "users", Value: docstore.ArrayUnion("u1", "u2")},
		{Path: "gone", Value: docstore.DeleteField},
		{Path: "fresh", Value: docstore.Increment(3)},
		{Path: "meta.seen", Value: true},
	}))
	d, err := c.Get(x, r)
	must(t, err)
	if d.Int("count") != 0 {
		t.Fatalf("floored increment = %d", d.Int("count"))
	}
	if got := d.Strings("users"); len(got) != 2 || got[0] != "u1" || got[1] != "u2" {
		t.Fatalf("union = %v", got)
	}
	if _, ok := d.Get("gone"); ok {
		t.Fatalf("field not deleted")
	}
	if d.Int("fresh") != 3 || !d.Bool("meta.seen") {
		t.Fatalf("fields = %#v", d.Fields)
	}

	must(t, c.Update(x, r, []docstore.Update{{Path: "users", Value: docstore.ArrayRemove("u1")}}))
	d, err = c.Get(x, r)
	must(t, err)
	if got := d.Strings("users"); len(got) != 1 || got[0] != "u2" {
		t.Fatalf("remove = %v", got)
	}
}

func lastVersion(t *testing.T, c docstore.Client) {
	x := ctx(t)
	r := ref("items", "v")
	must(t, c.Set(x, r, docstore.Fields{"n": 1}))
	d, err := c.Get(x, r)
	must(t, err)
	must(t, c.Update(x, r, []docstore.Update{{Path: "n", Value: 2}}, docstore.LastVersion(d.Version)))
	err = c.Update(x, r, []docstore.Update{{Path: "n", Value: 3}}, docstore.LastVersion(d.Version))
	wantCode(t, err, perr.ErrorCodeConflict)
}

func batchAtomic(t *testing.T, c docstore.Client) {
	x := ctx(t)
	must(t, c.Set(x, ref("items", "counter"), docstore.Fields{"n": 0}))
	err := c.Batch().
		Update(ref("items", "counter"), []docstore.Update{{Path: "n", Value: docstore.Increment(1)}}).
		Update(ref("items", "missing"), []docstore.Update{{Path: "n", Value: 1}}).
		Commit(x)
	wantCode(t, err, perr.ErrorCodeNotFound)

	d, err := c.Get(x, ref("items", "counter"))
	must(t, err)
	if d.Int("n") != 0 || d.Version != 1 {
		t.Fatalf("partial batch applied: n=%d version=%d", d.Int("n"), d.Version)
	}

	must(t, c.Batch().
		Update(ref("items", "counter"), []docstore.Update{{Path: "n", Value: docstore.Increment(1)}}).
		Update(ref("items", "counter"), []docstore.Update{{Path: "n", Value: docstore.Increment(1)}}).
		Set(ref("items", "other"), docstore.Fields{"ok": true}).
		Commit(x))
	d, err = c.Get(x, ref("items", "counter"))
	must(t, err)
	if d.Int("n") != 2 {
		t.Fatalf("n = %d, want 2", d.Int("n"))
	}
}

func getAllOrder(t *testing.T, c docstore.Client) {
	x := ctx(t)
	for _, id := range []string{"a", "b", "c"} {
		must(t, c.Set(x, ref("items", id), docstore.Fields{"id": id}))
	}
	got, err := c.GetAll(x, []docstore.Ref{ref("items", "c"), ref("items", "zz"), ref("items", "a")})
	must(t, err)
	if ids(got) != "c,a" {
		t.Fatalf("GetAll = %s", ids(got))
	}
}

func seed(t *testing.T, c docstore.Client) {
	x := ctx(t)
	rows := []struct {
		id    string
		group string
		rank  int
		tags  []string
	}{
		{"i1", "g1", 1, []string{"red"}},
		{"i2", "g1", 3, []string{"blue"}},
		{"i3", "g2", 3, []string{"red", "blue"}},
		{"i4", "g1", 2, nil},
		{"i5", "g2", 5, []string{"green"}},
	}
	for _, r := range rows {
		f := docstore.Fields{"group": r.group, "rank": r.rank}
		if r.tags != nil {
			f["tags"] = r.tags
		}
		must(t, c.Set(x, ref("items", r.id), f))
	}
}

func queryOrderAndFilters(t *testing.T, c docstore.Client) {
	seed(t, c)
	x := ctx(t)
	cases := []struct {
		name string
		q    docstore.Query
		want string
	}{
		{"desc with id tiebreak", docstore.From("items").OrderBy("rank", docstore.Desc), "i5,i3,i2,i4,i1"},
		{"asc", docstore.From("items").OrderBy("rank", docstore.Asc).Limit(2), "i1,i4"},
		{"eq", docstore.From("items").Where("group", docstore.OpEq, "g2"), "i3,i5"},
		{"eq ordered", docstore.From("items").Where("group", docstore.OpEq, "g1").OrderBy("rank", docstore.Desc), "i2,i4,i1"},
		{"range", docstore.From("items").Where("rank", docstore.OpGte, 3).OrderBy("rank", docstore.Asc), "i2,i3,i5"},
		{"array contains", docstore.From("items").Where("tags", docstore.OpArrayContains, "red"), "i1,i3"},
		{"in", docstore.From("items").Where("group", docstore.OpIn, []string{"g2", "g9"}), "i3,i5"},
		{"id in", docstore.From("items").Where(docstore.IDPath, docstore.OpIn, []string{"i4", "i1"}), "i1,i4"},
		{"kind mismatch", docstore.From("items").Where("rank", docstore.OpEq, "3"), ""},
	}
	for _, tc := range cases {
		got, err := c.Query(x, tc.q)
		must(t, err)
		if ids(got) != tc.want {
			t.Fatalf("%s: got %s want %s", tc.name, ids(got), tc.want)
		}
	}
}

func paging(t *testing.T, c docstore.Client) {
	x := ctx(t)
	for i := 1; i <= 5; i++ {
		must(t, c.Set(x, ref("items", fmt.Sprintf("p%d", i)), docstore.Fields{"createdAt": int64(i)}))
	}
	q := docstore.From("items").OrderBy("createdAt", docstore.Desc).Limit(2)
	var pages []string
	cur := q
	for range 4 {
		got, err := c.Query(x, cur)
		must(t, err)
		pages = append(pages, ids(got))
		if len(got) == 0 {
			break
		}
		cur = q.StartAfter(docstore.Doc{Ref: got[len(got)-1].Ref, Fields: docstore.Fields{"createdAt": got[len(got)-1].Int("createdAt")}})
	}
	want := []string{"p5,p4", "p3,p2", "p1", ""}
	if fmt.Sprint(pages) != fmt.Sprint(want) {
		t.Fatalf("pages = %q, want %q", pages, want)
	}
}

func indexRequired(t *testing.T, c docstore.Client) {
	x := ctx(t)
	q := docstore.From("items").Where("tags", docstore.OpArrayContains, "red").OrderBy("rank", docstore.Desc)
	_, err := c.Query(x, q)
	wantCode(t, err, perr.ErrorCodeFailedPrecondition)

	_, err = c.Subscribe(x, q, func([]docstore.Doc, error) {})
	wantCode(t, err, perr.ErrorCodeFailedPrecondition)
}

func subscribe(t *testing.T, c docstore.Client) {
	x := ctx(t)
	must(t, c.Set(x, ref("items", "s1"), docstore.Fields{"group": "live", "rank": 1}))

	var (
		mu    sync.Mutex
		seen  []string
		calls = make(chan struct{}, 16)
	)
	q := docstore.From("items").Where("group", docstore.OpEq, "live").OrderBy("rank", docstore.Desc)
	sub, err := c.Subscribe(x, q, func(docs []docstore.Doc, err error) {
		if err != nil {
			return
		}
		mu.Lock()
		seen = append(seen, ids(docs))
		mu.Unlock()
		calls <- struct{}{}
	})
	must(t, err)

	waitCall := func() {
		t.Helper()
		select {
		case <-calls:
		case <-time.After(5 * time.Second):
			t.Fatalf("no delivery")
		}
	}
	waitCall()
	must(t, c.Set(x, ref("items", "s2"), docstore.Fields{"group": "live", "rank": 2}))
	waitCall()

	sub.Unsubscribe()
	sub.Unsubscribe()
	must(t, c.Set(x, ref("items", "s3"), docstore.Fields{"group": "live", "rank": 3}))
	select {
	case <-calls:
		t.Fatalf("delivery after unsubscribe")
	case <-time.After(100 * time.Millisecond):
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 || seen[0] != "s1" || seen[1] != "s2,s1" {
		t.Fatalf("deliveries = %q", seen)
	}
}
