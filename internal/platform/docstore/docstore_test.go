package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	perr "popreel/internal/platform/errors"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) { goleak.VerifyTestMain(m) }

func TestNormalize(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	cases := []struct {
		name string
		in   any
		want any
	}{
		{"int", 3, int64(3)},
		{"uint32", uint32(7), int64(7)},
		{"whole float", 2.0, int64(2)},
		{"fraction", 2.5, 2.5},
		{"json number", json.Number("12"), int64(12)},
		{"time", at, int64(1700000000123)},
		{"string list", []any{"a", "b"}, []string{"a", "b"}},
	}
	for _, tc := range cases {
		got := Normalize(tc.in)
		if Compare(got, tc.want) != 0 || rank(got) != rank(tc.want) {
			t.Fatalf("%s: got %#v want %#v", tc.name, got, tc.want)
		}
	}
	if _, ok := Normalize([]any{"a", 1}).([]any); !ok {
		t.Fatalf("mixed list should stay []any")
	}
}

func TestCompareRanksKinds(t *testing.T) {
	order := []any{nil, false, true, int64(-1), 0.5, int64(2), "a", "b", []string{"a"}, Fields{}}
	for i := 0; i < len(order)-1; i++ {
		if Compare(order[i], order[i+1]) >= 0 {
			t.Fatalf("%#v should sort before %#v", order[i], order[i+1])
		}
		if Compare(order[i+1], order[i]) <= 0 {
			t.Fatalf("compare not antisymmetric at %d", i)
		}
	}
}

func TestApplyTransforms(t *testing.T) {
	now := time.Unix(100, 0)
	cur := &Doc{Ref: Ref{"videos", "v"}, Version: 4, Fields: Fields{"likeCount": int64(0), "score": 1.5}}
	next, err := Apply(Write{Kind: KindUpdate, Ref: cur.Ref, Updates: []Update{
		{Path: "likeCount", Value: IncrementFloor(-1, 0)},
		{Path: "score", Value: Increment(1)},
		{Path: "users", Value: ArrayRemove("x")},
	}}, cur, now)
	if err != nil {
		t.Fatal(err)
	}
	if next.Int("likeCount") != 0 {
		t.Fatalf("likeCount went negative: %d", next.Int("likeCount"))
	}
	if next.Float("score") != 2.5 {
		t.Fatalf("score = %v", next.Float("score"))
	}
	if users, ok := next.Get("users"); !ok || len(users.([]string)) != 0 {
		t.Fatalf("remove on absent field should leave an empty list, got %#v", users)
	}
	if next.Version != 5 || cur.Int("likeCount") != 0 {
		t.Fatalf("version %d, cur mutated %v", next.Version, cur.Fields)
	}
}

func TestApplyPreconditions(t *testing.T) {
	now := time.Now()
	cur := &Doc{Ref: Ref{"likes", "v"}, Version: 2, Fields: Fields{}}
	cases := []struct {
		name string
		w    Write
		cur  *Doc
		code perr.ErrorCode
	}{
		{"create over existing", Write{Kind: KindCreate, Ref: cur.Ref}, cur, perr.ErrorCodeConflict},
		{"update missing", Write{Kind: KindUpdate, Ref: cur.Ref}, nil, perr.ErrorCodeNotFound},
		{"stale version", Write{Kind: KindUpdate, Ref: cur.Ref, Pre: []Precondition{LastVersion(1)}}, cur, perr.ErrorCodeConflict},
		{"delete needs exists", Write{Kind: KindDelete, Ref: cur.Ref, Pre: []Precondition{Exists(true)}}, nil, perr.ErrorCodeNotFound},
		{"empty id", Write{Kind: KindSet, Ref: Ref{Collection: "likes"}}, nil, perr.ErrorCodeInvalidArgument},
	}
	for _, tc := range cases {
		_, err := Apply(tc.w, tc.cur, now)
		if !perr.IsCode(err, tc.code) {
			t.Fatalf("%s: got %v", tc.name, err)
		}
	}

	pre := make([]Precondition, 0, 4)
	w := Write{Kind: KindUpdate, Ref: cur.Ref, Pre: pre}
	if _, err := Apply(w, cur, now); err != nil {
		t.Fatal(err)
	}
	if pre[:1][0].exists != nil {
		t.Fatalf("Apply wrote into the caller's precondition slice")
	}
}

func TestQueryOrderingAddsIDTiebreak(t *testing.T) {
	q := From("videos").OrderBy("createdAt", Desc)
	o := q.Ordering()
	if len(o) != 2 || o[1].Path != IDPath || o[1].Dir != Desc {
		t.Fatalf("ordering = %+v", o)
	}
	if got := From("videos").Ordering(); len(got) != 1 || got[0].Dir != Asc {
		t.Fatalf("default ordering = %+v", got)
	}
}

func TestQueryBuilderDoesNotAlias(t *testing.T) {
	base := From("videos").Where("userId", OpEq, "a")
	a := base.Where("caption", OpEq, "x")
	b := base.Where("caption", OpEq, "y")
	if a.Filters[1].Value == b.Filters[1].Value {
		t.Fatalf("derived queries share filter storage")
	}
}

func TestQueryValidate(t *testing.T) {
	bad := []Query{
		From(""),
		From("videos; drop"),
		From("videos").Where("a'b", OpEq, 1),
		From("videos").Where("a", Op("~"), 1),
		From("videos").Where("a", OpIn, "notalist"),
		From("videos").OrderBy("x y", Asc),
		From("videos").Limit(-1),
	}
	for i, q := range bad {
		if err := q.Validate(); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
			t.Fatalf("case %d: %v", i, err)
		}
	}
	if err := From("videos").Where("meta.kind", OpEq, "a").Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestRunStartAfterAndMissingFields(t *testing.T) {
	docs := []Doc{
		{Ref: Ref{"videos", "a"}, Fields: Fields{"createdAt": int64(3)}},
		{Ref: Ref{"videos", "b"}, Fields: Fields{"createdAt": int64(3)}},
		{Ref: Ref{"videos", "c"}, Fields: Fields{"createdAt": int64(1)}},
		{Ref: Ref{"videos", "d"}, Fields: Fields{}},
		{Ref: Ref{"comments", "e"}, Fields: Fields{"createdAt": int64(9)}},
	}
	q := From("videos").OrderBy("createdAt", Desc)
	got := q.Run(docs)
	if len(got) != 3 || got[0].ID() != "b" || got[1].ID() != "a" || got[2].ID() != "c" {
		t.Fatalf("run = %v", got)
	}
	after := q.StartAfter(Doc{Ref: Ref{"videos", "b"}, Fields: Fields{"createdAt": int64(3)}}).Run(docs)
	if len(after) != 2 || after[0].ID() != "a" {
		t.Fatalf("after = %v", after)
	}
}

func TestIndexesCheck(t *testing.T) {
	ix := NewIndexes(Index{Collection: "videos", Filters: []string{"userId"}, Orders: []string{"createdAt"}})
	ok := []Query{
		From("videos").OrderBy("createdAt", Desc),
		From("videos").Where("userId", OpEq, "u").Where("caption", OpEq, "c"),
		From("videos").Where("userId", OpEq, "u").OrderBy("createdAt", Desc),
		From("videos").Where("createdAt", OpLt, 5).OrderBy("createdAt", Desc),
		From("videos").Where(IDPath, OpIn, []string{"a"}).OrderBy("createdAt", Desc),
	}
	for i, q := range ok {
		if err := ix.Check(q); err != nil {
			t.Fatalf("case %d: %v", i, err)
		}
	}
	err := ix.Check(From("comments").Where("videoId", OpEq, "v").OrderBy("createdAt", Desc))
	if !perr.IsCode(err, perr.ErrorCodeFailedPrecondition) {
		t.Fatalf("want FailedPrecondition, got %v", err)
	}
	var none *Indexes
	if err := none.Check(From("a").Where("x", OpEq, 1).OrderBy("y", Asc)); err == nil {
		t.Fatalf("nil registry should refuse composite queries")
	}
}

func TestDataToAndFieldsOf(t *testing.T) {
	type video struct {
		ID        string   `json:"id"`
		Caption   string   `json:"caption"`
		LikeCount int64    `json:"likeCount"`
		Hashtags  []string `json:"hashtags"`
	}
	f, err := FieldsOf(video{Caption: "hi", LikeCount: 2, Hashtags: []string{"go"}})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := f["likeCount"].(int64); !ok {
		t.Fatalf("likeCount not normalized: %T", f["likeCount"])
	}
	v, err := Decode[video](Doc{Ref: Ref{"videos", "v9"}, Fields: f})
	if err != nil {
		t.Fatal(err)
	}
	if v.ID != "v9" || v.LikeCount != 2 || v.Hashtags[0] != "go" {
		t.Fatalf("decoded %+v", v)
	}
}

func TestBatchCollectsWrites(t *testing.T) {
	var got []Write
	b := NewBatch(func(_ context.Context, w []Write) error { got = w; return nil })
	if err := b.Commit(context.Background()); err != nil || got != nil {
		t.Fatalf("empty batch should not call commit")
	}
	b.Set(Ref{"a", "1"}, Fields{}, Merge()).Create(Ref{"b", "2"}, nil).Delete(Ref{"a", "3"})
	if b.Len() != 3 {
		t.Fatalf("len = %d", b.Len())
	}
	if err := b.Commit(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !got[0].Merge || got[1].Kind != KindCreate {
		t.Fatalf("writes = %+v", got)
	}
	if cs := Collections(got); len(cs) != 2 || cs[0] != "a" || cs[1] != "b" {
		t.Fatalf("collections = %v", cs)
	}
}

func TestWatchDeliversChangesOnly(t *testing.T) {
	var version atomic.Int64
	version.Store(1)
	poll := func(context.Context) ([]Doc, error) {
		return []Doc{{Ref: Ref{"c", "x"}, Version: version.Load()}}, nil
	}
	wake := make(chan struct{}, 1)
	got := make(chan int64, 8)
	sub := Watch(context.Background(), poll, WatchOptions{Wake: wake}, func(d []Doc, err error) {
		got <- d[0].Version
	})
	defer sub.Unsubscribe()

	if v := <-got; v != 1 {
		t.Fatalf("first = %d", v)
	}
	wake <- struct{}{}
	select {
	case v := <-got:
		t.Fatalf("unchanged result delivered: %d", v)
	case <-time.After(50 * time.Millisecond):
	}
	version.Store(2)
	wake <- struct{}{}
	if v := <-got; v != 2 {
		t.Fatalf("second = %d", v)
	}
}

func TestWatchReportsErrorsOnce(t *testing.T) {
	boom := errors.New("boom")
	errs := make(chan error, 4)
	wake := make(chan struct{}, 1)
	sub := Watch(context.Background(), func(context.Context) ([]Doc, error) { return nil, boom },
		WatchOptions{Wake: wake}, func(_ []Doc, err error) { errs <- err })
	if err := <-errs; !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	wake <- struct{}{}
	select {
	case <-errs:
		t.Fatalf("same error delivered twice")
	case <-time.After(50 * time.Millisecond):
	}
	sub.Unsubscribe()
	sub.Unsubscribe()
}

func TestWatchOnStopRunsOnContextEnd(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	sub := Watch(ctx, func(context.Context) ([]Doc, error) { return nil, nil },
		WatchOptions{Interval: time.Millisecond, OnStop: func() { close(stopped) }}, func([]Doc, error) {})
	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatalf("OnStop not called")
	}
	sub.Unsubscribe()
}
