package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"popreel/internal/core/model"
	"popreel/internal/platform/docstore"
	"popreel/internal/platform/docstore/memdoc"
	perr "popreel/internal/platform/errors"
	"popreel/internal/platform/testkit"
	"popreel/internal/services/comments/repo"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) { goleak.VerifyTestMain(m) }

type sinkRec struct {
	mu  sync.Mutex
	got []model.Notification
}

func (s *sinkRec) Notify(_ context.Context, n model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, n)
	return nil
}

type fixture struct {
	db   *memdoc.Store
	svc  *Svc
	sink *sinkRec
	now  int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{db: memdoc.New(memdoc.WithIndexes(repo.Indexes...)), sink: &sinkRec{}, now: 1000}
	clock := func() time.Time {
		f.now++
		return time.UnixMilli(f.now)
	}
	f.svc = New(f.db, repo.New(), clock, f.sink)
	err := f.db.Set(context.Background(), docstore.Ref{Collection: model.Videos, ID: "v1"},
		docstore.Fields{"userId": "author", "commentCount": 0, "createdAt": 1})
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestPostedCommentArrivesFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fan := model.Author{UID: "fan", Name: "Fan"}
	if _, err := f.svc.Post(ctx, "v1", "first", fan); err != nil {
		t.Fatal(err)
	}

	got := make(chan []model.Comment, 8)
	sub, err := f.svc.Subscribe(ctx, "v1", func(cs []model.Comment, err error) {
		if err == nil {
			got <- cs
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Unsubscribe()

	initial := testkit.Recv(t, got, time.Second)
	if len(initial) != 1 || initial[0].Text != "first" {
		t.Fatalf("initial = %+v", initial)
	}

	id, err := f.svc.Post(ctx, "v1", "  second  ", fan)
	if err != nil {
		t.Fatal(err)
	}
	next := testkit.Recv(t, got, time.Second)
	if len(next) != 2 || next[0].ID != id || next[0].Text != "second" {
		t.Fatalf("after post = %+v", next)
	}
	if next[0].CreatedAt <= next[1].CreatedAt {
		t.Fatalf("not newest first: %d %d", next[0].CreatedAt, next[1].CreatedAt)
	}

	v, _ := f.db.Get(ctx, docstore.Ref{Collection: model.Videos, ID: "v1"})
	if v.Int("commentCount") != 2 {
		t.Fatalf("commentCount = %d", v.Int("commentCount"))
	}
	if len(f.sink.got) != 2 || f.sink.got[0].Type != model.NotifyComment || f.sink.got[0].TargetUserID != "author" {
		t.Fatalf("notifications = %+v", f.sink.got)
	}
}

func TestPostValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	who := model.Author{UID: "u"}
	cases := []struct {
		name  string
		video string
		text  string
		by    model.Author
		code  perr.ErrorCode
	}{
		{"blank", "v1", " \t\n", who, perr.ErrorCodeValidation},
		{"too long", "v1", strings.Repeat("é", 501), who, perr.ErrorCodeValidation},
		{"anonymous", "v1", "hi", model.Author{}, perr.ErrorCodeUnauthorized},
		{"unknown video", "ghost", "hi", who, perr.ErrorCodeNotFound},
	}
	for _, tc := range cases {
		if _, err := f.svc.Post(ctx, tc.video, tc.text, tc.by); !perr.IsCode(err, tc.code) {
			t.Fatalf("%s: %v", tc.name, err)
		}
	}
	if _, err := f.svc.Post(ctx, "v1", strings.Repeat("é", 500), who); err != nil {
		t.Fatalf("500 runes rejected: %v", err)
	}
	left, _ := f.db.Query(ctx, docstore.From(model.Comments))
	if len(left) != 1 {
		t.Fatalf("comments stored = %d", len(left))
	}
}

func TestUnsubscribeIsIdempotentAndStops(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	got := make(chan int, 8)
	sub, err := f.svc.WatchCount(ctx, "v1", func(n int, err error) { got <- n })
	if err != nil {
		t.Fatal(err)
	}
	if n := testkit.Recv(t, got, time.Second); n != 0 {
		t.Fatalf("initial count = %d", n)
	}
	sub.Unsubscribe()
	sub.Unsubscribe()
	if f.db.Watchers(model.Comments) != 0 {
		t.Fatalf("watcher still registered")
	}
	_, _ = f.svc.Post(ctx, "v1", "after", model.Author{UID: "u"})
	testkit.Quiet(t, got, 50*time.Millisecond)
}

func TestIndependentSubscriptions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b := make(chan int, 8), make(chan int, 8)
	subA, _ := f.svc.WatchCount(ctx, "v1", func(n int, _ error) { a <- n })
	subB, _ := f.svc.WatchCount(ctx, "v1", func(n int, _ error) { b <- n })
	defer subB.Unsubscribe()
	testkit.Recv(t, a, time.Second)
	testkit.Recv(t, b, time.Second)

	subA.Unsubscribe()
	_, _ = f.svc.Post(ctx, "v1", "hello", model.Author{UID: "u"})
	if n := testkit.Recv(t, b, time.Second); n != 1 {
		t.Fatalf("b count = %d", n)
	}
	testkit.Quiet(t, a, 50*time.Millisecond)
}

func TestListUnknownVideoIsEmpty(t *testing.T) {
	f := newFixture(t)
	got, err := f.svc.List(context.Background(), "ghost", 0)
	if err != nil || len(got) != 0 {
		t.Fatalf("list = %v %v", got, err)
	}
}
