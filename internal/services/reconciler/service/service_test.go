package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"popreel/internal/core/model"
	"popreel/internal/platform/docstore"
	"popreel/internal/platform/docstore/memdoc"
	perr "popreel/internal/platform/errors"
	"popreel/internal/services/reconciler/guardrails"
	"popreel/internal/services/reconciler/repo"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) { goleak.VerifyTestMain(m) }

type sinkRec struct {
	got []model.EngagementEntry
	err error
}

func (s *sinkRec) Ship(_ context.Context, e []model.EngagementEntry) error {
	if s.err != nil {
		return s.err
	}
	s.got = append(s.got, e...)
	return nil
}

func seed(t *testing.T) *memdoc.Store {
	t.Helper()
	db := memdoc.New(memdoc.WithIndexes(repo.Indexes...))
	ctx := context.Background()
	set := func(c, id string, f docstore.Fields) {
		if err := db.Set(ctx, docstore.Ref{Collection: c, ID: id}, f); err != nil {
			t.Fatal(err)
		}
	}
	// v1 drifted high, v2 in step, v3 deleted
	set(model.Videos, "v1", docstore.Fields{"likeCount": 5})
	set(model.Likes, "v1", docstore.Fields{"users": []string{"a", "b"}})
	set(model.Videos, "v2", docstore.Fields{"likeCount": 1})
	set(model.Likes, "v2", docstore.Fields{"users": []string{"c"}})
	for i, e := range []struct{ id, video, user string }{
		{"e1", "v1", "a"}, {"e2", "v2", "c"}, {"e3", "v1", "b"}, {"e4", "v3", "a"},
	} {
		set(model.EngagementLog, e.id, docstore.Fields{
			"videoId": e.video, "userId": e.user, "delta": 1, "createdAt": int64(100 + i), "shipped": false,
		})
	}
	return db
}

func likeCount(t *testing.T, db docstore.Client, id string) int64 {
	t.Helper()
	d, err := db.Get(context.Background(), docstore.Ref{Collection: model.Videos, ID: id})
	if err != nil {
		t.Fatal(err)
	}
	return d.Int("likeCount")
}

func unshipped(t *testing.T, db docstore.Client) int {
	t.Helper()
	docs, err := db.Query(context.Background(), docstore.From(model.EngagementLog).Where("shipped", docstore.OpEq, false))
	if err != nil {
		t.Fatal(err)
	}
	return len(docs)
}

func TestRunOnceShipsAuditsAndRepairs(t *testing.T) {
	db := seed(t)
	sink := &sinkRec{}
	s := New(db, repo.New(), sink, Config{Repair: true}, nil)

	rep, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if rep.Leased != 4 || rep.Shipped != 4 || rep.Audited != 2 || rep.Drifted != 1 || rep.Repaired != 1 {
		t.Fatalf("report = %+v", rep)
	}
	if got := likeCount(t, db, "v1"); got != 2 {
		t.Fatalf("v1 likeCount = %d", got)
	}
	if got := likeCount(t, db, "v2"); got != 1 {
		t.Fatalf("v2 likeCount = %d", got)
	}
	if sink.got[0].ID != "e1" || sink.got[3].ID != "e4" {
		t.Fatalf("shipped out of order: %+v", sink.got)
	}
	if n := unshipped(t, db); n != 0 {
		t.Fatalf("%d entries left unshipped", n)
	}

	again, err := s.RunOnce(context.Background())
	if err != nil || again.Leased != 0 {
		t.Fatalf("second pass = %+v, %v", again, err)
	}
}

func TestRunOnceWithoutRepairOnlyReports(t *testing.T) {
	db := seed(t)
	s := New(db, repo.New(), nil, Config{}, nil)
	rep, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if rep.Drifted != 1 || rep.Repaired != 0 || rep.Shipped != 0 {
		t.Fatalf("report = %+v", rep)
	}
	if got := likeCount(t, db, "v1"); got != 5 {
		t.Fatalf("counter touched without repair: %d", got)
	}
	if n := unshipped(t, db); n != 0 {
		t.Fatalf("entries should be marked even with no sink: %d left", n)
	}
}

func TestSinkFailureKeepsEntries(t *testing.T) {
	db := seed(t)
	s := New(db, repo.New(), &sinkRec{err: errors.New("clickhouse down")}, Config{Repair: true}, nil)
	_, err := s.RunOnce(context.Background())
	if !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("err = %v", err)
	}
	if n := unshipped(t, db); n != 4 {
		t.Fatalf("unshipped = %d", n)
	}
	if got := likeCount(t, db, "v1"); got != 5 {
		t.Fatalf("repaired before shipping: %d", got)
	}
}

func TestBatchTakesOldestFirst(t *testing.T) {
	db := seed(t)
	sink := &sinkRec{}
	s := New(db, repo.New(), sink, Config{Batch: 2}, nil)
	rep, err := s.RunOnce(context.Background())
	if err != nil || rep.Leased != 2 {
		t.Fatalf("rep = %+v, %v", rep, err)
	}
	if sink.got[0].ID != "e1" || sink.got[1].ID != "e2" {
		t.Fatalf("shipped = %+v", sink.got)
	}
}

func TestHeldLeaseSkips(t *testing.T) {
	db := seed(t)
	now := time.Now()
	clock := func() time.Time { return now }
	other := guardrails.MakeLease(db, "other", time.Minute, clock)
	s := New(db, repo.New(), nil, Config{EnableLeases: true}, guardrails.MakeLease(db, "me", time.Minute, clock))

	err := other(context.Background(), LeaseName, func(ctx context.Context) error {
		rep, err := s.RunOnce(ctx)
		if err != nil || !rep.Skipped {
			t.Fatalf("rep = %+v, %v", rep, err)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if rep, err := s.RunOnce(context.Background()); err != nil || rep.Leased != 4 {
		t.Fatalf("after release: %+v, %v", rep, err)
	}
}

func TestRunStopsWithContext(t *testing.T) {
	db := seed(t)
	s := New(db, repo.New(), nil, Config{Interval: time.Millisecond}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Run did not stop")
	}
}
