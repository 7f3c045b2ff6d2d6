package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"popreel/internal/core/model"
	"popreel/internal/platform/docstore"
	"popreel/internal/platform/docstore/memdoc"
	perr "popreel/internal/platform/errors"
	"popreel/internal/services/follows/repo"
)

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

func counters(t *testing.T, db docstore.Client, uid string) (followers, following int64) {
	t.Helper()
	d, err := db.Get(context.Background(), docstore.Ref{Collection: model.Users, ID: uid})
	if err != nil {
		t.Fatal(err)
	}
	return d.Int("followerCount"), d.Int("followingCount")
}

func TestToggleFollowUpdatesBothSides(t *testing.T) {
	db := memdoc.New()
	ctx := context.Background()
	_ = db.Set(ctx, docstore.Ref{Collection: model.Users, ID: "star"}, docstore.Fields{"displayName": "Star"})
	sink := &sinkRec{}
	s := New(db, repo.New(), nil, sink, nil)
	fan := model.Author{UID: "fan", Name: "Fan"}

	on, err := s.ToggleFollow(ctx, "star", fan)
	if err != nil || !on {
		t.Fatalf("follow = %v %v", on, err)
	}
	if f, _ := counters(t, db, "star"); f != 1 {
		t.Fatalf("star followers = %d", f)
	}
	if _, f := counters(t, db, "fan"); f != 1 {
		t.Fatalf("fan following = %d", f)
	}
	if ok, _ := s.IsFollowing(ctx, "star", "fan"); !ok {
		t.Fatalf("IsFollowing false after follow")
	}
	followers, _ := s.Followers(ctx, "star")
	if len(followers) != 1 || followers[0] != "fan" {
		t.Fatalf("followers = %v", followers)
	}

	off, err := s.ToggleFollow(ctx, "star", fan)
	if err != nil || off {
		t.Fatalf("unfollow = %v %v", off, err)
	}
	if f, _ := counters(t, db, "star"); f != 0 {
		t.Fatalf("star followers after unfollow = %d", f)
	}
	if len(sink.got) != 1 || sink.got[0].Type != model.NotifyFollow || sink.got[0].TargetUserID != "star" {
		t.Fatalf("notifications = %+v", sink.got)
	}
}

func TestToggleFollowErrors(t *testing.T) {
	db := memdoc.New()
	s := New(db, repo.New(), nil, nil, nil)
	ctx := context.Background()
	_ = db.Set(ctx, docstore.Ref{Collection: model.Users, ID: "me"}, docstore.Fields{})

	if _, err := s.ToggleFollow(ctx, "me", model.Author{UID: "me"}); !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("self follow: %v", err)
	}
	if _, err := s.ToggleFollow(ctx, "ghost", model.Author{UID: "me"}); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("unknown user: %v", err)
	}
	if _, err := s.ToggleFollow(ctx, "me", model.Author{}); !perr.IsCode(err, perr.ErrorCodeUnauthorized) {
		t.Fatalf("anonymous: %v", err)
	}
}

func TestConcurrentFollowersAllCounted(t *testing.T) {
	db := memdoc.New()
	ctx := context.Background()
	_ = db.Set(ctx, docstore.Ref{Collection: model.Users, ID: "star"}, docstore.Fields{})
	s := New(db, repo.New(), nil, nil, nil)

	const fans = 10
	var wg sync.WaitGroup
	errs := make(chan error, fans)
	for i := range fans {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// fans contend on followers/star; the loser of a race retries its batch
			_, err := s.ToggleFollow(ctx, "star", model.Author{UID: fmt.Sprintf("fan%d", i)})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	failed := 0
	for err := range errs {
		if err != nil {
			if !perr.IsCode(err, perr.ErrorCodeConflict) {
				t.Fatalf("unexpected error: %v", err)
			}
			failed++
		}
	}
	f, _ := counters(t, db, "star")
	members, _ := s.Followers(ctx, "star")
	if int(f) != len(members) || len(members) != fans-failed {
		t.Fatalf("followerCount %d members %d failed %d", f, len(members), failed)
	}
}
