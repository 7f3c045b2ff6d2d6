package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"popreel/internal/core/model"
	"popreel/internal/platform/docstore"
	"popreel/internal/platform/docstore/memdoc"
	perr "popreel/internal/platform/errors"
	"popreel/internal/platform/store/rds"
	"popreel/internal/services/profiles/domain"
	"popreel/internal/services/profiles/repo"
)

var clock = func() time.Time { return time.UnixMilli(5000) }

// memCache is an in-process stand-in for redis
type memCache struct {
	mu   sync.Mutex
	m    map[string][]byte
	gets int
}

func newMemCache() *memCache { return &memCache{m: map[string][]byte{}} }

func (c *memCache) GetJSON(_ context.Context, key string, dst any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	b, ok := c.m[key]
	if !ok {
		return rds.ErrMiss
	}
	return json.Unmarshal(b, dst)
}

func (c *memCache) SetJSON(_ context.Context, key string, v any, _ time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = b
	return nil
}

func (c *memCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.m, k)
	}
	return nil
}

func putVideo(t *testing.T, db docstore.Client, id, uid string, at int64) {
	t.Helper()
	err := db.Set(context.Background(), docstore.Ref{Collection: model.Videos, ID: id},
		docstore.Fields{"userId": uid, "createdAt": at, "likeCount": 0})
	if err != nil {
		t.Fatal(err)
	}
}

func TestEmptyUserLoadsZeros(t *testing.T) {
	db := memdoc.New(memdoc.WithIndexes(repo.Indexes...))
	s := New(db, repo.New(), clock)

	for _, owner := range []bool{false, true} {
		v, err := s.LoadProfile(context.Background(), "nobody", owner)
		if err != nil {
			t.Fatalf("owner=%v: %v", owner, err)
		}
		if v.Stats != (model.Stats{}) || len(v.Videos) != 0 || v.Videos == nil {
			t.Fatalf("owner=%v view = %+v", owner, v)
		}
		if owner && (v.Liked == nil || v.Profile != nil) {
			t.Fatalf("owner view = %+v", v)
		}
	}
}

func TestVisitorCreatesDefaultProfile(t *testing.T) {
	db := memdoc.New(memdoc.WithIndexes(repo.Indexes...))
	s := New(db, repo.New(), clock)

	v, err := s.LoadProfile(context.Background(), "u9", false)
	if err != nil {
		t.Fatal(err)
	}
	if v.Profile == nil || v.Profile.DisplayName != "User" || v.Profile.PhotoURL != nil || v.Profile.CreatedAt != 5000 {
		t.Fatalf("profile = %+v", v.Profile)
	}
	d, err := db.Get(context.Background(), docstore.Ref{Collection: model.Users, ID: "u9"})
	if err != nil {
		t.Fatal(err)
	}
	if photo, ok := d.Get("photoURL"); !ok || photo != nil {
		t.Fatalf("photoURL stored as %#v", photo)
	}
}

func TestOwnerSeesLikedVideos(t *testing.T) {
	db := memdoc.New(memdoc.WithIndexes(repo.Indexes...))
	ctx := context.Background()
	putVideo(t, db, "mine", "owner", 3)
	putVideo(t, db, "theirs", "other", 2)
	_ = db.Set(ctx, docstore.Ref{Collection: model.Likes, ID: "theirs"}, docstore.Fields{"users": []string{"owner", "x"}})
	_ = db.Set(ctx, docstore.Ref{Collection: model.Likes, ID: "mine"}, docstore.Fields{"users": []string{"x"}})
	_ = db.Set(ctx, docstore.Ref{Collection: model.Users, ID: "owner"}, docstore.Fields{"followerCount": 4, "videoCount": 1})

	s := New(db, repo.New(), clock)
	v, err := s.LoadProfile(ctx, "owner", true)
	if err != nil {
		t.Fatal(err)
	}
	if len(v.Liked) != 1 || v.Liked[0].ID != "theirs" {
		t.Fatalf("liked = %+v", v.Liked)
	}
	if len(v.Videos) != 1 || v.Videos[0].ID != "mine" {
		t.Fatalf("videos = %+v", v.Videos)
	}
	if v.Stats.Followers != 4 || v.Stats.Videos != 1 {
		t.Fatalf("stats = %+v", v.Stats)
	}
}

func TestMissingIndexFallsBackToSortedRead(t *testing.T) {
	db := memdoc.New()
	putVideo(t, db, "a", "u", 1)
	putVideo(t, db, "c", "u", 5)
	putVideo(t, db, "b", "u", 5)
	putVideo(t, db, "z", "other", 9)

	if _, err := repo.New().Bind(db).VideosByUser(context.Background(), "u", true, 10); !perr.IsCode(err, perr.ErrorCodeFailedPrecondition) {
		t.Fatalf("store did not refuse the unindexed query: %v", err)
	}

	s := New(db, repo.New(), clock)
	v, err := s.LoadProfile(context.Background(), "u", true)
	if err != nil {
		t.Fatal(err)
	}
	got := ""
	for _, x := range v.Videos {
		got += x.ID
	}
	if got != "cba" {
		t.Fatalf("order = %q", got)
	}
}

func TestMissingIndexKeepsNewestPastTheCap(t *testing.T) {
	db := memdoc.New()
	// inserted oldest first so an unordered capped read would keep the old ones
	for i := 1; i <= 5; i++ {
		putVideo(t, db, fmt.Sprintf("v%d", i), "u", int64(i))
	}

	s := New(db, repo.New(), clock)
	s.listed = 2
	v, err := s.LoadProfile(context.Background(), "u", true)
	if err != nil {
		t.Fatal(err)
	}
	if len(v.Videos) != 2 || v.Videos[0].ID != "v5" || v.Videos[1].ID != "v4" {
		t.Fatalf("videos = %+v", v.Videos)
	}
}

func TestStatsCacheAndInvalidate(t *testing.T) {
	db := memdoc.New(memdoc.WithIndexes(repo.Indexes...))
	ctx := context.Background()
	ref := docstore.Ref{Collection: model.Users, ID: "u"}
	_ = db.Set(ctx, ref, docstore.Fields{"likeCount": 2})
	cache := newMemCache()
	s := New(db, repo.New(), clock, WithCache(cache, time.Minute))

	st, _ := s.Stats(ctx, "u")
	if st.Likes != 2 {
		t.Fatalf("likes = %d", st.Likes)
	}
	_ = db.Set(ctx, ref, docstore.Fields{"likeCount": 3})
	if st, _ = s.Stats(ctx, "u"); st.Likes != 2 {
		t.Fatalf("cached read = %d", st.Likes)
	}
	s.Invalidate(ctx, "u")
	if st, _ = s.Stats(ctx, "u"); st.Likes != 3 {
		t.Fatalf("after invalidate = %d", st.Likes)
	}
}

func TestEnsureProfileKeepsExisting(t *testing.T) {
	db := memdoc.New(memdoc.WithIndexes(repo.Indexes...))
	s := New(db, repo.New(), clock)
	ctx := context.Background()
	who := model.Author{UID: "u1", Name: "Ann", Avatar: "https://img/a.png"}

	p, err := s.EnsureProfile(ctx, who, "")
	if err != nil {
		t.Fatal(err)
	}
	if p.DisplayName != "Ann" || p.PhotoURL == nil || *p.PhotoURL != who.Avatar {
		t.Fatalf("created = %+v", p)
	}

	name := "Annie"
	if _, err := s.UpdateProfile(ctx, "u1", domain.UpdateInput{DisplayName: &name}); err != nil {
		t.Fatal(err)
	}
	p, err = s.EnsureProfile(ctx, who, "ann@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if p.DisplayName != "Annie" || p.Email != "ann@example.com" {
		t.Fatalf("second ensure = %+v", p)
	}
	if _, err := s.EnsureProfile(ctx, model.Author{}, ""); !perr.IsCode(err, perr.ErrorCodeUnauthorized) {
		t.Fatalf("anonymous: %v", err)
	}
}

func TestEnsureProfileFillsCounterOnlyDoc(t *testing.T) {
	db := memdoc.New(memdoc.WithIndexes(repo.Indexes...))
	s := New(db, repo.New(), clock)
	ctx := context.Background()
	ref := docstore.Ref{Collection: model.Users, ID: "u2"}
	if err := db.Set(ctx, ref, docstore.Fields{"videoCount": docstore.Increment(1)}, docstore.Merge()); err != nil {
		t.Fatal(err)
	}

	p, err := s.EnsureProfile(ctx, model.Author{UID: "u2", Name: "Bo"}, "")
	if err != nil {
		t.Fatal(err)
	}
	if p.DisplayName != "Bo" || p.VideoCount != 1 || p.CreatedAt != 5000 {
		t.Fatalf("ensured = %+v", p)
	}
}

func TestUpdateProfile(t *testing.T) {
	db := memdoc.New()
	s := New(db, repo.New(), clock)
	ctx := context.Background()

	if _, err := s.UpdateProfile(ctx, "u", domain.UpdateInput{}); !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("empty update: %v", err)
	}
	blank := "  "
	if _, err := s.UpdateProfile(ctx, "u", domain.UpdateInput{DisplayName: &blank}); !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("blank name: %v", err)
	}
	photo := "https://img/p.png"
	p, err := s.UpdateProfile(ctx, "u", domain.UpdateInput{PhotoURL: &photo})
	if err != nil {
		t.Fatal(err)
	}
	if p.DisplayName != "User" || p.PhotoURL == nil || *p.PhotoURL != photo {
		t.Fatalf("updated = %+v", p)
	}
	clear := ""
	p, _ = s.UpdateProfile(ctx, "u", domain.UpdateInput{PhotoURL: &clear})
	if p.PhotoURL != nil {
		t.Fatalf("photo not cleared: %v", *p.PhotoURL)
	}
}
