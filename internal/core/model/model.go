// Package model is the shape of popreel's documents, shared by every service
// timestamps are integer milliseconds since the epoch
package model

// Collection names
const (
	Videos        = "videos"
	Likes         = "likes"
	Comments      = "comments"
	Users         = "users"
	Followers     = "followers"
	Following     = "following"
	Hashtags      = "hashtags"
	Notifications = "notifications"
	EngagementLog = "engagement_log"
)

// Video is one uploaded clip
// LikeCount mirrors the likes membership set; CommentCount is a cache of the live comment count
type Video struct {
	ID           string   `json:"id"`
	URL          string   `json:"url"`
	Thumbnail    string   `json:"thumbnail"`
	Caption      string   `json:"caption"`
	UserID       string   `json:"userId"`
	UserName     string   `json:"userName"`
	UserAvatar   string   `json:"userAvatar"`
	LikeCount    int64    `json:"likeCount"`
	CommentCount int64    `json:"commentCount"`
	CreatedAt    int64    `json:"createdAt"`
	Duration     int64    `json:"duration"`
	Format       string   `json:"format"`
	Width        int      `json:"width"`
	Height       int      `json:"height"`
	Hashtags     []string `json:"hashtags"`
}

// Comment is immutable once written
type Comment struct {
	ID         string `json:"id"`
	VideoID    string `json:"videoId"`
	Text       string `json:"text"`
	UserID     string `json:"userId"`
	UserName   string `json:"userName"`
	UserAvatar string `json:"userAvatar"`
	CreatedAt  int64  `json:"createdAt"`
}

// Profile is the public face of a user; PhotoURL is null until one is set
type Profile struct {
	UID            string  `json:"uid"`
	DisplayName    string  `json:"displayName"`
	PhotoURL       *string `json:"photoURL"`
	Email          string  `json:"email,omitempty"`
	FollowerCount  int64   `json:"followerCount"`
	FollowingCount int64   `json:"followingCount"`
	LikeCount      int64   `json:"likeCount"`
	VideoCount     int64   `json:"videoCount"`
	CreatedAt      int64   `json:"createdAt"`
}

// Stats are the counters shown on a profile
type Stats struct {
	Followers int64 `json:"followers"`
	Following int64 `json:"following"`
	Likes     int64 `json:"likes"`
	Videos    int64 `json:"videos"`
}

// StatsOf reads the counters off a profile
func StatsOf(p Profile) Stats {
	return Stats{Followers: p.FollowerCount, Following: p.FollowingCount, Likes: p.LikeCount, Videos: p.VideoCount}
}

// Notification kinds
const (
	NotifyLike    = "like"
	NotifyComment = "comment"
	NotifyFollow  = "follow"
)

// Notification tells TargetUserID that SourceUserID did something
type Notification struct {
	ID               string `json:"id"`
	Type             string `json:"type"`
	TargetUserID     string `json:"targetUserId"`
	SourceUserID     string `json:"sourceUserId"`
	SourceUserName   string `json:"sourceUserName"`
	SourceUserAvatar string `json:"sourceUserAvatar"`
	VideoID          string `json:"videoId,omitempty"`
	CreatedAt        int64  `json:"createdAt"`
	Read             bool   `json:"read"`
}

// EngagementEntry is the write-ahead record of one like toggle
type EngagementEntry struct {
	ID        string `json:"id"`
	VideoID   string `json:"videoId"`
	UserID    string `json:"userId"`
	Delta     int64  `json:"delta"`
	CreatedAt int64  `json:"createdAt"`
	Shipped   bool   `json:"shipped"`
}

// Author is who performed an action, as shown next to it
type Author struct {
	UID    string `json:"uid"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// DefaultDisplayName is used for profiles created before the user picks a name
const DefaultDisplayName = "User"
