// Package domain holds DTOs and ports for follows
package domain

// FollowState is what the follow endpoints answer with
type FollowState struct {
	UID       string `json:"uid"`
	Following bool   `json:"following"`
}

// Members lists the uids on one side of a follow graph
type Members struct {
	UID   string   `json:"uid"`
	Users []string `json:"users"`
}
