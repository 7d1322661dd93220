package models

import "time"

// SearchRecord is the per-post projection held by the search service, keyed
// 1:1 by post id. It exists (eventually) iff a non-deleted post exists; the
// projector maintains it from content.created / content.deleted events.
type SearchRecord struct {
	PostID    string    `bson:"postId" json:"postId"`
	UserID    string    `bson:"userId" json:"userId"`
	Content   string    `bson:"content" json:"content"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
