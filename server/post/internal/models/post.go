package models

import (
	"time"
)

// Post is the canonical content entity, owned exclusively by the post service
// and mutable only through its API. The search and media services hold derived
// projections kept in sync through domain events.
type Post struct {
	ID        string    `bson:"_id" json:"id"`
	UserID    string    `bson:"userId" json:"userId"`
	Content   string    `bson:"content" json:"content"`
	MediaIDs  []string  `bson:"mediaIds" json:"mediaIds"`
	Likes     int64     `bson:"likes" json:"likes"`
	Comments  int64     `bson:"comments" json:"comments"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

type CreatePostRequest struct {
	Content  string   `json:"content" binding:"required,max=5000"`
	MediaIDs []string `json:"mediaIds"`
}

type PaginatedPostsResponse struct {
	Posts      []Post `json:"posts"`
	Page       int    `json:"currentPage"`
	TotalPages int64  `json:"totalPages"`
	TotalPosts int64  `json:"totalPosts"`
}
