package models

import "time"

// Media is blob metadata. It references its owning post only through the
// post's mediaIds list, never a hard foreign key; cleanup after a post delete
// rides the content.deleted event.
type Media struct {
	ID           string    `bson:"_id" json:"id"`
	PublicID     string    `bson:"publicId" json:"publicId"`
	OriginalName string    `bson:"originalName" json:"originalName"`
	MimeType     string    `bson:"mimeType" json:"mimeType"`
	URL          string    `bson:"url" json:"url"`
	UserID       string    `bson:"userId" json:"userId"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
}

type UploadResponse struct {
	MediaID string `json:"mediaId"`
	URL     string `json:"url"`
}
