// Package events wraps the RabbitMQ topic exchange that carries domain events
// between the services. Delivery is at-least-once and unordered across
// consumers; every handler must be idempotent under redelivery.
package events

import "time"

const (
	// Exchange is the durable topic exchange all domain events flow through.
	Exchange = "content_events"

	ContentCreated = "content.created"
	ContentDeleted = "content.deleted"
)

// ContentCreatedEvent carries enough denormalized data for projectors to act
// without calling back into the post service.
type ContentCreatedEvent struct {
	PostID    string    `json:"postId"`
	UserID    string    `json:"userId"`
	Content   string    `json:"content"`
	MediaIDs  []string  `json:"mediaIds"`
	CreatedAt time.Time `json:"createdAt"`
}

// ContentDeletedEvent carries the media ids referenced by the deleted post so
// the media service can clean up blobs without a lookup in the post store.
type ContentDeletedEvent struct {
	PostID   string   `json:"postId"`
	UserID   string   `json:"userId"`
	MediaIDs []string `json:"mediaIds"`
}
