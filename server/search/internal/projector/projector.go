// Package projector materializes the search index from content events. Both
// handlers are idempotent: the bus is at-least-once and gives no ordering
// guarantee across event types for the same post.
package projector

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/rb-369/Social-Media-Microservices/internal/cache"
	"github.com/rb-369/Social-Media-Microservices/internal/events"
	"github.com/rb-369/Social-Media-Microservices/server/search/internal/models"
)

// RecordStore is the slice of the search store the projector needs.
type RecordStore interface {
	Upsert(ctx context.Context, record *models.SearchRecord) error
	DeleteByPostID(ctx context.Context, postID string) error
	IsDeleted(ctx context.Context, postID string) (bool, error)
}

type Projector struct {
	store  RecordStore
	cache  cache.Cache
	logger *logrus.Logger
}

func New(store RecordStore, c cache.Cache, logger *logrus.Logger) *Projector {
	return &Projector{store: store, cache: c, logger: logger}
}

// HandleContentCreated upserts the search record for the post. An upsert, not
// an insert: a redelivered event leaves exactly one record behind.
func (p *Projector) HandleContentCreated(ctx context.Context, body []byte) error {
	var event events.ContentCreatedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("malformed content.created event: %w", err)
	}

	// The bus can reorder a delete in front of its create. A tombstoned post
	// must never come back as an orphaned record.
	deleted, err := p.store.IsDeleted(ctx, event.PostID)
	if err != nil {
		return fmt.Errorf("failed to check tombstone: %w", err)
	}
	if deleted {
		p.logger.WithField("post_id", event.PostID).Info("skipping create for tombstoned post")
		return nil
	}

	record := &models.SearchRecord{
		PostID:    event.PostID,
		UserID:    event.UserID,
		Content:   event.Content,
		CreatedAt: event.CreatedAt,
	}

	if err := p.store.Upsert(ctx, record); err != nil {
		return fmt.Errorf("failed to upsert search record: %w", err)
	}

	if err := p.cache.DeleteByPrefix(ctx, cache.SearchPrefix); err != nil {
		p.logger.WithError(err).Warn("failed to purge search cache")
	}

	p.logger.WithField("post_id", event.PostID).Info("search record created")
	return nil
}

// HandleContentDeleted removes the record if present. Deleting a record that
// never existed (delete arriving before create) is a no-op.
func (p *Projector) HandleContentDeleted(ctx context.Context, body []byte) error {
	var event events.ContentDeletedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("malformed content.deleted event: %w", err)
	}

	if err := p.store.DeleteByPostID(ctx, event.PostID); err != nil {
		return fmt.Errorf("failed to delete search record: %w", err)
	}

	if err := p.cache.DeleteByPrefix(ctx, cache.SearchPrefix); err != nil {
		p.logger.WithError(err).Warn("failed to purge search cache")
	}

	p.logger.WithField("post_id", event.PostID).Info("search record deleted")
	return nil
}
