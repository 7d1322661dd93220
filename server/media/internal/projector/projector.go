// Package projector tears down media assets when their owning post is
// deleted. Cleanup is best-effort, not atomic: one asset failing never stops
// the rest of the event from being processed.
package projector

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/rb-369/Social-Media-Microservices/internal/events"
	"github.com/rb-369/Social-Media-Microservices/server/media/internal/blob"
	"github.com/rb-369/Social-Media-Microservices/server/media/internal/models"
)

// MediaStore is the metadata slice of the store the projector needs.
type MediaStore interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Media, error)
	DeleteByID(ctx context.Context, id string) error
}

type Projector struct {
	store  MediaStore
	blobs  blob.Store
	logger *logrus.Logger
}

func New(store MediaStore, blobs blob.Store, logger *logrus.Logger) *Projector {
	return &Projector{store: store, blobs: blobs, logger: logger}
}

// HandleContentDeleted removes the blob and the metadata record for each
// referenced media id. Ids that resolve to nothing (already cleaned up on a
// redelivery) are skipped silently, which makes the handler idempotent.
func (p *Projector) HandleContentDeleted(ctx context.Context, body []byte) error {
	var event events.ContentDeletedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("malformed content.deleted event: %w", err)
	}

	if len(event.MediaIDs) == 0 {
		return nil
	}

	toDelete, err := p.store.FindByIDs(ctx, event.MediaIDs)
	if err != nil {
		return fmt.Errorf("failed to look up media for post %s: %w", event.PostID, err)
	}

	for _, media := range toDelete {
		if err := p.blobs.Remove(ctx, media.PublicID); err != nil {
			p.logger.WithError(err).WithField("media_id", media.ID).Error("failed to delete blob")
			continue
		}
		if err := p.store.DeleteByID(ctx, media.ID); err != nil {
			p.logger.WithError(err).WithField("media_id", media.ID).Error("failed to delete media record")
			continue
		}
		p.logger.WithFields(logrus.Fields{
			"media_id": media.ID,
			"post_id":  event.PostID,
		}).Info("media deleted with its post")
	}

	return nil
}
