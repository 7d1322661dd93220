package projector

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rb-369/Social-Media-Microservices/internal/events"
	"github.com/rb-369/Social-Media-Microservices/server/media/internal/models"
)

type fakeMediaStore struct {
	mu    sync.Mutex
	media map[string]models.Media
}

func newFakeMediaStore(media ...models.Media) *fakeMediaStore {
	s := &fakeMediaStore{media: make(map[string]models.Media)}
	for _, m := range media {
		s.media[m.ID] = m
	}
	return s
}

func (s *fakeMediaStore) FindByIDs(_ context.Context, ids []string) ([]models.Media, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var found []models.Media
	for _, id := range ids {
		if m, ok := s.media[id]; ok {
			found = append(found, m)
		}
	}
	return found, nil
}

func (s *fakeMediaStore) DeleteByID(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.media, id)
	return nil
}

type fakeBlobStore struct {
	mu      sync.Mutex
	blobs   map[string]bool
	failFor map[string]bool
}

func newFakeBlobStore(publicIDs ...string) *fakeBlobStore {
	s := &fakeBlobStore{blobs: make(map[string]bool), failFor: make(map[string]bool)}
	for _, id := range publicIDs {
		s.blobs[id] = true
	}
	return s
}

func (s *fakeBlobStore) Upload(_ context.Context, _ io.Reader, _ int64, _ string) (string, string, error) {
	return "", "", errors.New("not used in projector tests")
}

func (s *fakeBlobStore) Remove(_ context.Context, publicID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFor[publicID] {
		return errors.New("blob store unavailable")
	}
	delete(s.blobs, publicID)
	return nil
}

func deletedBody(t *testing.T, postID string, mediaIDs []string) []byte {
	t.Helper()
	body, err := json.Marshal(events.ContentDeletedEvent{
		PostID:   postID,
		UserID:   "u1",
		MediaIDs: mediaIDs,
	})
	require.NoError(t, err)
	return body
}

func newTestProjector(store *fakeMediaStore, blobs *fakeBlobStore) *Projector {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return New(store, blobs, logger)
}

func TestDeletesBlobAndMetadata(t *testing.T) {
	store := newFakeMediaStore(
		models.Media{ID: "m1", PublicID: "blob-1", UserID: "u1"},
		models.Media{ID: "m2", PublicID: "blob-2", UserID: "u1"},
	)
	blobs := newFakeBlobStore("blob-1", "blob-2")
	p := newTestProjector(store, blobs)

	err := p.HandleContentDeleted(context.Background(), deletedBody(t, "p1", []string{"m1", "m2"}))
	require.NoError(t, err)

	assert.Empty(t, store.media)
	assert.Empty(t, blobs.blobs)
}

func TestRedeliveryIsIdempotent(t *testing.T) {
	store := newFakeMediaStore(models.Media{ID: "m1", PublicID: "blob-1"})
	blobs := newFakeBlobStore("blob-1")
	p := newTestProjector(store, blobs)

	body := deletedBody(t, "p1", []string{"m1"})
	require.NoError(t, p.HandleContentDeleted(context.Background(), body))
	require.NoError(t, p.HandleContentDeleted(context.Background(), body))

	assert.Empty(t, store.media)
	assert.Empty(t, blobs.blobs)
}

func TestPerAssetFailureDoesNotAbortTheRest(t *testing.T) {
	store := newFakeMediaStore(
		models.Media{ID: "m1", PublicID: "blob-1"},
		models.Media{ID: "m2", PublicID: "blob-2"},
	)
	blobs := newFakeBlobStore("blob-1", "blob-2")
	blobs.failFor["blob-1"] = true
	p := newTestProjector(store, blobs)

	err := p.HandleContentDeleted(context.Background(), deletedBody(t, "p1", []string{"m1", "m2"}))
	require.NoError(t, err)

	// m1's blob failed so its metadata survives for the next redelivery;
	// m2 is fully gone.
	_, m1Left := store.media["m1"]
	assert.True(t, m1Left)
	_, m2Left := store.media["m2"]
	assert.False(t, m2Left)
	assert.False(t, blobs.blobs["blob-2"])
}

func TestNoMediaIsNoop(t *testing.T) {
	store := newFakeMediaStore()
	p := newTestProjector(store, newFakeBlobStore())

	assert.NoError(t, p.HandleContentDeleted(context.Background(), deletedBody(t, "p1", nil)))
	assert.NoError(t, p.HandleContentDeleted(context.Background(), deletedBody(t, "p1", []string{"ghost"})))
}
