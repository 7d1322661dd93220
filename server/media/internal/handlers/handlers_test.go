package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rb-369/Social-Media-Microservices/internal/web"
	"github.com/rb-369/Social-Media-Microservices/server/media/internal/models"
)

type fakeStore struct {
	mu       sync.Mutex
	inserted []models.Media
	byUser   map[string][]models.Media
}

func newFakeStore() *fakeStore {
	return &fakeStore{byUser: make(map[string][]models.Media)}
}

func (s *fakeStore) Insert(_ context.Context, m *models.Media) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserted = append(s.inserted, *m)
	s.byUser[m.UserID] = append(s.byUser[m.UserID], *m)
	return nil
}

func (s *fakeStore) ListByUser(_ context.Context, userID string) ([]models.Media, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byUser[userID], nil
}

type fakeBlobStore struct {
	mu       sync.Mutex
	uploaded map[string][]byte
	failNext bool
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{uploaded: make(map[string][]byte)}
}

func (s *fakeBlobStore) Upload(_ context.Context, reader io.Reader, _ int64, _ string) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext {
		return "", "", errors.New("blob store unavailable")
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return "", "", err
	}
	publicID := "blob-1"
	s.uploaded[publicID] = body
	return publicID, "http://localhost:9000/media/" + publicID, nil
}

func (s *fakeBlobStore) Remove(_ context.Context, publicID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.uploaded, publicID)
	return nil
}

func newTestRouter(t *testing.T, store *fakeStore, blobs *fakeBlobStore) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	h := NewHandler(store, blobs, logger)

	router := gin.New()
	authed := router.Group("/api/media", web.RequireUserID())
	authed.POST("/upload", h.UploadMedia)
	authed.GET("/all-media", h.GetAllMedia)
	return router
}

func multipartUpload(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func TestUploadStoresBlobAndMetadata(t *testing.T) {
	store := newFakeStore()
	blobs := newFakeBlobStore()
	router := newTestRouter(t, store, blobs)

	body, contentType := multipartUpload(t, "cat.png", []byte("png-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/media/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(web.UserIDHeader, "user-a")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, []byte("png-bytes"), blobs.uploaded["blob-1"])
	require.Len(t, store.inserted, 1)
	assert.Equal(t, "user-a", store.inserted[0].UserID)
	assert.Equal(t, "cat.png", store.inserted[0].OriginalName)
	assert.Equal(t, "blob-1", store.inserted[0].PublicID)
	assert.Contains(t, w.Body.String(), `"mediaId"`)
}

func TestUploadWithoutFileIsRejected(t *testing.T) {
	store := newFakeStore()
	router := newTestRouter(t, store, newFakeBlobStore())

	req := httptest.NewRequest(http.MethodPost, "/api/media/upload", nil)
	req.Header.Set(web.UserIDHeader, "user-a")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, store.inserted)
}

func TestUploadWithoutIdentityIsRejected(t *testing.T) {
	store := newFakeStore()
	router := newTestRouter(t, store, newFakeBlobStore())

	body, contentType := multipartUpload(t, "cat.png", []byte("png-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/media/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, store.inserted)
}

func TestUploadBlobFailureLeavesNoMetadata(t *testing.T) {
	store := newFakeStore()
	blobs := newFakeBlobStore()
	blobs.failNext = true
	router := newTestRouter(t, store, blobs)

	body, contentType := multipartUpload(t, "cat.png", []byte("png-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/media/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(web.UserIDHeader, "user-a")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, store.inserted)
}

func TestGetAllMediaIsScopedToCaller(t *testing.T) {
	store := newFakeStore()
	store.byUser["user-a"] = []models.Media{{ID: "m1", UserID: "user-a"}}
	store.byUser["user-b"] = []models.Media{{ID: "m2", UserID: "user-b"}}
	router := newTestRouter(t, store, newFakeBlobStore())

	req := httptest.NewRequest(http.MethodGet, "/api/media/all-media", nil)
	req.Header.Set(web.UserIDHeader, "user-a")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"m1"`)
	assert.NotContains(t, w.Body.String(), `"m2"`)
}
