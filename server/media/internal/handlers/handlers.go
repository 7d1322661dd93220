package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rb-369/Social-Media-Microservices/internal/web"
	"github.com/rb-369/Social-Media-Microservices/server/media/internal/blob"
	"github.com/rb-369/Social-Media-Microservices/server/media/internal/models"
)

const maxUploadSize = 50 << 20 // 50 MiB

// MediaStore is the metadata slice of the store the handlers need.
type MediaStore interface {
	Insert(ctx context.Context, m *models.Media) error
	ListByUser(ctx context.Context, userID string) ([]models.Media, error)
}

type Handler struct {
	store  MediaStore
	blobs  blob.Store
	logger *logrus.Logger
}

func NewHandler(store MediaStore, blobs blob.Store, logger *logrus.Logger) *Handler {
	return &Handler{store: store, blobs: blobs, logger: logger}
}

// UploadMedia streams one multipart file into the blob store and records its
// metadata. The file is never buffered whole in memory.
func (h *Handler) UploadMedia(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		web.SendError(c, http.StatusBadRequest, "No file found, please add a file and try again")
		return
	}
	if fileHeader.Size > maxUploadSize {
		web.SendError(c, http.StatusBadRequest, "File too large")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.WithError(err).Error("failed to open uploaded file")
		web.SendError(c, http.StatusInternalServerError, web.MsgInternal)
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	ctx := c.Request.Context()

	publicID, url, err := h.blobs.Upload(ctx, file, fileHeader.Size, contentType)
	if err != nil {
		h.logger.WithError(err).Error("blob upload failed")
		web.SendError(c, http.StatusInternalServerError, web.MsgInternal)
		return
	}

	media := &models.Media{
		ID:           uuid.NewString(),
		PublicID:     publicID,
		OriginalName: fileHeader.Filename,
		MimeType:     contentType,
		URL:          url,
		UserID:       web.UserID(c),
		CreatedAt:    time.Now().UTC(),
	}

	if err := h.store.Insert(ctx, media); err != nil {
		h.logger.WithError(err).Error("failed to persist media metadata")
		web.SendError(c, http.StatusInternalServerError, web.MsgInternal)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"media_id":  media.ID,
		"public_id": publicID,
	}).Info("media uploaded")

	web.SendSuccess(c, http.StatusCreated, "Media upload successful", models.UploadResponse{
		MediaID: media.ID,
		URL:     media.URL,
	})
}

func (h *Handler) GetAllMedia(c *gin.Context) {
	results, err := h.store.ListByUser(c.Request.Context(), web.UserID(c))
	if err != nil {
		h.logger.WithError(err).Error("failed to list media")
		web.SendError(c, http.StatusInternalServerError, web.MsgInternal)
		return
	}

	web.SendSuccess(c, http.StatusOK, "", results)
}
