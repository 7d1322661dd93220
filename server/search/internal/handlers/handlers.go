package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/rb-369/Social-Media-Microservices/internal/cache"
	"github.com/rb-369/Social-Media-Microservices/internal/web"
	"github.com/rb-369/Social-Media-Microservices/server/search/internal/models"
)

const resultTTL = 5 * time.Minute

// Searcher is the ranked text-search slice of the search store.
type Searcher interface {
	Search(ctx context.Context, query string, page, pageSize int) ([]models.SearchRecord, error)
}

type Handler struct {
	store  Searcher
	cache  cache.Cache
	logger *logrus.Logger
}

func NewHandler(store Searcher, c cache.Cache, logger *logrus.Logger) *Handler {
	return &Handler{store: store, cache: c, logger: logger}
}

func (h *Handler) SearchPosts(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		web.SendError(c, http.StatusBadRequest, "Query parameter is required")
		return
	}

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		web.SendError(c, http.StatusBadRequest, "Invalid page number")
		return
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || pageSize < 1 || pageSize > 100 {
		web.SendError(c, http.StatusBadRequest, "Invalid page size (must be between 1 and 100)")
		return
	}

	ctx := c.Request.Context()
	key := cache.SearchKey(query, page, pageSize)

	if cached, err := h.cache.Get(ctx, key); err != nil {
		h.logger.WithError(err).Warn("cache get failed, falling through to store")
	} else if cached != nil {
		web.SendSuccess(c, http.StatusOK, "Fetched from cache", json.RawMessage(cached))
		return
	}

	results, err := h.store.Search(ctx, query, page, pageSize)
	if err != nil {
		h.logger.WithError(err).Error("search query failed")
		web.SendError(c, http.StatusInternalServerError, web.MsgInternal)
		return
	}

	body, err := json.Marshal(results)
	if err != nil {
		h.logger.WithError(err).Error("failed to marshal search results")
		web.SendError(c, http.StatusInternalServerError, web.MsgInternal)
		return
	}
	if err := h.cache.Set(ctx, key, body, resultTTL); err != nil {
		h.logger.WithError(err).Warn("failed to populate search cache")
	}

	web.SendSuccess(c, http.StatusOK, "Fetched from database", results)
}
