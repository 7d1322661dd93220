package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rb-369/Social-Media-Microservices/internal/cache"
	"github.com/rb-369/Social-Media-Microservices/internal/events"
	"github.com/rb-369/Social-Media-Microservices/internal/web"
	"github.com/rb-369/Social-Media-Microservices/server/post/internal/models"
)

const (
	postTTL    = time.Hour
	listingTTL = 5 * time.Minute
)

// PostStore is the slice of the document store the handlers need.
type PostStore interface {
	Insert(ctx context.Context, post *models.Post) error
	FindByID(ctx context.Context, id string) (*models.Post, error)
	List(ctx context.Context, page, pageSize int) ([]models.Post, int64, error)
	DeleteOwned(ctx context.Context, id, userID string) (*models.Post, error)
	IncrementLikes(ctx context.Context, id string) (bool, error)
}

// Publisher emits domain events after store mutations.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload interface{}) error
}

type Handler struct {
	store     PostStore
	cache     cache.Cache
	publisher Publisher
	logger    *logrus.Logger
}

func NewHandler(store PostStore, c cache.Cache, publisher Publisher, logger *logrus.Logger) *Handler {
	return &Handler{
		store:     store,
		cache:     c,
		publisher: publisher,
		logger:    logger,
	}
}

func (h *Handler) CreatePost(c *gin.Context) {
	var req models.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		web.SendError(c, http.StatusBadRequest, web.MsgValidation)
		return
	}

	now := time.Now().UTC()
	post := &models.Post{
		ID:        uuid.NewString(),
		UserID:    web.UserID(c),
		Content:   req.Content,
		MediaIDs:  req.MediaIDs,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if post.MediaIDs == nil {
		post.MediaIDs = []string{}
	}

	ctx := c.Request.Context()

	if err := h.store.Insert(ctx, post); err != nil {
		h.logger.WithError(err).Error("failed to insert post")
		web.SendError(c, http.StatusInternalServerError, web.MsgInternal)
		return
	}

	// The store is authoritative. A publish failure leaves the derived stores
	// behind until the broker recovers; the insert is never rolled back.
	if err := h.publisher.Publish(ctx, events.ContentCreated, events.ContentCreatedEvent{
		PostID:    post.ID,
		UserID:    post.UserID,
		Content:   post.Content,
		MediaIDs:  post.MediaIDs,
		CreatedAt: post.CreatedAt,
	}); err != nil {
		h.logger.WithError(err).WithField("post_id", post.ID).Error("failed to publish content.created")
	}

	// Every listing page shifts when a post lands, so the whole prefix goes
	// before the response is written.
	if err := h.cache.DeleteByPrefix(ctx, cache.PostListPrefix); err != nil {
		h.logger.WithError(err).Error("failed to purge listing cache")
	}

	web.SendSuccess(c, http.StatusCreated, "Post created successfully", post)
}

func (h *Handler) GetPost(c *gin.Context) {
	postID := c.Param("id")
	ctx := c.Request.Context()
	key := cache.PostKey(postID)

	if cached, err := h.cache.Get(ctx, key); err != nil {
		h.logger.WithError(err).Warn("cache get failed, falling through to store")
	} else if cached != nil {
		web.SendSuccess(c, http.StatusOK, "", json.RawMessage(cached))
		return
	}

	post, err := h.store.FindByID(ctx, postID)
	if err != nil {
		h.logger.WithError(err).Error("failed to fetch post")
		web.SendError(c, http.StatusInternalServerError, web.MsgInternal)
		return
	}
	if post == nil {
		web.SendError(c, http.StatusNotFound, "Post not found")
		return
	}

	h.populateCache(ctx, key, post, postTTL)

	web.SendSuccess(c, http.StatusOK, "", post)
}

func (h *Handler) GetAllPosts(c *gin.Context) {
	page, pageSize, ok := paginationParams(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	key := cache.PostListKey(page, pageSize)

	if cached, err := h.cache.Get(ctx, key); err != nil {
		h.logger.WithError(err).Warn("cache get failed, falling through to store")
	} else if cached != nil {
		web.SendSuccess(c, http.StatusOK, "", json.RawMessage(cached))
		return
	}

	posts, total, err := h.store.List(ctx, page, pageSize)
	if err != nil {
		h.logger.WithError(err).Error("failed to list posts")
		web.SendError(c, http.StatusInternalServerError, web.MsgInternal)
		return
	}

	response := models.PaginatedPostsResponse{
		Posts:      posts,
		Page:       page,
		TotalPages: (total + int64(pageSize) - 1) / int64(pageSize),
		TotalPosts: total,
	}

	h.populateCache(ctx, key, response, listingTTL)

	web.SendSuccess(c, http.StatusOK, "", response)
}

func (h *Handler) DeletePost(c *gin.Context) {
	postID := c.Param("id")
	userID := web.UserID(c)
	ctx := c.Request.Context()

	post, err := h.store.DeleteOwned(ctx, postID, userID)
	if err != nil {
		h.logger.WithError(err).Error("failed to delete post")
		web.SendError(c, http.StatusInternalServerError, web.MsgInternal)
		return
	}
	if post == nil {
		// Covers both a missing post and someone else's post.
		web.SendError(c, http.StatusNotFound, "Post not found")
		return
	}

	if err := h.publisher.Publish(ctx, events.ContentDeleted, events.ContentDeletedEvent{
		PostID:   post.ID,
		UserID:   post.UserID,
		MediaIDs: post.MediaIDs,
	}); err != nil {
		h.logger.WithError(err).WithField("post_id", post.ID).Error("failed to publish content.deleted")
	}

	if err := h.cache.Delete(ctx, cache.PostKey(postID)); err != nil {
		h.logger.WithError(err).Error("failed to evict post cache entry")
	}
	if err := h.cache.DeleteByPrefix(ctx, cache.PostListPrefix); err != nil {
		h.logger.WithError(err).Error("failed to purge listing cache")
	}

	web.SendSuccess(c, http.StatusOK, "Post deleted successfully", nil)
}

func (h *Handler) LikePost(c *gin.Context) {
	postID := c.Param("id")
	ctx := c.Request.Context()

	found, err := h.store.IncrementLikes(ctx, postID)
	if err != nil {
		h.logger.WithError(err).Error("failed to like post")
		web.SendError(c, http.StatusInternalServerError, web.MsgInternal)
		return
	}
	if !found {
		web.SendError(c, http.StatusNotFound, "Post not found")
		return
	}

	// Listings catch up via their short TTL; only the item entry is stale
	// enough to matter.
	if err := h.cache.Delete(ctx, cache.PostKey(postID)); err != nil {
		h.logger.WithError(err).Error("failed to evict post cache entry")
	}

	web.SendSuccess(c, http.StatusOK, "Post liked", nil)
}

func (h *Handler) populateCache(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	body, err := json.Marshal(value)
	if err != nil {
		h.logger.WithError(err).Error("failed to marshal cache value")
		return
	}
	if err := h.cache.Set(ctx, key, body, ttl); err != nil {
		h.logger.WithError(err).Warn("failed to populate cache")
	}
}

func paginationParams(c *gin.Context) (page, pageSize int, ok bool) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		web.SendError(c, http.StatusBadRequest, "Invalid page number")
		return 0, 0, false
	}

	pageSize, err = strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || pageSize < 1 || pageSize > 100 {
		web.SendError(c, http.StatusBadRequest, "Invalid page size (must be between 1 and 100)")
		return 0, 0, false
	}

	return page, pageSize, true
}
