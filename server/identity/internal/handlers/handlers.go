package handlers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/rb-369/Social-Media-Microservices/internal/web"
	"github.com/rb-369/Social-Media-Microservices/server/identity/internal/models"
)

const (
	accessTokenTTL  = 60 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour
)

// UserStore is the slice of the identity store the handlers need.
type UserStore interface {
	InsertUser(ctx context.Context, user *models.User) error
	FindUserByEmailOrUsername(ctx context.Context, email, username string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	InsertRefreshToken(ctx context.Context, token *models.RefreshToken) error
	FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error)
	DeleteRefreshToken(ctx context.Context, token string) error
}

type Handler struct {
	store     UserStore
	jwtSecret []byte
	logger    *logrus.Logger
}

func NewHandler(store UserStore, jwtSecret []byte, logger *logrus.Logger) *Handler {
	return &Handler{store: store, jwtSecret: jwtSecret, logger: logger}
}

func (h *Handler) RegisterUser(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		web.SendError(c, http.StatusBadRequest, web.MsgValidation)
		return
	}

	ctx := c.Request.Context()

	existing, err := h.store.FindUserByEmailOrUsername(ctx, req.Email, req.Username)
	if err != nil {
		h.logger.WithError(err).Error("failed to check existing user")
		web.SendError(c, http.StatusInternalServerError, web.MsgInternal)
		return
	}
	if existing != nil {
		web.SendError(c, http.StatusBadRequest, "User already exists with same email or username")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.WithError(err).Error("failed to hash password")
		web.SendError(c, http.StatusInternalServerError, web.MsgInternal)
		return
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hashed),
		CreatedAt:    time.Now().UTC(),
	}

	if err := h.store.InsertUser(ctx, user); err != nil {
		h.logger.WithError(err).Error("failed to insert user")
		web.SendError(c, http.StatusInternalServerError, web.MsgInternal)
		return
	}

	tokens, err := h.issueTokens(ctx, user.ID)
	if err != nil {
		h.logger.WithError(err).Error("failed to issue tokens")
		web.SendError(c, http.StatusInternalServerError, web.MsgInternal)
		return
	}

	h.logger.WithField("user_id", user.ID).Info("user registered")
	web.SendSuccess(c, http.StatusCreated, "User registered successfully", tokens)
}

func (h *Handler) LoginUser(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		web.SendError(c, http.StatusBadRequest, web.MsgValidation)
		return
	}

	ctx := c.Request.Context()

	user, err := h.store.FindUserByEmail(ctx, req.Email)
	if err != nil {
		h.logger.WithError(err).Error("failed to look up user")
		web.SendError(c, http.StatusInternalServerError, web.MsgInternal)
		return
	}
	// Unknown email and wrong password produce the same response so login
	// cannot be used to probe for accounts.
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		web.SendError(c, http.StatusBadRequest, "Invalid credentials")
		return
	}

	tokens, err := h.issueTokens(ctx, user.ID)
	if err != nil {
		h.logger.WithError(err).Error("failed to issue tokens")
		web.SendError(c, http.StatusInternalServerError, web.MsgInternal)
		return
	}
	tokens.UserID = user.ID

	web.SendSuccess(c, http.StatusOK, "Login successful", tokens)
}

func (h *Handler) RefreshToken(c *gin.Context) {
	var req models.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		web.SendError(c, http.StatusBadRequest, web.MsgValidation)
		return
	}

	ctx := c.Request.Context()

	stored, err := h.store.FindRefreshToken(ctx, req.RefreshToken)
	if err != nil {
		h.logger.WithError(err).Error("failed to look up refresh token")
		web.SendError(c, http.StatusInternalServerError, web.MsgInternal)
		return
	}
	if stored == nil || time.Now().After(stored.ExpiresAt) {
		web.SendError(c, http.StatusUnauthorized, web.MsgInvalidToken)
		return
	}

	// Rotation: the presented token is spent regardless of what happens next.
	if err := h.store.DeleteRefreshToken(ctx, req.RefreshToken); err != nil {
		h.logger.WithError(err).Error("failed to delete refresh token")
		web.SendError(c, http.StatusInternalServerError, web.MsgInternal)
		return
	}

	tokens, err := h.issueTokens(ctx, stored.UserID)
	if err != nil {
		h.logger.WithError(err).Error("failed to issue tokens")
		web.SendError(c, http.StatusInternalServerError, web.MsgInternal)
		return
	}

	web.SendSuccess(c, http.StatusOK, "Token refreshed", tokens)
}

func (h *Handler) LogoutUser(c *gin.Context) {
	var req models.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		web.SendError(c, http.StatusBadRequest, web.MsgValidation)
		return
	}

	if err := h.store.DeleteRefreshToken(c.Request.Context(), req.RefreshToken); err != nil {
		h.logger.WithError(err).Error("failed to delete refresh token")
		web.SendError(c, http.StatusInternalServerError, web.MsgInternal)
		return
	}

	web.SendSuccess(c, http.StatusOK, "Logged out successfully", nil)
}

func (h *Handler) issueTokens(ctx context.Context, userID string) (*models.TokenResponse, error) {
	claims := jwt.MapClaims{
		"userId": userID,
		"exp":    time.Now().Add(accessTokenTTL).Unix(),
		"iat":    time.Now().Unix(),
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	raw := make([]byte, 40)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	refreshToken := hex.EncodeToString(raw)

	err = h.store.InsertRefreshToken(ctx, &models.RefreshToken{
		Token:     refreshToken,
		UserID:    userID,
		ExpiresAt: time.Now().Add(refreshTokenTTL),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &models.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
