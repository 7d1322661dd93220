// Package gateway is the single network entry point. Every request passes the
// admission pipeline in order: local burst limit, shared fixed-window limit,
// request log, auth gate (on routes that require it), reverse proxy. Any
// stage can short-circuit with an error envelope.
package gateway

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/rb-369/Social-Media-Microservices/internal/web"
)

type Config struct {
	JWTSecret []byte
	Routes    []Route
	RateLimit RateLimitConfig
}

func NewRouter(cfg Config, counter Counter, logger *logrus.Logger) (*gin.Engine, error) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RateLimit(cfg.RateLimit, counter, logger))
	router.Use(web.RequestLogger(logger))

	// The identity header is gateway-set only; scrub it on every route, not
	// just the authenticated ones.
	router.Use(func(c *gin.Context) {
		c.Request.Header.Del(web.UserIDHeader)
		c.Next()
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
		})
	})

	for _, route := range cfg.Routes {
		proxyHandler, err := newProxyHandler(route, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to build proxy for %s: %w", route.Prefix, err)
		}

		handlers := []gin.HandlerFunc{}
		if route.RequiresAuth {
			handlers = append(handlers, Auth(cfg.JWTSecret, logger))
		}
		handlers = append(handlers, proxyHandler)

		router.Any(route.Prefix+"/*path", handlers...)
	}

	return router, nil
}
