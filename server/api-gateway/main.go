package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/rb-369/Social-Media-Microservices/server/api-gateway/internal/gateway"
)

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	port := getenv("PORT", "3000")

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET env required")
	}

	counter, err := gateway.NewRedisCounter(getenv("REDIS_ADDR", "localhost:6379"))
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}

	cfg := gateway.Config{
		JWTSecret: []byte(jwtSecret),
		Routes: []gateway.Route{
			{
				Prefix:        "/v1/auth",
				Target:        getenv("IDENTITY_SERVICE_URL", "http://localhost:3001"),
				RewritePrefix: "/api/auth",
				RequiresAuth:  false,
			},
			{
				Prefix:        "/v1/posts",
				Target:        getenv("POST_SERVICE_URL", "http://localhost:3002"),
				RewritePrefix: "/api/posts",
				RequiresAuth:  true,
			},
			{
				Prefix:        "/v1/media",
				Target:        getenv("MEDIA_SERVICE_URL", "http://localhost:3003"),
				RewritePrefix: "/api/media",
				RequiresAuth:  true,
			},
			{
				Prefix:        "/v1/search",
				Target:        getenv("SEARCH_SERVICE_URL", "http://localhost:3004"),
				RewritePrefix: "/api/search",
				RequiresAuth:  true,
			},
		},
		RateLimit: gateway.RateLimitConfig{
			MaxRequests: 50,
			Window:      15 * time.Minute,
			LocalRate:   rate.Limit(10),
			LocalBurst:  20,
		},
	}

	router, err := gateway.NewRouter(cfg, counter, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to build gateway router")
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: router,
	}

	go func() {
		logger.Infof("API Gateway listening on :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start API Gateway")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}
}
