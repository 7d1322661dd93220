package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/rb-369/Social-Media-Microservices/internal/web"
	"github.com/rb-369/Social-Media-Microservices/server/identity/internal/handlers"
	"github.com/rb-369/Social-Media-Microservices/server/identity/internal/store"
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

	port := getenv("PORT", "3001")

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET env required")
	}

	mongoStore, err := store.NewMongoStore(
		getenv("MONGO_URI", "mongodb://localhost:27017"),
		getenv("MONGO_DB", "identity"),
	)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to MongoDB")
	}

	handler := handlers.NewHandler(mongoStore, []byte(jwtSecret), logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(web.RequestLogger(logger))

	router.POST("/api/auth/register", handler.RegisterUser)
	router.POST("/api/auth/login", handler.LoginUser)
	router.POST("/api/auth/refresh-token", handler.RefreshToken)
	router.POST("/api/auth/logout", handler.LogoutUser)
	router.GET("/api/auth/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now()})
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: router,
	}

	go func() {
		logger.Infof("Identity service listening on :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start identity service")
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
