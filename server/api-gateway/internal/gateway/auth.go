package gateway

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/rb-369/Social-Media-Microservices/internal/web"
)

// Auth verifies the bearer token and attaches the verified subject id to the
// outgoing request. Only the gateway may set the identity header, so any
// client-supplied value is stripped first.
func Auth(secret []byte, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Never trust an inbound identity header, authenticated or not.
		c.Request.Header.Del(web.UserIDHeader)

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.WithField("path", c.Request.URL.Path).Warn("access attempt without token")
			web.SendError(c, http.StatusUnauthorized, web.MsgAuthRequired)
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			web.SendError(c, http.StatusUnauthorized, web.MsgInvalidToken)
			c.Abort()
			return
		}

		userID, err := verifyToken(tokenString, secret)
		if err != nil {
			logger.WithError(err).Warn("invalid token")
			web.SendError(c, http.StatusUnauthorized, web.MsgInvalidToken)
			c.Abort()
			return
		}

		c.Request.Header.Set(web.UserIDHeader, userID)
		c.Set(web.UserIDKey, userID)
		c.Next()
	}
}

func verifyToken(tokenString string, secret []byte) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", fmt.Errorf("token invalid")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid claims")
	}

	userID, ok := claims["userId"].(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("token missing userId claim")
	}
	return userID, nil
}
