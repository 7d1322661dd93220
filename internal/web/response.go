package web

import (
	"github.com/gin-gonic/gin"
)

// ErrorResponse is the fixed error envelope returned by every service and by the
// gateway itself. Clients never see internal store/bus/proxy detail, only the
// message chosen at the boundary.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func SendError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{
		Success: false,
		Message: message,
	})
}

func SendSuccess(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, SuccessResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Canonical messages for the error taxonomy. Authorization failures reuse the
// not-found message so ownership mismatch and absence are indistinguishable.
const (
	MsgValidation   = "Invalid request payload"
	MsgAuthRequired = "Authentication required"
	MsgInvalidToken = "Invalid token"
	MsgNotFound     = "Resource not found"
	MsgRateLimited  = "Too many requests"
	MsgInternal     = "Internal server error"
)
