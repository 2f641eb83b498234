package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"presence-notify/internal/domain"
)

// statusFor maps an error kind to its HTTP status.
func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindInvalidArgument:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	f := domain.Describe(err)
	code := f.Code
	if code == "" {
		code = "INTERNAL_ERROR"
	}
	c.JSON(statusFor(domain.KindOf(err)), gin.H{
		"success": false,
		"error":   gin.H{"code": code, "message": f.Message},
	})
}
