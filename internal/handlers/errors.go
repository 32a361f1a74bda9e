package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"split-reconciliation-backend/internal/apperr"
)

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindValidation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as {"code", "message"}. Internal errors are
// recorded on the context for the request logger and hidden from the
// client.
func respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)

	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		abort(c, status, string(apperr.KindInternal), "internal error")
		return
	}
	abort(c, status, string(kind), err.Error())
}

func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"code": code, "message": message})
}

func badRequest(c *gin.Context, message string) {
	abort(c, http.StatusBadRequest, "bad_request", message)
}
