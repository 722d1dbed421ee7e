package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	svcErr "github.com/oggyb/muzz-match/internal/errors"
	"github.com/oggyb/muzz-match/internal/logger"
)

// respondError renders err as {"message": ...} with its mapped status code.
func respondError(c *gin.Context, err error) {
	code, msg := svcErr.HTTPStatus(err)
	if code >= http.StatusInternalServerError {
		logger.FromContext(c.Request.Context(), nil).Error("request failed",
			"path", c.FullPath(), "status", code, "err", err)
	}
	c.AbortWithStatusJSON(code, gin.H{"message": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": msg})
}
