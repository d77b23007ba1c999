// api/util/http_util.go
package util

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	logger "github.com/edgegate/api/logging"
)

// RespondWithError writes the structured {error, message} rejection body and
// aborts the request.
func RespondWithError(c *gin.Context, code int, errorTitle, message string, err error) {
	logger.Warn(errorTitle,
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method))
	c.AbortWithStatusJSON(code, gin.H{"error": errorTitle, "message": message})
}
