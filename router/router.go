// api/router/router.go

package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edgegate/api/controller"
	"github.com/edgegate/api/middleware"
)

// SetupRouter builds the gin engine. The health endpoint stays outside the
// gate so probes work without a token; everything under /api/v1 goes through
// it. The audit controller is nil when no audit sink is configured.
func SetupRouter(gate gin.HandlerFunc, auditController *controller.AuditController) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	api.Use(gate)

	api.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "token accepted"})
	})

	if auditController != nil {
		auditController.RegisterRoutes(api.Group("/admin"))
	}

	return router
}
