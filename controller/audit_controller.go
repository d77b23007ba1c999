// api/controller/audit_controller.go
package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edgegate/api/audit"
	"github.com/edgegate/api/util"
)

// AuditController exposes the recorded gate decisions.
type AuditController struct {
	auditService audit.Service
}

func NewAuditController(auditService audit.Service) *AuditController {
	return &AuditController{auditService: auditService}
}

func (ac *AuditController) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/decisions", ac.QueryDecisions)
}

// QueryDecisions returns gate decisions within a time range, optionally
// filtered by outcome. The range defaults to the last 24 hours.
func (ac *AuditController) QueryDecisions(c *gin.Context) {
	to := time.Now()
	from := to.Add(-24 * time.Hour)

	if v := c.Query("from"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			util.RespondWithError(c, http.StatusBadRequest,
				"Invalid request", "from must be an RFC3339 timestamp", err)
			return
		}
		from = parsed
	}
	if v := c.Query("to"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			util.RespondWithError(c, http.StatusBadRequest,
				"Invalid request", "to must be an RFC3339 timestamp", err)
			return
		}
		to = parsed
	}

	decisions, err := ac.auditService.QueryDecisions(c.Request.Context(), from, to, c.Query("outcome"))
	if err != nil {
		util.RespondWithError(c, http.StatusInternalServerError,
			"Audit query failed", "could not query gate decisions", err)
		return
	}

	c.JSON(http.StatusOK, decisions)
}
