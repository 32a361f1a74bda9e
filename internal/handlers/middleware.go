package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	TenantHeader = "X-Tenant-ID"
	ActorHeader  = "X-User-ID"

	tenantKey = "tenant_id"
	actorKey  = "actor_id"
)

// RequireTenant resolves the tenant and actor set by the upstream gateway.
// Requests without a valid tenant id are refused.
func RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(TenantHeader)
		if raw == "" {
			abort(c, http.StatusBadRequest, "bad_request", "missing "+TenantHeader+" header")
			return
		}
		tenantID, err := uuid.Parse(raw)
		if err != nil {
			abort(c, http.StatusBadRequest, "bad_request", "invalid "+TenantHeader+" header")
			return
		}

		c.Set(tenantKey, tenantID)
		c.Set(actorKey, c.GetHeader(ActorHeader))
		c.Next()
	}
}

func tenantFrom(c *gin.Context) uuid.UUID {
	return c.MustGet(tenantKey).(uuid.UUID)
}

func actorFrom(c *gin.Context) string {
	return c.GetString(actorKey)
}
