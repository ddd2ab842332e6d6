package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reportik/reportik/internal/types"
)

// TenantMiddleware resolves the tenant from the X-Tenant-ID header and
// aborts requests that do not carry one. It guards every tenant scoped
// route; the notification and public report endpoints bypass it.
func TenantMiddleware(c *gin.Context) {
	tenantID := c.GetHeader(types.HeaderTenantID)
	if tenantID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "missing tenant header",
		})
		return
	}

	ctx := c.Request.Context()
	ctx = context.WithValue(ctx, types.CtxTenantID, tenantID)

	if userID := c.GetHeader(types.HeaderUserID); userID != "" {
		ctx = context.WithValue(ctx, types.CtxUserID, userID)
	}

	c.Request = c.Request.WithContext(ctx)
	c.Next()
}
