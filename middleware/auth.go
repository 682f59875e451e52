package middleware

import (
	"errors"
	"net/http"

	"pos-order-service/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	ActorContextKey  = "actorID"
	RoleContextKey   = "role"
	TenantContextKey = "tenantID"
)

// AuthMiddleware reads the identity headers injected by the API
// gateway. Every request carries the acting terminal, its staff role
// and the tenant it operates on.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID := c.GetHeader("X-User-ID")
		role := c.GetHeader("X-User-Role")
		tenantID := c.GetHeader("X-Tenant-ID")

		if actorID == "" || tenantID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		if _, err := uuid.Parse(tenantID); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid tenant ID"})
			return
		}

		c.Set(ActorContextKey, actorID)
		c.Set(RoleContextKey, role)
		c.Set(TenantContextKey, tenantID)
		c.Next()
	}
}

// GetActorID extracts the acting terminal's ID from the Gin context.
func GetActorID(c *gin.Context) (string, error) {
	if val, ok := c.Get(ActorContextKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id, nil
		}
	}
	return "", errors.New("actor ID not found in context")
}

// GetRole returns the staff role carried by the request.
func GetRole(c *gin.Context) models.StaffRole {
	if val, ok := c.Get(RoleContextKey); ok {
		if role, ok := val.(string); ok {
			return models.StaffRole(role)
		}
	}
	return ""
}

// GetTenantID extracts the tenant scope from the Gin context.
func GetTenantID(c *gin.Context) (uuid.UUID, error) {
	if val, ok := c.Get(TenantContextKey); ok {
		if raw, ok := val.(string); ok {
			return uuid.Parse(raw)
		}
	}
	return uuid.Nil, errors.New("tenant ID not found in context")
}

// ManagerOnly restricts a route to privileged roles.
func ManagerOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !GetRole(c).IsPrivileged() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Manager role required"})
			return
		}
		c.Next()
	}
}
