// Package httpkit provides HTTP utilities including identity abstraction.
package httpkit

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderTenantID carries the tenant resolved by the upstream gateway.
const HeaderTenantID = "X-Tenant-ID"

// Identity represents the caller's identity as seen by this service.
// Handlers read it through GetIdentity instead of touching gin keys.
type Identity interface {
	// TenantID returns the caller's tenant, or nil when none was supplied.
	TenantID() *uuid.UUID
	// RequestID returns the correlation ID assigned to the request.
	RequestID() string
}

type identity struct {
	tenantID  *uuid.UUID
	requestID string
}

func (i *identity) TenantID() *uuid.UUID {
	return i.tenantID
}

func (i *identity) RequestID() string {
	return i.requestID
}

// TenantFromHeader parses the X-Tenant-ID header into the gin context.
// A malformed header is rejected; a missing one is left for handlers to decide.
func TenantFromHeader() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(HeaderTenantID))
		if raw == "" {
			c.Next()
			return
		}
		tenantID, err := uuid.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: "invalid tenant ID"})
			return
		}
		c.Set(ContextTenantIDKey, tenantID)
		c.Next()
	}
}

// GetIdentity extracts the Identity from a Gin context.
func GetIdentity(c *gin.Context) Identity {
	id := &identity{requestID: c.GetString(ContextRequestIDKey)}
	if value, ok := c.Get(ContextTenantIDKey); ok {
		if tenantID, ok := value.(uuid.UUID); ok {
			id.tenantID = &tenantID
		}
	}
	return id
}

// MustGetTenantID returns the caller's tenant. If none was supplied it aborts
// with 400 Bad Request and returns false.
func MustGetTenantID(c *gin.Context) (uuid.UUID, bool) {
	tenantID := GetIdentity(c).TenantID()
	if tenantID == nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: "tenant ID is required"})
		return uuid.UUID{}, false
	}
	return *tenantID, true
}
