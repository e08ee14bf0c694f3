package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	apphttp "property_portal_backend/internal/http"
	"property_portal_backend/platform/httpkit"
	"property_portal_backend/platform/logger"
)

type stubConfig struct{}

func (stubConfig) GetHTTPAddr() string      { return ":0" }
func (stubConfig) GetCORSAllowAll() bool    { return false }
func (stubConfig) GetCORSOrigins() []string { return []string{"http://localhost:4200"} }
func (stubConfig) GetCORSAllowCreds() bool  { return true }

type stubHealth struct{ err error }

func (s stubHealth) Ping(context.Context) error { return s.err }

type echoModule struct{}

func (echoModule) Name() string { return "echo" }

func (echoModule) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.GET("/echo", func(c *gin.Context) {
		tenantID, ok := httpkit.MustGetTenantID(c)
		if !ok {
			return
		}
		c.String(http.StatusOK, tenantID.String())
	})
}

func newEngine(health apphttp.HealthChecker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return New(&apphttp.App{
		Config:  stubConfig{},
		Logger:  logger.Discard(),
		Health:  health,
		Modules: []apphttp.Module{echoModule{}},
	})
}

func get(engine *gin.Engine, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	assert.Equal(t, http.StatusOK, get(newEngine(stubHealth{}), "/healthz", nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(newEngine(stubHealth{err: errors.New("down")}), "/healthz", nil).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(newEngine(nil), "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestModuleRoutesAreTenantScoped(t *testing.T) {
	engine := newEngine(nil)

	rec := get(engine, "/api/v1/echo", map[string]string{httpkit.HeaderTenantID: "6f1c1a5e-3c4e-4c47-9d7b-8d7b1c1f0a11"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "6f1c1a5e-3c4e-4c47-9d7b-8d7b1c1f0a11", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(httpkit.HeaderRequestID))

	assert.Equal(t, http.StatusBadRequest, get(engine, "/api/v1/echo", nil).Code)
}
