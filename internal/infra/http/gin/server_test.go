package ginserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/infra/config"
	"staybook/internal/infra/obs"
)

type stubListing struct{}

func (stubListing) Catalog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"page": "catalog"})
}

func (stubListing) Overview(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"listing_id": c.Param("id")})
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	srv := NewServer(
		config.Config{Env: "test", HTTPAddr: ":0"},
		obs.Middleware{},
		obs.HealthHandlers{},
		Handlers{Listing: stubListing{}},
	)
	return srv.Handler
}

func TestListingDetailRoute(t *testing.T) {
	handler := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings/lst-1", nil)
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"listing_id":"lst-1"}`, w.Body.String())
}

func TestListingCatalogRoute(t *testing.T) {
	handler := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings", nil)
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"page":"catalog"}`, w.Body.String())
}

func TestLivez(t *testing.T) {
	handler := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/livez", nil)
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
