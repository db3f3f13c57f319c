package admin

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/HanTheDev/storefront-router/internal/hostname"
	"github.com/HanTheDev/storefront-router/internal/models"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLookup struct {
	tenant *models.Tenant
	err    error
}

func (s stubLookup) LookupTenant(ctx context.Context, identifier string, kind hostname.Kind) (*models.Tenant, error) {
	return s.tenant, s.err
}

type stubCache struct {
	purged []string
}

func (s *stubCache) Purge(identifier string, kind hostname.Kind) bool {
	s.purged = append(s.purged, kind.String()+":"+identifier)
	return true
}

type stubClassifier struct{}

func (stubClassifier) Classify(host string) hostname.Result {
	return hostname.Classify(host, hostname.Options{Apex: "example.com"})
}

func newTestRouter(lookup TenantLookup, cache CachePurger) *mux.Router {
	r := mux.NewRouter()
	h := NewAdminHandler(lookup, cache, stubClassifier{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	h.RegisterRoutes(r)
	return r
}

func TestGetTenant(t *testing.T) {
	tenant := &models.Tenant{ID: "t-1", Subdomain: "shop1", Status: models.StatusActive}

	tests := []struct {
		name   string
		lookup stubLookup
		path   string
		want   int
	}{
		{"found", stubLookup{tenant: tenant}, "/tenants/subdomain/shop1", http.StatusOK},
		{"not found", stubLookup{err: models.ErrTenantNotFound}, "/tenants/subdomain/ghost", http.StatusNotFound},
		{"store error", stubLookup{err: errors.New("down")}, "/tenants/custom_domain/acme.io", http.StatusBadGateway},
		{"bad kind", stubLookup{tenant: tenant}, "/tenants/apex/shop1", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newTestRouter(tt.lookup, &stubCache{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestGetTenant_Body(t *testing.T) {
	tenant := &models.Tenant{ID: "t-1", Subdomain: "shop1", Status: models.StatusActive}
	rec := httptest.NewRecorder()

	newTestRouter(stubLookup{tenant: tenant}, &stubCache{}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tenants/subdomain/shop1", nil))

	var got models.Tenant
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "t-1", got.ID)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestPurgeTenant(t *testing.T) {
	cache := &stubCache{}
	rec := httptest.NewRecorder()

	newTestRouter(stubLookup{}, cache).
		ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/cache/tenants/subdomain/shop1", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"subdomain:shop1"}, cache.purged)
	assert.JSONEq(t, `{"purged":true}`, rec.Body.String())
}

func TestPurgeTenant_NormalizesIdentifier(t *testing.T) {
	cache := &stubCache{}

	for _, path := range []string{"/cache/tenants/subdomain/Shop1", "/cache/tenants/custom_domain/Shop.Acme.IO."} {
		rec := httptest.NewRecorder()
		newTestRouter(stubLookup{}, cache).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	assert.Equal(t, []string{"subdomain:shop1", "custom_domain:shop.acme.io"}, cache.purged)
}

func TestClassify(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(stubLookup{}, &stubCache{}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/classify?host=shop1.example.com:443", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"host":"shop1.example.com:443","kind":"subdomain","identifier":"shop1"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	newTestRouter(stubLookup{}, &stubCache{}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/classify", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
