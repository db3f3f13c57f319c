package admin

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/HanTheDev/storefront-router/internal/hostname"
	"github.com/HanTheDev/storefront-router/internal/models"
	"github.com/gorilla/mux"
)

type TenantLookup interface {
	LookupTenant(ctx context.Context, identifier string, kind hostname.Kind) (*models.Tenant, error)
}

type CachePurger interface {
	Purge(identifier string, kind hostname.Kind) bool
}

type Classifier interface {
	Classify(host string) hostname.Result
}

// AdminHandler serves operator endpoints for inspecting tenant resolution.
type AdminHandler struct {
	lookup     TenantLookup
	cache      CachePurger
	classifier Classifier
	logger     *slog.Logger
}

func NewAdminHandler(lookup TenantLookup, cache CachePurger, classifier Classifier, logger *slog.Logger) *AdminHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminHandler{lookup: lookup, cache: cache, classifier: classifier, logger: logger}
}

func (h *AdminHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/classify", h.Classify).Methods("GET")
	router.HandleFunc("/tenants/{kind}/{identifier}", h.GetTenant).Methods("GET")
	router.HandleFunc("/cache/tenants/{kind}/{identifier}", h.PurgeTenant).Methods("DELETE")
}

func (h *AdminHandler) Classify(w http.ResponseWriter, r *http.Request) {
	host := r.URL.Query().Get("host")
	if host == "" {
		http.Error(w, "host is required", http.StatusBadRequest)
		return
	}

	result := h.classifier.Classify(host)
	writeJSON(w, http.StatusOK, map[string]string{
		"host":       host,
		"kind":       result.Kind.String(),
		"identifier": result.Identifier,
	})
}

func (h *AdminHandler) GetTenant(w http.ResponseWriter, r *http.Request) {
	kind, identifier, ok := tenantVars(w, r)
	if !ok {
		return
	}

	tenant, err := h.lookup.LookupTenant(r.Context(), identifier, kind)
	if errors.Is(err, models.ErrTenantNotFound) {
		http.Error(w, "Tenant not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("admin tenant lookup failed", "kind", kind.String(), "identifier", identifier, "error", err)
		http.Error(w, "Tenant lookup failed", http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, tenant)
}

func (h *AdminHandler) PurgeTenant(w http.ResponseWriter, r *http.Request) {
	kind, identifier, ok := tenantVars(w, r)
	if !ok {
		return
	}

	purged := h.cache.Purge(identifier, kind)
	h.logger.Info("tenant cache entry purged", "kind", kind.String(), "identifier", identifier, "present", purged)

	writeJSON(w, http.StatusOK, map[string]bool{"purged": purged})
}

func tenantVars(w http.ResponseWriter, r *http.Request) (hostname.Kind, string, bool) {
	vars := mux.Vars(r)
	kind, ok := hostname.ParseKind(vars["kind"])
	if !ok {
		http.Error(w, "kind must be subdomain or custom_domain", http.StatusBadRequest)
		return 0, "", false
	}
	// Cache keys hold the classifier's normalized form.
	return kind, hostname.Normalize(vars["identifier"]), true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
