package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/HanTheDev/storefront-router/internal/hostname"
	"github.com/HanTheDev/storefront-router/internal/models"
	"github.com/jackc/pgx/v5"
)

const tenantColumns = `id, subdomain, COALESCE(custom_domain, ''), status, COALESCE(settings, '{}'::jsonb), created_at, updated_at`

var (
	tenantBySubdomain = `
        SELECT ` + tenantColumns + `
        FROM tenants
        WHERE lower(subdomain) = $1
    `
	tenantByCustomDomain = `
        SELECT ` + tenantColumns + `
        FROM tenants
        WHERE lower(custom_domain) = $1
    `
)

func (db *DB) LookupTenant(ctx context.Context, identifier string, kind hostname.Kind) (*models.Tenant, error) {
	var query string
	switch kind {
	case hostname.KindSubdomain:
		query = tenantBySubdomain
	case hostname.KindCustomDomain:
		query = tenantByCustomDomain
	default:
		return nil, fmt.Errorf("lookup tenant: unsupported host kind %s", kind)
	}

	var tenant models.Tenant
	var settings []byte
	err := db.Pool.QueryRow(ctx, query, strings.ToLower(identifier)).Scan(
		&tenant.ID,
		&tenant.Subdomain,
		&tenant.CustomDomain,
		&tenant.Status,
		&settings,
		&tenant.CreatedAt,
		&tenant.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrTenantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup tenant %s %q: %w", kind, identifier, err)
	}

	tenant.Settings = settings
	return &tenant, nil
}
