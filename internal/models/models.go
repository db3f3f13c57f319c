package models

import (
	"encoding/json"
	"errors"
	"time"
)

const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
	StatusPending   = "pending"
)

type Tenant struct {
	ID           string `json:"id"`
	Subdomain    string `json:"subdomain"`
	CustomDomain string `json:"custom_domain,omitempty"`
	Status       string `json:"status"`
	// Settings is forwarded downstream verbatim and never interpreted by the router.
	Settings  json.RawMessage `json:"settings,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (t *Tenant) Active() bool {
	return t.Status == StatusActive
}

// ErrTenantNotFound is the lookup's not-found signal. Any other lookup error
// means the store could not answer and must not be treated as absence.
var ErrTenantNotFound = errors.New("tenant not found")
