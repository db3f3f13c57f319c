package security

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeaders_Apply(t *testing.T) {
	h := http.Header{}
	h.Set("X-Frame-Options", "ALLOW")

	DefaultHeaders().Apply(h)

	for _, e := range DefaultHeaders() {
		assert.Equal(t, e.Value, h.Get(e.Key), e.Key)
	}
}

func TestHeaders_WithDoesNotMutate(t *testing.T) {
	base := DefaultHeaders()
	n := len(base)

	extended := base.With(Header{"X-Tenant-Id", "t-1"})

	assert.Len(t, base, n)
	assert.Len(t, extended, n+1)
	assert.Equal(t, Header{"X-Tenant-Id", "t-1"}, extended[n])
}
