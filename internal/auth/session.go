package auth

import (
	"net/http"
	"strings"
)

// TokenFromRequest reads the session token from the named cookie, falling back
// to an Authorization bearer header.
func TokenFromRequest(r *http.Request, cookieName string) (string, bool) {
	if cookieName != "" {
		if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
			return c.Value, true
		}
	}
	return bearerToken(r)
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// SessionVerifier verifies HS256 session tokens carried by the request.
type SessionVerifier struct {
	CookieName string
}

func NewSessionVerifier(cookieName string) *SessionVerifier {
	return &SessionVerifier{CookieName: cookieName}
}

// Verify returns ErrNoToken when the request carries no token and an error
// wrapping ErrInvalidToken when the token fails verification.
func (v *SessionVerifier) Verify(r *http.Request, secret string) (*Claims, error) {
	token, ok := TokenFromRequest(r, v.CookieName)
	if !ok {
		return nil, ErrNoToken
	}
	return ValidateToken(token, secret)
}
