package core

import (
	"crypto/subtle"
	"strings"
	"time"
)

// SecureCompareString performs constant-time string comparison to prevent
// timing attacks.
func SecureCompareString(a, b string) bool {
	aBytes := []byte(a)
	bBytes := []byte(b)

	if len(aBytes) != len(bBytes) {
		return false
	}

	return subtle.ConstantTimeCompare(aBytes, bBytes) == 1
}

// ValidateAuthToken validates an authentication token configured for the
// HTTP transport.
func ValidateAuthToken(token string) error {
	if token == "" {
		return NewError(ErrInvalidParameter, "Authentication token cannot be empty").
			WithGuidance("Provide a valid authentication token for security.")
	}

	if len(token) < 16 {
		return NewError(ErrInvalidParameter, "Authentication token is too short").
			WithGuidance("Use a token with at least 16 characters for security.")
	}

	weakTokens := []string{
		"password", "secret", "token", "admin", "test", "default",
		"12345", "123456", "password123", "secret123", "admin123",
	}

	lowerToken := strings.ToLower(token)
	for _, weak := range weakTokens {
		if strings.Contains(lowerToken, weak) {
			return NewError(ErrInvalidParameter, "Authentication token appears to be weak").
				WithGuidance("Use a randomly generated, strong authentication token.")
		}
	}

	return nil
}

// AuthResult represents the result of authentication
type AuthResult struct {
	Authorized bool
	Error      string
	Duration   time.Duration
}

// AuthenticateBearer performs secure bearer token authentication
func AuthenticateBearer(authHeader, expectedToken string) AuthResult {
	start := time.Now()
	defer func() {
		// Small fixed delay to blunt timing probes
		time.Sleep(1 * time.Millisecond)
	}()

	if authHeader == "" {
		return AuthResult{
			Authorized: false,
			Error:      "Missing Authorization header",
			Duration:   time.Since(start),
		}
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return AuthResult{
			Authorized: false,
			Error:      "Invalid Authorization header format",
			Duration:   time.Since(start),
		}
	}

	if !SecureCompareString(parts[1], expectedToken) {
		return AuthResult{
			Authorized: false,
			Error:      "Invalid bearer token",
			Duration:   time.Since(start),
		}
	}

	return AuthResult{
		Authorized: true,
		Duration:   time.Since(start),
	}
}

// AuthenticateBasic performs secure basic authentication against a
// "username:password" credentials string.
func AuthenticateBasic(username, password, expectedCredentials string) AuthResult {
	start := time.Now()
	defer func() {
		time.Sleep(1 * time.Millisecond)
	}()

	if username == "" || password == "" {
		return AuthResult{
			Authorized: false,
			Error:      "Missing basic auth credentials",
			Duration:   time.Since(start),
		}
	}

	credentials := username + ":" + password

	if !SecureCompareString(credentials, expectedCredentials) {
		return AuthResult{
			Authorized: false,
			Error:      "Invalid basic auth credentials",
			Duration:   time.Since(start),
		}
	}

	return AuthResult{
		Authorized: true,
		Duration:   time.Since(start),
	}
}
