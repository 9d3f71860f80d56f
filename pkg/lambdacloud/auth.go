package lambdacloud

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// AuthMethod selects how the API key is presented to the API
type AuthMethod string

const (
	// AuthBearer sends "Authorization: Bearer <key>" (recommended)
	AuthBearer AuthMethod = "bearer"
	// AuthBasic sends "Authorization: Basic <base64 of key:>"
	AuthBasic AuthMethod = "basic"
)

// ParseAuthMethod converts a configuration value into an AuthMethod.
// An empty string selects AuthBearer.
func ParseAuthMethod(s string) (AuthMethod, error) {
	switch AuthMethod(strings.ToLower(strings.TrimSpace(s))) {
	case "", AuthBearer:
		return AuthBearer, nil
	case AuthBasic:
		return AuthBasic, nil
	default:
		return "", fmt.Errorf("unsupported auth method: %q (must be 'bearer' or 'basic')", s)
	}
}

// Credential is an API key. It formats as [REDACTED] so it never ends up in logs.
type Credential string

const redacted = "[REDACTED]"

func (Credential) String() string   { return redacted }
func (Credential) GoString() string { return redacted }

// Format implements fmt.Formatter so that every verb, %s and %q included, is redacted.
func (Credential) Format(f fmt.State, verb rune) {
	_, _ = f.Write([]byte(redacted))
}

// authorization renders the Authorization header value.
// It is computed on every request and never cached.
func authorization(method AuthMethod, key Credential) string {
	if method == AuthBasic {
		return "Basic " + base64.StdEncoding.EncodeToString([]byte(string(key)+":"))
	}
	return "Bearer " + string(key)
}
