package auth

import "errors"

// Authentication and authorization failure kinds. They collapse to a handful of
// HTTP statuses at the boundary but stay distinguishable with errors.Is.
var (
	ErrAuthenticationFailed  = errors.New("authentication failed: bad credentials")
	ErrTokenMalformed        = errors.New("token malformed")
	ErrTokenInvalidSignature = errors.New("token signature invalid")
	ErrTokenExpired          = errors.New("token expired")
	ErrTokenMalformedClaims  = errors.New("token claims malformed")
	ErrRoleFormatViolation   = errors.New("role already carries authority prefix")
	ErrAuthorizationDenied   = errors.New("access denied")
)

// Verdict is the outcome of verifying a parsed token.
type Verdict int

const (
	VerdictOK Verdict = iota
	VerdictInvalidSignature
	VerdictExpired
	VerdictMalformedClaims
)

func (v Verdict) String() string {
	switch v {
	case VerdictOK:
		return "ok"
	case VerdictInvalidSignature:
		return "invalid_signature"
	case VerdictExpired:
		return "expired"
	case VerdictMalformedClaims:
		return "malformed_claims"
	default:
		return "unknown"
	}
}

// Err returns the sentinel error for a failed verdict and nil for VerdictOK.
func (v Verdict) Err() error {
	switch v {
	case VerdictOK:
		return nil
	case VerdictInvalidSignature:
		return ErrTokenInvalidSignature
	case VerdictExpired:
		return ErrTokenExpired
	default:
		return ErrTokenMalformedClaims
	}
}

// failureKind names an error for logs and metric labels.
func failureKind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrAuthenticationFailed):
		return "authentication_failed"
	case errors.Is(err, ErrTokenMalformed):
		return "token_malformed"
	case errors.Is(err, ErrTokenInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	case errors.Is(err, ErrTokenMalformedClaims):
		return "malformed_claims"
	case errors.Is(err, ErrRoleFormatViolation):
		return "role_format_violation"
	default:
		return "error"
	}
}
