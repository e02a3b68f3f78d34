package auth

import (
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// TokenValidator checks signature and expiry of parsed tokens.
type TokenValidator struct {
	cfg    TokenConfig
	parser *jwt.Parser
}

// NewTokenValidator builds a validator sharing the codec's configuration.
func NewTokenValidator(cfg TokenConfig) (*TokenValidator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &TokenValidator{cfg: cfg, parser: jwt.NewParser(jwt.WithStrictDecoding())}, nil
}

// Verify accepts a token only when its HS256 signature matches and exp is strictly after now.
func (v *TokenValidator) Verify(tok *ParsedToken, now time.Time) Verdict {
	if tok == nil || tok.Claims == nil {
		return VerdictMalformedClaims
	}
	if tok.Method == nil || tok.Method.Alg() != jwt.SigningMethodHS256.Alg() {
		return VerdictInvalidSignature
	}

	sig, err := v.parser.DecodeSegment(tok.signature)
	if err != nil || len(sig) == 0 {
		return VerdictInvalidSignature
	}
	if err := jwt.SigningMethodHS256.Verify(tok.signingString, sig, v.cfg.Secret); err != nil {
		return VerdictInvalidSignature
	}

	if tok.Claims.ExpiresAt == nil {
		return VerdictMalformedClaims
	}
	if !tok.Claims.ExpiresAt.Time.After(now) {
		return VerdictExpired
	}
	if tok.Claims.Subject == "" {
		return VerdictMalformedClaims
	}
	return VerdictOK
}
