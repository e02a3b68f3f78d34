package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the validity window used when none is configured.
const DefaultTokenTTL = 24 * time.Hour

// TokenConfig is the immutable signing configuration shared by the codec and validator.
type TokenConfig struct {
	Secret []byte
	TTL    time.Duration
}

func (cfg TokenConfig) validate() error {
	if len(cfg.Secret) == 0 {
		return errors.New("token signing secret is empty")
	}
	if cfg.TTL <= 0 {
		return errors.New("token ttl must be positive")
	}
	return nil
}

// Claims describes the JWT payload.
type Claims struct {
	UserID int64    `json:"id"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

// ParsedToken is a decoded but not yet verified token.
type ParsedToken struct {
	Raw    string
	Method jwt.SigningMethod
	Header map[string]interface{}
	Claims *Claims

	signingString string
	signature     string
}

// TokenCodec issues and parses HS256 tokens.
type TokenCodec struct {
	cfg    TokenConfig
	parser *jwt.Parser
}

// NewTokenCodec builds a codec from validated configuration.
func NewTokenCodec(cfg TokenConfig) (*TokenCodec, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &TokenCodec{cfg: cfg, parser: jwt.NewParser(jwt.WithStrictDecoding())}, nil
}

// TTL reports the configured validity window.
func (tc *TokenCodec) TTL() time.Duration {
	return tc.cfg.TTL
}

// Issue signs a token for the identity, expiring TTL after now.
func (tc *TokenCodec) Issue(id int64, username string, roles []string, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(tc.cfg.TTL)
	claims := &Claims{
		UserID: id,
		Roles:  append([]string{}, roles...),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tc.cfg.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse decodes header and claims without checking the signature.
// The signature segment is kept raw and only decoded during verification.
func (tc *TokenCodec) Parse(raw string) (*ParsedToken, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: token contains an invalid number of segments", ErrTokenMalformed)
	}

	token, _, err := tc.parser.ParseUnverified(raw, &Claims{})
	if err != nil && !(token != nil && errors.Is(err, jwt.ErrTokenUnverifiable)) {
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected claims type", ErrTokenMalformed)
	}

	return &ParsedToken{
		Raw:           raw,
		Method:        token.Method,
		Header:        token.Header,
		Claims:        claims,
		signingString: parts[0] + "." + parts[1],
		signature:     parts[2],
	}, nil
}
