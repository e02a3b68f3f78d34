package auth

import "golang.org/x/crypto/bcrypt"

// PasswordVerifier compares a plaintext password with a stored hash.
type PasswordVerifier interface {
	Verify(plaintext, hash string) bool
}

// BcryptVerifier checks bcrypt hashes; the comparison is constant-time.
type BcryptVerifier struct{}

// Verify implements PasswordVerifier.
func (BcryptVerifier) Verify(plaintext, hash string) bool {
	return ComparePassword(hash, plaintext) == nil
}

// HashPassword hashes a plaintext password with configured cost.
func HashPassword(password string, cost int) (string, error) {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword verifies a password against its hashed value.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}
