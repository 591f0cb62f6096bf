// Package security provides the credential primitives behind the auth
// service: bcrypt password hashing and opaque session tokens.
package security

import "golang.org/x/crypto/bcrypt"

// BcryptHasher hashes account passwords. Cost outside bcrypt's valid range
// falls back to the library default; tests lower it to keep runs fast.
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(password string) (string, error) {
	out, err := bcrypt.GenerateFromPassword([]byte(password), h.cost())
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Compare reports a mismatch as bcrypt.ErrMismatchedHashAndPassword; the
// auth service folds that into its invalid-credentials error.
func (h BcryptHasher) Compare(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func (h BcryptHasher) cost() int {
	if h.Cost >= bcrypt.MinCost && h.Cost <= bcrypt.MaxCost {
		return h.Cost
	}
	return bcrypt.DefaultCost
}
