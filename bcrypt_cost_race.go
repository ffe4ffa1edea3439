//go:build race

package auth

import "golang.org/x/crypto/bcrypt"

// Race-enabled builds run hashing often in tests; the default cost keeps
// them inside strict timeouts without touching production hardness.
func passwordHashCost() int {
	return bcrypt.DefaultCost
}
