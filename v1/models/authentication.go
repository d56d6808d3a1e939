package models

import (
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// UserClaims represents the JWT claims issued for a catalog user.
// The subject is the numeric user ID; the identity record itself is always
// loaded from the store so role changes apply without reissuing tokens.
type UserClaims struct {
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim into a user ID
func (c *UserClaims) UserID() (uint, error) {
	if c.Subject == "" {
		return 0, fmt.Errorf("subject claim is missing")
	}
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("subject claim %q is not a user id", c.Subject)
	}
	return uint(id), nil
}
