package auth

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SessionObject is the request-scoped view of a validated access token.
type SessionObject struct {
	AccountID      string     `json:"account_id,omitempty"`
	Issuer         string     `json:"issuer,omitempty"`
	IssuedAt       *time.Time `json:"issued_at,omitempty"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
}

// GetAccountID returns the authenticated account id.
func (s *SessionObject) GetAccountID() string {
	return s.AccountID
}

// GetAccountUUID parses the account id as a UUID.
func (s *SessionObject) GetAccountUUID() (uuid.UUID, error) {
	return uuid.Parse(s.AccountID)
}

// GetIssuer returns the token issuer.
func (s *SessionObject) GetIssuer() string {
	return s.Issuer
}

// GetIssuedAt returns the token issue time.
func (s *SessionObject) GetIssuedAt() *time.Time {
	return s.IssuedAt
}

func (s SessionObject) String() string {
	issuedAt := "<nil>"
	if s.IssuedAt != nil {
		issuedAt = s.IssuedAt.Format(time.RFC1123)
	}
	return fmt.Sprintf("account=%s iss=%s iat=%s", s.AccountID, s.Issuer, issuedAt)
}

// sessionFromAuthClaims creates a SessionObject from validated claims
func sessionFromAuthClaims(claims AuthClaims) (*SessionObject, error) {
	if claims == nil {
		return nil, ErrUnableToFindSession
	}

	issuedAt := claims.IssuedAt()
	expiresAt := claims.Expires()

	issuer := ""
	if jwtClaims, ok := claims.(*JWTClaims); ok {
		issuer = jwtClaims.RegisteredClaims.Issuer
	}

	return &SessionObject{
		AccountID:      claims.AccountID(),
		Issuer:         issuer,
		IssuedAt:       &issuedAt,
		ExpirationDate: &expiresAt,
	}, nil
}
