package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	accessKey  []byte
	refreshKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	logger     Logger
}

// NewTokenService creates a new TokenService instance. Access and refresh
// tokens are signed with independent keys so a leaked refresh secret does
// not compromise access tokens, and vice versa.
func NewTokenService(accessKey, refreshKey []byte, accessTTL, refreshTTL time.Duration, issuer string, logger Logger) TokenService {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenServiceImpl{
		accessKey:  accessKey,
		refreshKey: refreshKey,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		issuer:     issuer,
		logger:     logger,
	}
}

// AccessTTL returns the access token lifetime.
func (ts *TokenServiceImpl) AccessTTL() time.Duration { return ts.accessTTL }

// RefreshTTL returns the refresh token lifetime.
func (ts *TokenServiceImpl) RefreshTTL() time.Duration { return ts.refreshTTL }

// SignAccessToken mints a short-lived access token for the account.
func (ts *TokenServiceImpl) SignAccessToken(accountID string) (string, error) {
	return ts.sign(accountID, TokenUseAccess, ts.accessKey, ts.accessTTL)
}

// SignRefreshToken mints the refresh token persisted on the account row.
func (ts *TokenServiceImpl) SignRefreshToken(accountID string) (string, error) {
	return ts.sign(accountID, TokenUseRefresh, ts.refreshKey, ts.refreshTTL)
}

func (ts *TokenServiceImpl) sign(accountID string, use TokenUse, key []byte, ttl time.Duration) (string, error) {
	if accountID == "" {
		return "", errors.New("account id must not be empty", errors.CategoryBadInput)
	}

	now := time.Now()
	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UID:      accountID,
		TokenUse: use,
	}

	ensureTokenID(&claims.RegisteredClaims)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(key)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signed, nil
}

// ValidateAccess parses and validates an access token.
func (ts *TokenServiceImpl) ValidateAccess(tokenString string) (AuthClaims, error) {
	return ts.validate(tokenString, TokenUseAccess, ts.accessKey)
}

// ValidateRefresh parses and validates a refresh token.
func (ts *TokenServiceImpl) ValidateRefresh(tokenString string) (AuthClaims, error) {
	return ts.validate(tokenString, TokenUseRefresh, ts.refreshKey)
}

func (ts *TokenServiceImpl) validate(tokenString string, use TokenUse, key []byte) (AuthClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 1)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService validate encountered unexpected signing method: %v", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return key, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).WithTextCode(ErrTokenMalformed.TextCode)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		ts.logger.Error("TokenService validate could not decode or validate claims")
		return nil, ErrTokenMalformed
	}

	// A refresh token signed with the refresh key can still never pass as
	// an access token, the token_use claim has to agree as well.
	if claims.TokenUse != use {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}
