package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

type RefreshTokenMessage struct {
	RefreshToken string `json:"token"`
	OnResponse   func(resp *RefreshTokenResponse)
}

func (e RefreshTokenMessage) Type() string { return "auth.refresh_token" }

type RefreshTokenResponse struct {
	AccessToken string `json:"access_token"`
}

// RefreshTokenHandler exchanges a valid refresh token for a new access
// token. There is no rotation: the refresh token stays as issued until the
// next login overwrites it.
type RefreshTokenHandler struct {
	repo   RepositoryManager
	tokens TokenService
	logger Logger
}

func NewRefreshTokenHandler(repo RepositoryManager, tokens TokenService) *RefreshTokenHandler {
	return &RefreshTokenHandler{
		repo:   repo,
		tokens: tokens,
		logger: defLogger{},
	}
}

func (h *RefreshTokenHandler) WithLogger(l Logger) *RefreshTokenHandler {
	if l != nil {
		h.logger = l
	}
	return h
}

func (h *RefreshTokenHandler) Execute(ctx context.Context, event RefreshTokenMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during token refresh",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RefreshTokenHandler) execute(ctx context.Context, event RefreshTokenMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if event.RefreshToken == "" {
		return ErrRefreshTokenMissing
	}

	claims, err := h.tokens.ValidateRefresh(event.RefreshToken)
	if err != nil {
		h.logger.Debug("refresh token validation failed: %v", err)
		return ErrSessionExpired
	}

	account, err := h.repo.Accounts().GetByID(ctx, claims.AccountID())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrRefreshTokenMismatch
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account during refresh")
	}

	// Only the most recently stored token is exchangeable. Anything else,
	// including a token from a login that has since been superseded, is
	// rejected outright.
	if account.RefreshToken == nil || *account.RefreshToken != event.RefreshToken {
		return ErrRefreshTokenMismatch
	}

	accessToken, err := h.tokens.SignAccessToken(account.ID.String())
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign access token")
	}

	if event.OnResponse != nil {
		event.OnResponse(&RefreshTokenResponse{AccessToken: accessToken})
	}

	return nil
}
