package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type LoginMessage struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	OnResponse func(resp *LoginResponse)
}

func (e LoginMessage) Type() string { return "auth.login" }

type LoginResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	Profile      PublicProfile `json:"profile"`
}

// LoginHandler verifies credentials and mints the token pair. The freshly
// minted refresh token replaces whatever the account held before, so a
// second login silently ends the first session.
type LoginHandler struct {
	repo     RepositoryManager
	tokens   TokenService
	activity ActivitySink
	logger   Logger
	now      func() time.Time
}

func NewLoginHandler(repo RepositoryManager, tokens TokenService) *LoginHandler {
	return &LoginHandler{
		repo:     repo,
		tokens:   tokens,
		activity: noopActivitySink{},
		logger:   defLogger{},
		now:      time.Now,
	}
}

func (h *LoginHandler) WithLogger(l Logger) *LoginHandler {
	if l != nil {
		h.logger = l
	}
	return h
}

func (h *LoginHandler) WithActivitySink(sink ActivitySink) *LoginHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

func (h *LoginHandler) Execute(ctx context.Context, event LoginMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during login",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *LoginHandler) execute(ctx context.Context, event LoginMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	account, err := h.repo.Accounts().GetByEmail(ctx, event.Email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			// Same error as a wrong password, the response never reveals
			// whether the address is registered.
			return h.loginFailure(ctx, event.Email, ErrInvalidCredentials)
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account during login")
	}

	if err := ComparePasswordAndHash(event.Password, account.PasswordHash); err != nil {
		return h.loginFailure(ctx, event.Email, ErrInvalidCredentials)
	}

	if !account.IsVerified {
		return h.loginFailure(ctx, event.Email, ErrAccountNotVerified)
	}

	if account.IsSuspended() {
		return h.loginFailure(ctx, event.Email, ErrAccountSuspended)
	}

	accessToken, err := h.tokens.SignAccessToken(account.ID.String())
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign access token")
	}

	refreshToken, err := h.tokens.SignRefreshToken(account.ID.String())
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign refresh token")
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return h.repo.Accounts().StoreRefreshTokenTx(ctx, tx, account.ID, refreshToken)
	})
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist refresh token")
	}

	h.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventLoginSuccess,
		Actor:     ActorRef{ID: account.ID.String(), Type: "account"},
		AccountID: account.ID.String(),
		Metadata:  map[string]any{"email": account.Email},
	})

	if event.OnResponse != nil {
		event.OnResponse(&LoginResponse{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			Profile:      account.Profile(),
		})
	}

	return nil
}

func (h *LoginHandler) loginFailure(ctx context.Context, email string, cause *goerrors.Error) error {
	h.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventLoginFailure,
		Actor:     ActorRef{Type: "unknown"},
		Metadata: map[string]any{
			"email": email,
			"error": cause.Message,
		},
	})
	return cause
}

func (h *LoginHandler) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = h.now()
	}
	if err := h.activity.Record(ctx, event); err != nil {
		h.logger.Warn("activity sink record error: %v", err)
	}
}
