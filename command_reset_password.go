package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type ResetPasswordMessage struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"new_password"`
}

func (e ResetPasswordMessage) Type() string { return "auth.reset_password" }

// ResetPasswordHandler replaces the credential hash after proving control
// of the email address with a recovery OTP. The OTP must match exactly and
// sit inside its validity window, the swap consumes it.
type ResetPasswordHandler struct {
	repo     RepositoryManager
	activity ActivitySink
	logger   Logger
	now      func() time.Time
}

func NewResetPasswordHandler(repo RepositoryManager) *ResetPasswordHandler {
	return &ResetPasswordHandler{
		repo:     repo,
		activity: noopActivitySink{},
		logger:   defLogger{},
		now:      time.Now,
	}
}

func (h *ResetPasswordHandler) WithLogger(l Logger) *ResetPasswordHandler {
	if l != nil {
		h.logger = l
	}
	return h
}

func (h *ResetPasswordHandler) WithActivitySink(sink ActivitySink) *ResetPasswordHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

func (h *ResetPasswordHandler) WithClock(clock func() time.Time) *ResetPasswordHandler {
	if clock != nil {
		h.now = clock
	}
	return h
}

func (h *ResetPasswordHandler) Execute(ctx context.Context, event ResetPasswordMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ResetPasswordHandler) execute(ctx context.Context, event ResetPasswordMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		account, err := h.repo.Accounts().GetByEmailTx(ctx, tx, event.Email)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrAccountNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account for password reset")
		}

		// Same ordering as verification, an account without an outstanding
		// recovery code reports an invalid code, not an expired one.
		if account.OTP == nil || account.OTPCreatedAt == nil {
			return ErrOTPInvalid
		}

		if !OTPWithinWindow(account.OTPCreatedAt, h.now()) {
			return ErrOTPExpired
		}

		if *account.OTP != event.OTP {
			return ErrOTPInvalid
		}

		hash, err := HashPassword(event.NewPassword)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		if err := h.repo.Accounts().ResetPasswordTx(ctx, tx, account.ID, hash); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update account password")
		}

		h.recordActivity(ctx, ActivityEvent{
			EventType: ActivityEventPasswordResetSuccess,
			Actor:     ActorRef{ID: account.ID.String(), Type: "account"},
			AccountID: account.ID.String(),
		})

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "password reset failed")
	}

	return nil
}

func (h *ResetPasswordHandler) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = h.now()
	}
	if err := h.activity.Record(ctx, event); err != nil {
		h.logger.Warn("activity sink record error: %v", err)
	}
}
