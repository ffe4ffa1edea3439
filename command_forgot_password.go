package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type ForgotPasswordMessage struct {
	Email string `json:"email"`
}

func (e ForgotPasswordMessage) Type() string { return "auth.forgot_password" }

// ForgotPasswordHandler issues a fresh recovery OTP and emails it. The new
// code replaces any outstanding one, old codes stop working immediately.
type ForgotPasswordHandler struct {
	repo     RepositoryManager
	notifier Notifier
	otp      OTPGenerator
	logger   Logger
	now      func() time.Time
}

func NewForgotPasswordHandler(repo RepositoryManager, notifier Notifier) *ForgotPasswordHandler {
	return &ForgotPasswordHandler{
		repo:     repo,
		notifier: notifier,
		otp:      NewOTPGenerator(),
		logger:   defLogger{},
		now:      time.Now,
	}
}

func (h *ForgotPasswordHandler) WithLogger(l Logger) *ForgotPasswordHandler {
	if l != nil {
		h.logger = l
	}
	return h
}

func (h *ForgotPasswordHandler) WithOTPGenerator(gen OTPGenerator) *ForgotPasswordHandler {
	if gen != nil {
		h.otp = gen
	}
	return h
}

func (h *ForgotPasswordHandler) WithClock(clock func() time.Time) *ForgotPasswordHandler {
	if clock != nil {
		h.now = clock
	}
	return h
}

func (h *ForgotPasswordHandler) Execute(ctx context.Context, event ForgotPasswordMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password recovery",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ForgotPasswordHandler) execute(ctx context.Context, event ForgotPasswordMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	var email string
	var code string

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		account, err := h.repo.Accounts().GetByEmailTx(ctx, tx, event.Email)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrAccountNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account for password recovery")
		}

		if code, err = h.otp.Generate(); err != nil {
			return err
		}

		if err := h.repo.Accounts().SetOTPTx(ctx, tx, account.ID, code, h.now()); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store recovery otp")
		}

		email = account.Email
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "password recovery failed")
	}

	if err := h.notifier.Send(ctx, email, SubjectPasswordReset, PasswordResetEmail(code)); err != nil {
		h.logger.Error("recovery email failed for %s: %v", email, err)
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to send recovery email")
	}

	return nil
}
