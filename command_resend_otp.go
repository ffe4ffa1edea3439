package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type ResendOTPMessage struct {
	Email string `json:"email"`
}

func (e ResendOTPMessage) Type() string { return "account.resend_otp" }

// ResendOTPHandler reissues the verification code for an account that has
// not completed verification yet. Verified accounts have nothing to verify,
// asking for a resend then is a conflict.
type ResendOTPHandler struct {
	repo     RepositoryManager
	notifier Notifier
	otp      OTPGenerator
	logger   Logger
	now      func() time.Time
}

func NewResendOTPHandler(repo RepositoryManager, notifier Notifier) *ResendOTPHandler {
	return &ResendOTPHandler{
		repo:     repo,
		notifier: notifier,
		otp:      NewOTPGenerator(),
		logger:   defLogger{},
		now:      time.Now,
	}
}

func (h *ResendOTPHandler) WithLogger(l Logger) *ResendOTPHandler {
	if l != nil {
		h.logger = l
	}
	return h
}

func (h *ResendOTPHandler) WithOTPGenerator(gen OTPGenerator) *ResendOTPHandler {
	if gen != nil {
		h.otp = gen
	}
	return h
}

func (h *ResendOTPHandler) WithClock(clock func() time.Time) *ResendOTPHandler {
	if clock != nil {
		h.now = clock
	}
	return h
}

func (h *ResendOTPHandler) Execute(ctx context.Context, event ResendOTPMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during otp resend",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ResendOTPHandler) execute(ctx context.Context, event ResendOTPMessage) error {
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
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account for otp resend")
		}

		if account.IsVerified {
			return ErrAlreadyVerified
		}

		if code, err = h.otp.Generate(); err != nil {
			return err
		}

		if err := h.repo.Accounts().SetOTPTx(ctx, tx, account.ID, code, h.now()); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store verification otp")
		}

		email = account.Email
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "otp resend failed")
	}

	if err := h.notifier.Send(ctx, email, SubjectOTPVerification, OTPVerificationEmail(code)); err != nil {
		h.logger.Error("verification email failed for %s: %v", email, err)
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to send verification email")
	}

	return nil
}
