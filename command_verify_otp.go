package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type VerifyOTPMessage struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

func (e VerifyOTPMessage) Type() string { return "account.verify_otp" }

// VerifyOTPHandler activates an account when the submitted code matches the
// outstanding OTP inside its validity window. The code is consumed either
// way on success, a verified account holds no OTP.
type VerifyOTPHandler struct {
	repo     RepositoryManager
	activity ActivitySink
	logger   Logger
	now      func() time.Time
}

func NewVerifyOTPHandler(repo RepositoryManager) *VerifyOTPHandler {
	return &VerifyOTPHandler{
		repo:     repo,
		activity: noopActivitySink{},
		logger:   defLogger{},
		now:      time.Now,
	}
}

func (h *VerifyOTPHandler) WithLogger(l Logger) *VerifyOTPHandler {
	if l != nil {
		h.logger = l
	}
	return h
}

func (h *VerifyOTPHandler) WithActivitySink(sink ActivitySink) *VerifyOTPHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

func (h *VerifyOTPHandler) WithClock(clock func() time.Time) *VerifyOTPHandler {
	if clock != nil {
		h.now = clock
	}
	return h
}

func (h *VerifyOTPHandler) Execute(ctx context.Context, event VerifyOTPMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during otp verification",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyOTPHandler) execute(ctx context.Context, event VerifyOTPMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		account, err := h.repo.Accounts().GetByEmailTx(ctx, tx, event.Email)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrAccountNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account for verification")
		}

		// An account with no outstanding code cannot have an expired one.
		// Expiry only applies to codes that were actually issued, a stale
		// code tells the caller to request a new one rather than to retype it.
		if account.OTP == nil || account.OTPCreatedAt == nil {
			return ErrOTPInvalid
		}

		if !OTPWithinWindow(account.OTPCreatedAt, h.now()) {
			return ErrOTPExpired
		}

		if *account.OTP != event.OTP {
			return ErrOTPInvalid
		}

		if err := h.repo.Accounts().MarkVerifiedTx(ctx, tx, account.ID); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mark account verified")
		}

		h.recordActivity(ctx, ActivityEvent{
			EventType: ActivityEventAccountVerified,
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
		return goerrors.Wrap(err, goerrors.CategoryInternal, "otp verification failed")
	}

	return nil
}

func (h *VerifyOTPHandler) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = h.now()
	}
	if err := h.activity.Record(ctx, event); err != nil {
		h.logger.Warn("activity sink record error: %v", err)
	}
}
