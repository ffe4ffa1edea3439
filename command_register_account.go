package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

type RegisterAccountMessage struct {
	AccountType       string `json:"account_type"`
	FullName          string `json:"full_name"`
	ProfessionalTitle string `json:"professional_title"`
	Email             string `json:"email"`
	Password          string `json:"password"`
	ConfirmPassword   string `json:"confirm_password"`
	UseHashid         bool
	OnResponse        func(resp *RegisterAccountResponse)
}

func (e RegisterAccountMessage) Type() string { return "account.register" }

type RegisterAccountResponse struct {
	Account *Account
}

// RegisterAccountHandler creates an unverified account, issues its first
// OTP, and emails the code. Registration never logs the caller in, no
// tokens are issued here.
type RegisterAccountHandler struct {
	repo     RepositoryManager
	notifier Notifier
	otp      OTPGenerator
	activity ActivitySink
	logger   Logger
	now      func() time.Time
}

func NewRegisterAccountHandler(repo RepositoryManager, notifier Notifier) *RegisterAccountHandler {
	return &RegisterAccountHandler{
		repo:     repo,
		notifier: notifier,
		otp:      NewOTPGenerator(),
		activity: noopActivitySink{},
		logger:   defLogger{},
		now:      time.Now,
	}
}

func (h *RegisterAccountHandler) WithLogger(l Logger) *RegisterAccountHandler {
	if l != nil {
		h.logger = l
	}
	return h
}

func (h *RegisterAccountHandler) WithActivitySink(sink ActivitySink) *RegisterAccountHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

func (h *RegisterAccountHandler) WithOTPGenerator(gen OTPGenerator) *RegisterAccountHandler {
	if gen != nil {
		h.otp = gen
	}
	return h
}

func (h *RegisterAccountHandler) WithClock(clock func() time.Time) *RegisterAccountHandler {
	if clock != nil {
		h.now = clock
	}
	return h
}

func (h *RegisterAccountHandler) Execute(ctx context.Context, event RegisterAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterAccountHandler) execute(ctx context.Context, event RegisterAccountMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if event.Password != event.ConfirmPassword {
		return ErrPasswordMismatch
	}

	account := &Account{}
	var code string

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := h.repo.Accounts().GetByEmailTx(ctx, tx, event.Email); err == nil {
			return ErrAccountExists
		} else if !repository.IsRecordNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check for existing account")
		}

		// The same address can also not be claimed by an organization.
		if _, err := h.repo.Organizations().GetByWorkEmailTx(ctx, tx, event.Email); err == nil {
			return ErrOrganizationEmailTaken
		} else if !repository.IsRecordNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check organization email namespace")
		}

		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		code, err = h.otp.Generate()
		if err != nil {
			return err
		}

		account.AccountType = event.AccountType
		account.FullName = event.FullName
		account.ProfessionalTitle = event.ProfessionalTitle
		account.Email = event.Email
		account.PasswordHash = hash
		account.ProfileStatus = ProfileStatusInitial
		account.SetOTP(code, h.now())

		if event.UseHashid {
			if id, err := hashid.NewUUID(event.Email); err == nil {
				account.ID = id
			}
		}

		if account, err = h.repo.Accounts().CreateTx(ctx, tx, account); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create account")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "account registration transaction failed")
	}

	if err := h.notifier.Send(ctx, account.Email, SubjectOTPVerification, OTPVerificationEmail(code)); err != nil {
		h.logger.Error("registration email failed for %s: %v", account.Email, err)
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to send verification email")
	}

	h.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventAccountRegistered,
		Actor:     ActorRef{ID: account.ID.String(), Type: "account"},
		AccountID: account.ID.String(),
		Metadata:  map[string]any{"email": account.Email},
	})

	if event.OnResponse != nil {
		event.OnResponse(&RegisterAccountResponse{Account: account})
	}

	return nil
}

func (h *RegisterAccountHandler) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = h.now()
	}
	if err := h.activity.Record(ctx, event); err != nil {
		h.logger.Warn("activity sink record error: %v", err)
	}
}
