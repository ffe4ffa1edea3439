package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type UpdateProfileMessage struct {
	AccountID         uuid.UUID `json:"-"`
	FullName          string    `json:"full_name"`
	ProfessionalTitle string    `json:"professional_title"`
	ProfilePicture    string    `json:"profile_picture"`

	OnResponse func(*UpdateProfileResponse)
}

func (e UpdateProfileMessage) Type() string { return "account.update_profile" }

type UpdateProfileResponse struct {
	Profile PublicProfile `json:"profile"`
}

// UpdateProfileHandler overwrites the mutable profile fields of the
// authenticated account and bumps the profile completeness marker.
type UpdateProfileHandler struct {
	repo     RepositoryManager
	activity ActivitySink
	logger   Logger
	now      func() time.Time
}

func NewUpdateProfileHandler(repo RepositoryManager) *UpdateProfileHandler {
	return &UpdateProfileHandler{
		repo:     repo,
		activity: noopActivitySink{},
		logger:   defLogger{},
		now:      time.Now,
	}
}

func (h *UpdateProfileHandler) WithLogger(l Logger) *UpdateProfileHandler {
	if l != nil {
		h.logger = l
	}
	return h
}

func (h *UpdateProfileHandler) WithActivitySink(sink ActivitySink) *UpdateProfileHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

func (h *UpdateProfileHandler) WithClock(clock func() time.Time) *UpdateProfileHandler {
	if clock != nil {
		h.now = clock
	}
	return h
}

func (h *UpdateProfileHandler) Execute(ctx context.Context, event UpdateProfileMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during profile update",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *UpdateProfileHandler) execute(ctx context.Context, event UpdateProfileMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	var updated *Account

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		account, err := h.repo.Accounts().GetByID(ctx, event.AccountID.String())
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrSessionAccountNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account for profile update")
		}

		record := &Account{
			ID:                account.ID,
			FullName:          event.FullName,
			ProfessionalTitle: event.ProfessionalTitle,
			ProfilePicture:    event.ProfilePicture,
			ProfileStatus:     ProfileStatusComplete,
		}

		updated, err = h.repo.Accounts().UpdateTx(ctx, tx, record, repository.UpdateByID(account.ID.String()))
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist profile update")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "profile update failed")
	}

	h.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventProfileUpdated,
		Actor:     ActorRef{ID: updated.ID.String(), Type: "account"},
		AccountID: updated.ID.String(),
	})

	if event.OnResponse != nil {
		event.OnResponse(&UpdateProfileResponse{Profile: updated.Profile()})
	}

	return nil
}

func (h *UpdateProfileHandler) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = h.now()
	}
	if err := h.activity.Record(ctx, event); err != nil {
		h.logger.Warn("activity sink record error: %v", err)
	}
}
