package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type DeleteAccountMessage struct {
	AccountID uuid.UUID `json:"-"`

	OnResponse func(*DeleteAccountResponse)
}

func (e DeleteAccountMessage) Type() string { return "account.delete" }

type DeleteAccountResponse struct {
	ApplicationsRemoved int64 `json:"applications_removed"`
}

// DeleteAccountHandler removes the authenticated account and every
// application it owns. Both deletes run in one transaction so orphaned
// applications can never survive their account.
type DeleteAccountHandler struct {
	repo     RepositoryManager
	activity ActivitySink
	logger   Logger
	now      func() time.Time
}

func NewDeleteAccountHandler(repo RepositoryManager) *DeleteAccountHandler {
	return &DeleteAccountHandler{
		repo:     repo,
		activity: noopActivitySink{},
		logger:   defLogger{},
		now:      time.Now,
	}
}

func (h *DeleteAccountHandler) WithLogger(l Logger) *DeleteAccountHandler {
	if l != nil {
		h.logger = l
	}
	return h
}

func (h *DeleteAccountHandler) WithActivitySink(sink ActivitySink) *DeleteAccountHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

func (h *DeleteAccountHandler) WithClock(clock func() time.Time) *DeleteAccountHandler {
	if clock != nil {
		h.now = clock
	}
	return h
}

func (h *DeleteAccountHandler) Execute(ctx context.Context, event DeleteAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account deletion",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *DeleteAccountHandler) execute(ctx context.Context, event DeleteAccountMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	var removed int64

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		account, err := h.repo.Accounts().GetByID(ctx, event.AccountID.String())
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrSessionAccountNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account for deletion")
		}

		removed, err = h.repo.Applications().DeleteByAccountTx(ctx, tx, account.ID)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to remove account applications")
		}

		// Hard delete, the account row carries a soft delete column.
		if _, err := tx.NewDelete().
			Model(account).
			WherePK().
			ForceDelete().
			Exec(ctx); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to remove account")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "account deletion failed")
	}

	h.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventAccountDeleted,
		Actor:     ActorRef{ID: event.AccountID.String(), Type: "account"},
		AccountID: event.AccountID.String(),
		Metadata: map[string]any{
			"applications_removed": removed,
		},
	})

	if event.OnResponse != nil {
		event.OnResponse(&DeleteAccountResponse{ApplicationsRemoved: removed})
	}

	return nil
}

func (h *DeleteAccountHandler) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = h.now()
	}
	if err := h.activity.Record(ctx, event); err != nil {
		h.logger.Warn("activity sink record error: %v", err)
	}
}
