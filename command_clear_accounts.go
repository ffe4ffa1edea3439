package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type ClearAccountsMessage struct {
	Actor ActorRef `json:"-"`

	OnResponse func(*ClearAccountsResponse)
}

func (e ClearAccountsMessage) Type() string { return "account.clear_all" }

type ClearAccountsResponse struct {
	AccountsRemoved     int64 `json:"accounts_removed"`
	ApplicationsRemoved int64 `json:"applications_removed"`
}

// ClearAccountsHandler wipes every account and every application in one
// transaction. An empty table is reported as an error so callers can tell
// a wipe that did work from one that found nothing.
type ClearAccountsHandler struct {
	repo     RepositoryManager
	activity ActivitySink
	logger   Logger
	now      func() time.Time
}

func NewClearAccountsHandler(repo RepositoryManager) *ClearAccountsHandler {
	return &ClearAccountsHandler{
		repo:     repo,
		activity: noopActivitySink{},
		logger:   defLogger{},
		now:      time.Now,
	}
}

func (h *ClearAccountsHandler) WithLogger(l Logger) *ClearAccountsHandler {
	if l != nil {
		h.logger = l
	}
	return h
}

func (h *ClearAccountsHandler) WithActivitySink(sink ActivitySink) *ClearAccountsHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

func (h *ClearAccountsHandler) WithClock(clock func() time.Time) *ClearAccountsHandler {
	if clock != nil {
		h.now = clock
	}
	return h
}

func (h *ClearAccountsHandler) Execute(ctx context.Context, event ClearAccountsMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account wipe",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ClearAccountsHandler) execute(ctx context.Context, event ClearAccountsMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	var accountsRemoved, applicationsRemoved int64

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error

		// Applications go first, they reference the account rows.
		applicationsRemoved, err = h.repo.Applications().ClearAllTx(ctx, tx)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to clear applications")
		}

		accountsRemoved, err = h.repo.Accounts().ClearAllTx(ctx, tx)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to clear accounts")
		}

		if accountsRemoved == 0 {
			return ErrNoAccountsToClear
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "account wipe failed")
	}

	h.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventAccountsCleared,
		Actor:     event.Actor,
		Metadata: map[string]any{
			"accounts_removed":     accountsRemoved,
			"applications_removed": applicationsRemoved,
		},
	})

	if event.OnResponse != nil {
		event.OnResponse(&ClearAccountsResponse{
			AccountsRemoved:     accountsRemoved,
			ApplicationsRemoved: applicationsRemoved,
		})
	}

	return nil
}

func (h *ClearAccountsHandler) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = h.now()
	}
	if err := h.activity.Record(ctx, event); err != nil {
		h.logger.Warn("activity sink record error: %v", err)
	}
}
