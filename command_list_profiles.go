package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

type ListProfilesMessage struct {
	OnResponse func(*ListProfilesResponse)
}

func (e ListProfilesMessage) Type() string { return "account.list_profiles" }

type ListProfilesResponse struct {
	Profiles []ProfileSummary `json:"profiles"`
	Total    int              `json:"total"`
}

// ListProfilesHandler returns the directory view of every account. Only the
// summary columns are selected, credential and OTP material never leaves
// the database.
type ListProfilesHandler struct {
	repo   RepositoryManager
	logger Logger
}

func NewListProfilesHandler(repo RepositoryManager) *ListProfilesHandler {
	return &ListProfilesHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

func (h *ListProfilesHandler) WithLogger(l Logger) *ListProfilesHandler {
	if l != nil {
		h.logger = l
	}
	return h
}

func (h *ListProfilesHandler) Execute(ctx context.Context, event ListProfilesMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during profile listing",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ListProfilesHandler) execute(ctx context.Context, event ListProfilesMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	accounts, total, err := h.repo.Accounts().List(ctx,
		repository.SelectColumns("id", "full_name", "email", "profile_picture"),
		repository.SelectOrderAsc("created_at"),
	)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list account profiles")
	}

	profiles := make([]ProfileSummary, 0, len(accounts))
	for _, account := range accounts {
		profiles = append(profiles, account.Summary())
	}

	if event.OnResponse != nil {
		event.OnResponse(&ListProfilesResponse{
			Profiles: profiles,
			Total:    total,
		})
	}

	return nil
}
