package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/talentdesk/go-auth"
)

func TestAccountStateMachineSuspensionSetsTimestamp(t *testing.T) {
	repo := &MockAccounts{}
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	account := &auth.Account{
		ID:     uuid.New(),
		Status: auth.AccountStatusNormal,
	}

	expected := &auth.Account{
		ID:          account.ID,
		Status:      auth.AccountStatusSuspended,
		SuspendedAt: &now,
	}

	repo.On("UpdateStatus", mock.Anything, account.ID, auth.AccountStatusSuspended, mock.Anything).
		Return(expected, nil).Once()

	sm := auth.NewAccountStateMachine(repo, auth.WithStateMachineClock(func() time.Time { return now }))

	result, err := sm.Transition(context.Background(), auth.ActorRef{ID: "admin"}, account, auth.AccountStatusSuspended)
	require.NoError(t, err)
	assert.True(t, result.IsSuspended())
	require.NotNil(t, result.SuspendedAt)
	assert.Equal(t, now, result.SuspendedAt.UTC())
	repo.AssertExpectations(t)
}

func TestAccountStateMachineReinstateClearsTimestamp(t *testing.T) {
	repo := &MockAccounts{}
	now := time.Now()
	account := &auth.Account{
		ID:          uuid.New(),
		Status:      auth.AccountStatusSuspended,
		SuspendedAt: &now,
	}

	repo.On("UpdateStatus", mock.Anything, account.ID, auth.AccountStatusNormal, mock.Anything).
		Return(&auth.Account{ID: account.ID, Status: auth.AccountStatusNormal}, nil).Once()

	sm := auth.NewAccountStateMachine(repo)

	result, err := sm.Transition(context.Background(), auth.ActorRef{}, account, auth.AccountStatusNormal)
	require.NoError(t, err)
	assert.False(t, result.IsSuspended())
	assert.Nil(t, result.SuspendedAt)
	repo.AssertExpectations(t)
}

func TestAccountStateMachineRejectsEmptyTarget(t *testing.T) {
	repo := &MockAccounts{}
	account := &auth.Account{
		ID:     uuid.New(),
		Status: auth.AccountStatusNormal,
	}

	sm := auth.NewAccountStateMachine(repo)

	_, err := sm.Transition(context.Background(), auth.ActorRef{}, account, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrInvalidTransition)
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAccountStateMachineRejectsUnknownTransition(t *testing.T) {
	repo := &MockAccounts{}
	account := &auth.Account{
		ID:     uuid.New(),
		Status: auth.AccountStatusNormal,
	}

	sm := auth.NewAccountStateMachine(repo)

	_, err := sm.Transition(context.Background(), auth.ActorRef{}, account, "banned")
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrInvalidTransition)
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAccountStateMachineSameStatusIsANoop(t *testing.T) {
	repo := &MockAccounts{}
	account := &auth.Account{
		ID:     uuid.New(),
		Status: auth.AccountStatusNormal,
	}

	sm := auth.NewAccountStateMachine(repo)

	result, err := sm.Transition(context.Background(), auth.ActorRef{}, account, auth.AccountStatusNormal)
	require.NoError(t, err)
	assert.Equal(t, account, result)
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAccountStateMachineEmitsActivityEvent(t *testing.T) {
	repo := &MockAccounts{}
	sink := &MockActivitySink{}
	now := time.Date(2026, 6, 2, 9, 0, 0, 0, time.UTC)
	account := &auth.Account{
		ID:     uuid.New(),
		Status: auth.AccountStatusNormal,
	}

	repo.On("UpdateStatus", mock.Anything, account.ID, auth.AccountStatusSuspended, mock.Anything).
		Return(&auth.Account{ID: account.ID, Status: auth.AccountStatusSuspended}, nil).Once()

	sink.On("Record", mock.Anything, mock.MatchedBy(func(evt auth.ActivityEvent) bool {
		return evt.EventType == auth.ActivityEventAccountStatusChanged &&
			evt.AccountID == account.ID.String() &&
			evt.FromStatus == auth.AccountStatusNormal &&
			evt.ToStatus == auth.AccountStatusSuspended
	})).Return(nil).Once()

	sm := auth.NewAccountStateMachine(
		repo,
		auth.WithStateMachineClock(func() time.Time { return now }),
		auth.WithStateMachineActivitySink(sink),
	)

	_, err := sm.Transition(
		context.Background(),
		auth.ActorRef{ID: "admin"},
		account,
		auth.AccountStatusSuspended,
		auth.WithTransitionReason("policy"),
	)
	require.NoError(t, err)

	repo.AssertExpectations(t)
	sink.AssertExpectations(t)
}

func TestAccountStateMachineCurrentStatusDefaults(t *testing.T) {
	sm := auth.NewAccountStateMachine(&MockAccounts{})

	assert.Equal(t, "", sm.CurrentStatus(nil))
	assert.Equal(t, auth.AccountStatusNormal, sm.CurrentStatus(&auth.Account{}))
}
