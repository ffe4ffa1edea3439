package auth_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/talentdesk/go-auth"
)

func TestListProfilesReturnsSummaries(t *testing.T) {
	repo := &MockRepositoryManager{}
	accounts := &MockAccounts{}

	stored := []*auth.Account{
		{
			ID:             uuid.New(),
			FullName:       "Ada Lovelace",
			Email:          "ada@example.com",
			ProfilePicture: "https://cdn.example.com/ada.png",
		},
		{
			ID:       uuid.New(),
			FullName: "Grace Hopper",
			Email:    "grace@example.com",
		},
	}

	repo.On("Accounts").Return(accounts)
	accounts.On("List", mock.Anything).
		Return(stored, len(stored), nil).Once()

	var res *auth.ListProfilesResponse

	handler := auth.NewListProfilesHandler(repo).WithLogger(testLogger{})

	err := handler.Execute(context.Background(), auth.ListProfilesMessage{
		OnResponse: func(resp *auth.ListProfilesResponse) {
			res = resp
		},
	})
	require.NoError(t, err)

	require.NotNil(t, res)
	assert.Equal(t, 2, res.Total)
	require.Len(t, res.Profiles, 2)
	assert.Equal(t, auth.ProfileSummary{
		FullName:       "Ada Lovelace",
		Email:          "ada@example.com",
		ProfilePicture: "https://cdn.example.com/ada.png",
	}, res.Profiles[0])
	assert.Equal(t, "grace@example.com", res.Profiles[1].Email)

	accounts.AssertExpectations(t)
}

func TestListProfilesEmptyDirectory(t *testing.T) {
	repo := &MockRepositoryManager{}
	accounts := &MockAccounts{}

	repo.On("Accounts").Return(accounts)
	accounts.On("List", mock.Anything).
		Return([]*auth.Account{}, 0, nil).Once()

	var res *auth.ListProfilesResponse

	handler := auth.NewListProfilesHandler(repo).WithLogger(testLogger{})

	err := handler.Execute(context.Background(), auth.ListProfilesMessage{
		OnResponse: func(resp *auth.ListProfilesResponse) {
			res = resp
		},
	})
	require.NoError(t, err)

	require.NotNil(t, res)
	assert.Equal(t, 0, res.Total)
	assert.NotNil(t, res.Profiles)
	assert.Empty(t, res.Profiles)
}
