package auth_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talentdesk/go-auth"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	repository "github.com/goliatone/go-repository-bun"
)

const (
	sqliteCreateAccounts = `CREATE TABLE accounts (
    id TEXT NOT NULL PRIMARY KEY,
    account_type TEXT NOT NULL,
    full_name TEXT NOT NULL,
    professional_title TEXT,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT,
    is_verified BOOLEAN NOT NULL DEFAULT FALSE,
    otp TEXT,
    otp_created_at TIMESTAMP NULL,
    refresh_token TEXT,
    status TEXT NOT NULL DEFAULT 'normal',
    profile_status INTEGER DEFAULT 0,
    profile_picture TEXT,
    suspended_at TIMESTAMP NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP,
    deleted_at TIMESTAMP NULL
);`

	sqliteCreateOrganizations = `CREATE TABLE organizations (
    id TEXT NOT NULL PRIMARY KEY,
    name TEXT NOT NULL,
    work_email TEXT NOT NULL UNIQUE,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP
);`

	sqliteCreateApplications = `CREATE TABLE applications (
    id TEXT NOT NULL PRIMARY KEY,
    account_id TEXT NOT NULL,
    position TEXT,
    company TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`
)

func setupRepositoryManager(t *testing.T) (auth.RepositoryManager, func()) {
	t.Helper()

	// A file-backed database: handlers read outside the transaction while
	// one is open, which a single shared :memory: connection cannot serve.
	db, err := sql.Open(sqliteshim.ShimName, filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)

	bunDB := bun.NewDB(db, sqlitedialect.New())

	for _, ddl := range []string{sqliteCreateAccounts, sqliteCreateOrganizations, sqliteCreateApplications} {
		_, err = bunDB.Exec(ddl)
		require.NoError(t, err)
	}

	cleanup := func() {
		_ = bunDB.Close()
		_ = db.Close()
	}

	return auth.NewRepositoryManager(bunDB), cleanup
}

func TestAccountsRepositoryLifecycle(t *testing.T) {
	repo, cleanup := setupRepositoryManager(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	record := &auth.Account{
		FullName:     "Ada Lovelace",
		Email:        "ada@example.com",
		PasswordHash: "a-hash",
	}
	record.SetOTP("482917", now)

	created, err := repo.Accounts().Register(ctx, record)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, auth.AccountTypeIndividual, created.AccountType)
	assert.Equal(t, auth.AccountStatusNormal, created.Status)
	assert.Equal(t, auth.ProfileStatusInitial, created.ProfileStatus)

	found, err := repo.Accounts().GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.False(t, found.IsVerified)
	require.NotNil(t, found.OTP)
	assert.Equal(t, "482917", *found.OTP)

	// Verification consumes the code in the same statement.
	require.NoError(t, repo.Accounts().MarkVerified(ctx, created.ID))

	found, err = repo.Accounts().GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.True(t, found.IsVerified)
	assert.Nil(t, found.OTP)
	assert.Nil(t, found.OTPCreatedAt)

	require.NoError(t, repo.Accounts().SetOTP(ctx, created.ID, "731582", now))

	found, err = repo.Accounts().GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	require.NotNil(t, found.OTP)
	assert.Equal(t, "731582", *found.OTP)

	require.NoError(t, repo.Accounts().StoreRefreshToken(ctx, created.ID, "refresh-token-1"))

	found, err = repo.Accounts().GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	require.NotNil(t, found.RefreshToken)
	assert.Equal(t, "refresh-token-1", *found.RefreshToken)

	// The newest token replaces the previous one outright.
	require.NoError(t, repo.Accounts().StoreRefreshToken(ctx, created.ID, "refresh-token-2"))

	found, err = repo.Accounts().GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	require.NotNil(t, found.RefreshToken)
	assert.Equal(t, "refresh-token-2", *found.RefreshToken)

	// A password reset swaps the hash and clears any outstanding code.
	require.NoError(t, repo.Accounts().ResetPassword(ctx, created.ID, "another-hash"))

	found, err = repo.Accounts().GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "another-hash", found.PasswordHash)
	assert.Nil(t, found.OTP)
	assert.Nil(t, found.OTPCreatedAt)
}

func TestAccountsRepositoryGetByEmailNotFound(t *testing.T) {
	repo, cleanup := setupRepositoryManager(t)
	defer cleanup()

	_, err := repo.Accounts().GetByEmail(context.Background(), "ghost@example.com")
	require.Error(t, err)
	assert.True(t, repository.IsRecordNotFound(err))
}

func TestOrganizationsRepositoryGetByWorkEmail(t *testing.T) {
	repo, cleanup := setupRepositoryManager(t)
	defer cleanup()

	ctx := context.Background()

	org := &auth.Organization{
		ID:        uuid.New(),
		Name:      "Analytical Engines Ltd",
		WorkEmail: "work@engines.example.com",
	}

	_, err := repo.Organizations().Create(ctx, org)
	require.NoError(t, err)

	found, err := repo.Organizations().GetByWorkEmail(ctx, "work@engines.example.com")
	require.NoError(t, err)
	assert.Equal(t, org.ID, found.ID)

	_, err = repo.Organizations().GetByWorkEmail(ctx, "nobody@engines.example.com")
	require.Error(t, err)
	assert.True(t, repository.IsRecordNotFound(err))
}

func TestDeleteAccountCascadesApplications(t *testing.T) {
	repo, cleanup := setupRepositoryManager(t)
	defer cleanup()

	ctx := context.Background()

	account, err := repo.Accounts().Register(ctx, &auth.Account{
		FullName:     "Ada Lovelace",
		Email:        "ada@example.com",
		PasswordHash: "a-hash",
		IsVerified:   true,
	})
	require.NoError(t, err)

	other, err := repo.Accounts().Register(ctx, &auth.Account{
		FullName:     "Grace Hopper",
		Email:        "grace@example.com",
		PasswordHash: "a-hash",
		IsVerified:   true,
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = repo.Applications().Create(ctx, &auth.Application{
			ID:        uuid.New(),
			AccountID: account.ID,
			Position:  "Engineer",
			Company:   "Example Co",
		})
		require.NoError(t, err)
	}
	_, err = repo.Applications().Create(ctx, &auth.Application{
		ID:        uuid.New(),
		AccountID: other.ID,
		Position:  "Engineer",
		Company:   "Example Co",
	})
	require.NoError(t, err)

	var res *auth.DeleteAccountResponse

	handler := auth.NewDeleteAccountHandler(repo).WithLogger(testLogger{})

	err = handler.Execute(ctx, auth.DeleteAccountMessage{
		AccountID: account.ID,
		OnResponse: func(resp *auth.DeleteAccountResponse) {
			res = resp
		},
	})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, int64(3), res.ApplicationsRemoved)

	_, err = repo.Accounts().GetByEmail(ctx, "ada@example.com")
	require.Error(t, err)
	assert.True(t, repository.IsRecordNotFound(err))

	remaining, err := repo.Applications().ListByAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	// Unrelated accounts keep their applications.
	kept, err := repo.Applications().ListByAccount(ctx, other.ID)
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}

func TestListProfilesReadsStoredAccounts(t *testing.T) {
	repo, cleanup := setupRepositoryManager(t)
	defer cleanup()

	ctx := context.Background()

	for _, seed := range []*auth.Account{
		{FullName: "Ada Lovelace", Email: "ada@example.com", ProfilePicture: "https://cdn.example.com/ada.png"},
		{FullName: "Grace Hopper", Email: "grace@example.com"},
	} {
		_, err := repo.Accounts().Register(ctx, seed)
		require.NoError(t, err)
	}

	var res *auth.ListProfilesResponse

	handler := auth.NewListProfilesHandler(repo).WithLogger(testLogger{})

	err := handler.Execute(ctx, auth.ListProfilesMessage{
		OnResponse: func(resp *auth.ListProfilesResponse) {
			res = resp
		},
	})
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, 2, res.Total)
	require.Len(t, res.Profiles, 2)

	emails := []string{res.Profiles[0].Email, res.Profiles[1].Email}
	assert.ElementsMatch(t, []string{"ada@example.com", "grace@example.com"}, emails)
}

func TestClearAccountsWipesAllTables(t *testing.T) {
	repo, cleanup := setupRepositoryManager(t)
	defer cleanup()

	ctx := context.Background()

	for _, email := range []string{"ada@example.com", "grace@example.com"} {
		account, err := repo.Accounts().Register(ctx, &auth.Account{
			FullName:     "Member",
			Email:        email,
			PasswordHash: "a-hash",
		})
		require.NoError(t, err)

		_, err = repo.Applications().Create(ctx, &auth.Application{
			ID:        uuid.New(),
			AccountID: account.ID,
			Position:  "Engineer",
			Company:   "Example Co",
		})
		require.NoError(t, err)
	}

	var res *auth.ClearAccountsResponse

	handler := auth.NewClearAccountsHandler(repo).WithLogger(testLogger{})

	err := handler.Execute(ctx, auth.ClearAccountsMessage{
		Actor: auth.ActorRef{ID: "admin", Type: "account"},
		OnResponse: func(resp *auth.ClearAccountsResponse) {
			res = resp
		},
	})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, int64(2), res.AccountsRemoved)
	assert.Equal(t, int64(2), res.ApplicationsRemoved)

	_, total, err := repo.Accounts().List(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)

	// A second wipe finds nothing and says so.
	err = handler.Execute(ctx, auth.ClearAccountsMessage{})
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrNoAccountsToClear)
}
