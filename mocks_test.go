package auth_test

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/talentdesk/go-auth"
	"github.com/uptrace/bun"

	repository "github.com/goliatone/go-repository-bun"
)

func accountResult(args mock.Arguments) (*auth.Account, error) {
	var record *auth.Account
	if v := args.Get(0); v != nil {
		record = v.(*auth.Account)
	}
	return record, args.Error(1)
}

// MockAccounts mocks the account repository. Only the methods exercised by
// the handlers are wired, the embedded interface satisfies the rest.
type MockAccounts struct {
	mock.Mock
	auth.Accounts
}

func (m *MockAccounts) GetByEmail(ctx context.Context, email string) (*auth.Account, error) {
	args := m.Called(ctx, email)
	return accountResult(args)
}

func (m *MockAccounts) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*auth.Account, error) {
	args := m.Called(ctx, tx, email)
	return accountResult(args)
}

func (m *MockAccounts) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*auth.Account, error) {
	args := m.Called(ctx, id)
	return accountResult(args)
}

func (m *MockAccounts) CreateTx(ctx context.Context, tx bun.IDB, record *auth.Account, criteria ...repository.InsertCriteria) (*auth.Account, error) {
	args := m.Called(ctx, tx, record)
	return accountResult(args)
}

func (m *MockAccounts) UpdateTx(ctx context.Context, tx bun.IDB, record *auth.Account, criteria ...repository.UpdateCriteria) (*auth.Account, error) {
	args := m.Called(ctx, tx, record)
	return accountResult(args)
}

func (m *MockAccounts) MarkVerifiedTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

func (m *MockAccounts) SetOTPTx(ctx context.Context, tx bun.IDB, id uuid.UUID, code string, at time.Time) error {
	args := m.Called(ctx, tx, id, code, at)
	return args.Error(0)
}

func (m *MockAccounts) StoreRefreshTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token string) error {
	args := m.Called(ctx, tx, id, token)
	return args.Error(0)
}

func (m *MockAccounts) ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, tx, id, passwordHash)
	return args.Error(0)
}

func (m *MockAccounts) List(ctx context.Context, criteria ...repository.SelectCriteria) ([]*auth.Account, int, error) {
	args := m.Called(ctx)
	var records []*auth.Account
	if v := args.Get(0); v != nil {
		records = v.([]*auth.Account)
	}
	return records, args.Int(1), args.Error(2)
}

func (m *MockAccounts) ClearAllTx(ctx context.Context, tx bun.IDB) (int64, error) {
	args := m.Called(ctx, tx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAccounts) UpdateStatus(ctx context.Context, id uuid.UUID, status auth.AccountStatus, opts ...auth.StatusUpdateOption) (*auth.Account, error) {
	args := m.Called(ctx, id, status, opts)
	return accountResult(args)
}

// MockOrganizations mocks the organization repository.
type MockOrganizations struct {
	mock.Mock
	auth.Organizations
}

func (m *MockOrganizations) GetByWorkEmail(ctx context.Context, email string) (*auth.Organization, error) {
	args := m.Called(ctx, email)
	if v := args.Get(0); v != nil {
		return v.(*auth.Organization), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrganizations) GetByWorkEmailTx(ctx context.Context, tx bun.IDB, email string) (*auth.Organization, error) {
	args := m.Called(ctx, tx, email)
	if v := args.Get(0); v != nil {
		return v.(*auth.Organization), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockApplications mocks the application repository.
type MockApplications struct {
	mock.Mock
	auth.Applications
}

func (m *MockApplications) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*auth.Application, error) {
	args := m.Called(ctx, accountID)
	if v := args.Get(0); v != nil {
		return v.([]*auth.Application), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockApplications) DeleteByAccountTx(ctx context.Context, tx bun.IDB, accountID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockApplications) ClearAllTx(ctx context.Context, tx bun.IDB) (int64, error) {
	args := m.Called(ctx, tx)
	return args.Get(0).(int64), args.Error(1)
}

// MockRepositoryManager implements auth.RepositoryManager. RunInTx runs the
// callback with a zero transaction, mocked repositories never touch it.
type MockRepositoryManager struct {
	mock.Mock
}

func (m *MockRepositoryManager) Validate() error { return nil }

func (m *MockRepositoryManager) MustValidate() {}

func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	var tx bun.Tx
	return f(ctx, tx)
}

func (m *MockRepositoryManager) Accounts() auth.Accounts {
	args := m.Called()
	return args.Get(0).(auth.Accounts)
}

func (m *MockRepositoryManager) Organizations() auth.Organizations {
	args := m.Called()
	return args.Get(0).(auth.Organizations)
}

func (m *MockRepositoryManager) Applications() auth.Applications {
	args := m.Called()
	return args.Get(0).(auth.Applications)
}

// MockNotifier implements auth.Notifier.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Send(ctx context.Context, to, subject, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}

// MockActivitySink implements auth.ActivitySink.
type MockActivitySink struct {
	mock.Mock
}

func (m *MockActivitySink) Record(ctx context.Context, event auth.ActivityEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// stubOTP returns a fixed code.
type stubOTP struct {
	code string
	err  error
}

func (s stubOTP) Generate() (string, error) {
	return s.code, s.err
}
