package auth

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Applications interface {
	repository.Repository[*Application]

	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*Application, error)
	DeleteByAccount(ctx context.Context, accountID uuid.UUID) (int64, error)
	DeleteByAccountTx(ctx context.Context, tx bun.IDB, accountID uuid.UUID) (int64, error)
	ClearAll(ctx context.Context) (int64, error)
	ClearAllTx(ctx context.Context, tx bun.IDB) (int64, error)
}

type applications struct {
	repository.Repository[*Application]
	db *bun.DB
}

var _ Applications = (*applications)(nil)

func NewApplicationsRepository(db *bun.DB) Applications {
	repo := repository.NewRepository[*Application](db, repository.ModelHandlers[*Application]{
		NewRecord: func() *Application { return &Application{} },
		GetID: func(a *Application) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Application, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
	})

	return &applications{
		Repository: repo,
		db:         db,
	}
}

func (a *applications) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*Application, error) {
	var records []*Application
	err := a.db.NewSelect().
		Model(&records).
		Where("?TableAlias.account_id = ?", accountID).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (a *applications) DeleteByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	return a.DeleteByAccountTx(ctx, a.db, accountID)
}

// DeleteByAccountTx removes every application owned by the account. Runs
// inside the account-deletion transaction so an account can never be
// removed while its applications survive.
func (a *applications) DeleteByAccountTx(ctx context.Context, tx bun.IDB, accountID uuid.UUID) (int64, error) {
	res, err := tx.NewDelete().
		Model((*Application)(nil)).
		Where("account_id = ?", accountID).
		Exec(ctx)
	if err != nil {
		return 0, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (a *applications) ClearAll(ctx context.Context) (int64, error) {
	return a.ClearAllTx(ctx, a.db)
}

// ClearAllTx removes every application row. Runs inside the account wipe
// transaction so orphaned applications never outlive their owners.
func (a *applications) ClearAllTx(ctx context.Context, tx bun.IDB) (int64, error) {
	res, err := tx.NewDelete().
		Model((*Application)(nil)).
		Where("1 = 1").
		Exec(ctx)
	if err != nil {
		return 0, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}
