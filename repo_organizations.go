package auth

import (
	"context"
	"strings"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Organizations interface {
	repository.Repository[*Organization]

	GetByWorkEmail(ctx context.Context, email string) (*Organization, error)
	GetByWorkEmailTx(ctx context.Context, tx bun.IDB, email string) (*Organization, error)
}

type organizations struct {
	repository.Repository[*Organization]
	db *bun.DB
}

var _ Organizations = (*organizations)(nil)

func NewOrganizationsRepository(db *bun.DB) Organizations {
	repo := repository.NewRepository[*Organization](db, repository.ModelHandlers[*Organization]{
		NewRecord: func() *Organization { return &Organization{} },
		GetID: func(o *Organization) uuid.UUID {
			if o == nil {
				return uuid.Nil
			}
			return o.ID
		},
		SetID: func(o *Organization, id uuid.UUID) {
			if o != nil {
				o.ID = id
			}
		},
		GetIdentifier: func() string {
			return "work_email"
		},
	})

	return &organizations{
		Repository: repo,
		db:         db,
	}
}

func (o *organizations) GetByWorkEmail(ctx context.Context, email string) (*Organization, error) {
	return o.GetByWorkEmailTx(ctx, o.db, email)
}

func (o *organizations) GetByWorkEmailTx(ctx context.Context, tx bun.IDB, email string) (*Organization, error) {
	record := &Organization{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.work_email = ?", strings.TrimSpace(email)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"work_email": email,
				})
		}
		return nil, err
	}

	return record, nil
}
