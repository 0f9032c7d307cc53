package pgdb

import (
	"context"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jimlawless/whereami"
)

type OperatorRepo struct {
	db   tr.Querier
	conv converter.OperatorConverter
}

func NewOperatorRepo(db tr.Querier, conv converter.OperatorConverter) *OperatorRepo {
	return &OperatorRepo{
		db:   db,
		conv: conv,
	}
}

// Upsert регистрирует чат и включает для него уведомления.
func (o *OperatorRepo) Upsert(ctx context.Context, chatID int64) (*domain.Operator, error) {
	rows, err := tr.QuerierFromCtx(ctx, o.db).Query(ctx, `
		INSERT INTO operators (chat_id, notify)
		VALUES ($1, TRUE)
		ON CONFLICT (chat_id) DO UPDATE SET notify = TRUE
		RETURNING chat_id, notify, created_at
	`, chatID)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	model, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[converter.OperatorModel])
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return o.conv.ToEntity(&model), nil
}

func (o *OperatorRepo) SetNotify(ctx context.Context, chatID int64, notify bool) error {
	tag, err := tr.QuerierFromCtx(ctx, o.db).Exec(ctx,
		`UPDATE operators SET notify = $2 WHERE chat_id = $1`, chatID, notify)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if tag.RowsAffected() == 0 {
		return e.ErrOperatorNotFound
	}

	return nil
}

func (o *OperatorRepo) ListNotifiable(ctx context.Context) ([]domain.Operator, error) {
	rows, err := tr.QuerierFromCtx(ctx, o.db).Query(ctx,
		`SELECT chat_id, notify, created_at FROM operators WHERE notify ORDER BY chat_id`)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	models, err := pgx.CollectRows(rows, pgx.RowToStructByName[converter.OperatorModel])
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return o.conv.ToArrEntity(models), nil
}

var _ usecase.OperatorRepository = (*OperatorRepo)(nil)
