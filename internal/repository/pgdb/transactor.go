package pgdb

import (
	"context"

	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/DRSN-tech/storefront/pkg/tr"
	transaction "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5"
)

// Transactor открывает транзакцию PostgreSQL и кладёт её в контекст для репозиториев.
type Transactor struct {
	db     transaction.Transactional
	opts   pgx.TxOptions
	logger logger.Logger
}

// NewTransactor создаёт транзакционный менеджер. Оформление заказа полагается на READ COMMITTED
// вместе с SELECT ... FOR UPDATE и условным списанием остатка.
func NewTransactor(db transaction.Transactional, logger logger.Logger) *Transactor {
	return &Transactor{
		db:     db,
		opts:   pgx.TxOptions{IsoLevel: pgx.ReadCommitted},
		logger: logger,
	}
}

// Do выполняет fn в транзакции. Если транзакция уже есть в контексте, fn выполняется в ней.
func (t *Transactor) Do(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	const op = "Transactor.Do"

	if _, txErr := tr.TxFromCtx(ctx); txErr == nil {
		return fn(ctx)
	}

	ctx, tx, err := transaction.NewTransaction(ctx, t.opts, t.db)
	if err != nil {
		return e.Wrap(op, err)
	}
	// Незакоммиченная транзакция (ошибка или паника в fn) откатывается даже при отменённом контексте
	defer func() {
		if tx.IsActive() {
			if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
				t.logger.Warnf("%s: rollback failed: %v", op, rbErr)
			}
		}
	}()

	pgxTx, ok := tx.Transaction().(pgx.Tx)
	if !ok {
		err = e.Wrap(op, e.ErrTransactionNotFound)
		return err
	}

	if err = fn(tr.WithTx(ctx, pgxTx)); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return e.Wrap(op, err)
	}

	return nil
}
