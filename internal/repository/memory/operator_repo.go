package memory

import (
	"context"
	"sort"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/e"
)

type OperatorRepo struct {
	store *Store
}

func NewOperatorRepo(store *Store) *OperatorRepo {
	return &OperatorRepo{store: store}
}

func (o *OperatorRepo) Upsert(ctx context.Context, chatID int64) (*domain.Operator, error) {
	var operator domain.Operator
	err := o.store.run(ctx, func() error {
		existing, ok := o.store.operators[chatID]
		if !ok {
			existing = domain.Operator{ChatID: chatID, CreatedAt: o.store.now()}
		}
		existing.Notify = true
		o.store.operators[chatID] = existing
		operator = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &operator, nil
}

func (o *OperatorRepo) SetNotify(ctx context.Context, chatID int64, notify bool) error {
	return o.store.run(ctx, func() error {
		operator, ok := o.store.operators[chatID]
		if !ok {
			return e.ErrOperatorNotFound
		}
		operator.Notify = notify
		o.store.operators[chatID] = operator
		return nil
	})
}

func (o *OperatorRepo) ListNotifiable(ctx context.Context) ([]domain.Operator, error) {
	var result []domain.Operator
	err := o.store.run(ctx, func() error {
		for _, operator := range o.store.operators {
			if operator.Notify {
				result = append(result, operator)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(result, func(i, j int) bool { return result[i].ChatID < result[j].ChatID })
	return result, nil
}

var _ usecase.OperatorRepository = (*OperatorRepo)(nil)
