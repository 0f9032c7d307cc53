package usecase

import (
	"context"
	"errors"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
)

// OperatorUseCase ведёт реестр чатов операторов, которым уходят уведомления о заказах.
type OperatorUseCase struct {
	operatorRepo OperatorRepository
	logger       logger.Logger
}

func NewOperatorUC(operatorRepo OperatorRepository, logger logger.Logger) *OperatorUseCase {
	return &OperatorUseCase{
		operatorRepo: operatorRepo,
		logger:       logger,
	}
}

// RegisterOperator включает уведомления для чата, создавая запись при необходимости.
func (o *OperatorUseCase) RegisterOperator(ctx context.Context, chatID int64) (*domain.Operator, error) {
	const op = "OperatorUseCase.RegisterOperator"

	if chatID == 0 {
		return nil, e.Wrap(op, e.ErrInvalidChatID)
	}

	operator, err := o.operatorRepo.Upsert(ctx, chatID)
	if err != nil {
		return nil, e.Internal(op, err)
	}

	o.logger.Infof("operator registered: chat_id=%d", chatID)
	return operator, nil
}

// MuteOperator отключает уведомления для чата.
func (o *OperatorUseCase) MuteOperator(ctx context.Context, chatID int64) error {
	const op = "OperatorUseCase.MuteOperator"

	if chatID == 0 {
		return e.Wrap(op, e.ErrInvalidChatID)
	}

	if err := o.operatorRepo.SetNotify(ctx, chatID, false); err != nil {
		if errors.Is(err, e.ErrOperatorNotFound) {
			return e.Wrap(op, err)
		}
		return e.Internal(op, err)
	}

	o.logger.Infof("operator muted: chat_id=%d", chatID)
	return nil
}

func (o *OperatorUseCase) ListNotifiable(ctx context.Context) ([]domain.Operator, error) {
	const op = "OperatorUseCase.ListNotifiable"

	operators, err := o.operatorRepo.ListNotifiable(ctx)
	if err != nil {
		return nil, e.Internal(op, err)
	}

	return operators, nil
}
