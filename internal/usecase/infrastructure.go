package usecase

import (
	"context"
	"time"

	"github.com/DRSN-tech/storefront/internal/domain"
)

type ImagesInfra interface {
	UploadImage(ctx context.Context, req *UploadImageReq) (string, error)
	OpenImage(ctx context.Context, key string) (*domain.ImageObject, error)
	CleanupImages(keys []string)
}

// OrderNotifier принимает событие после коммита и доставляет его в фоне. Не блокирует и не возвращает ошибок.
type OrderNotifier interface {
	NotifyOrderPlaced(event *domain.OrderPlaced)
}

type CheckoutRecorder interface {
	ObserveCheckout(outcome string, elapsed time.Duration)
}
