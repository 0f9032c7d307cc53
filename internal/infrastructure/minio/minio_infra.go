package minio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/DRSN-tech/storefront/internal/cfg"
	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/internal/infrastructure"
	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/jitter"
	"github.com/DRSN-tech/storefront/pkg/logger"

	"github.com/google/uuid"
)

const (
	cleanupTimeout  = 30 * time.Second
	cleanupAttempts = 3
	cleanupBackoff  = time.Second
	cleanupMaxWait  = 4 * time.Second
)

// MinioInfrastructure управляет загрузкой, чтением и очисткой изображений товаров.
type MinioInfrastructure struct {
	minioRepo    usecase.ImageRepository
	bucket       string
	maxImageSize int64
	logger       logger.Logger
	shutdownCtx  context.Context
	wg           sync.WaitGroup

	// backoff вычисляет паузу между попытками удаления; подменяется в тестах
	backoff func(attempt int) time.Duration
}

func NewMinioInfrastructure(minioRepo usecase.ImageRepository, cfg *cfg.MinIOCfg, logger logger.Logger, shutdownCtx context.Context) *MinioInfrastructure {
	return &MinioInfrastructure{
		minioRepo:    minioRepo,
		bucket:       cfg.BucketName,
		maxImageSize: cfg.MaxImageSize,
		logger:       logger,
		shutdownCtx:  shutdownCtx,
		backoff: func(attempt int) time.Duration {
			return jitter.ExponentialBackoff(cleanupBackoff, cleanupMaxWait, attempt, jitter.DefaultJitter)
		},
	}
}

// UploadImage сохраняет изображение под плоским ключом вида "<prefix>-<uuid>.<ext>" и возвращает ключ.
func (m *MinioInfrastructure) UploadImage(ctx context.Context, req *usecase.UploadImageReq) (string, error) {
	const op = "MinioInfrastructure.UploadImage"

	image := req.Image
	if len(image.Data) == 0 {
		return "", e.Wrap(op, e.ErrNoImages)
	}
	if m.maxImageSize > 0 && int64(len(image.Data)) > m.maxImageSize {
		return "", e.Wrap(op, e.ErrFileTooLarge)
	}

	ext, err := infrastructure.GetExtensionFromMIME(image.MimeType)
	if err != nil {
		return "", e.Wrap(op, fmt.Errorf("mime type %q of %q: %w", image.MimeType, image.Name, err))
	}

	imageID := uuid.NewString()
	objKey := fmt.Sprintf("%s-%s.%s", req.Prefix, imageID, ext)
	newImage := domain.NewImage(imageID, m.bucket, objKey, int64(len(image.Data)), image.MimeType)

	key, err := m.minioRepo.Upload(ctx, newImage, image.Data)
	if err != nil {
		return "", e.Wrap(op, fmt.Errorf("upload %s failed: %w", image.Name, err))
	}

	return key, nil
}

// OpenImage открывает изображение на чтение. Вызывающий закрывает Body.
func (m *MinioInfrastructure) OpenImage(ctx context.Context, key string) (*domain.ImageObject, error) {
	const op = "MinioInfrastructure.OpenImage"

	obj, err := m.minioRepo.Get(ctx, key)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return obj, nil
}

// CleanupImages запускает фоновую очистку указанных ключей MinIO
func (m *MinioInfrastructure) CleanupImages(keys []string) {
	if len(keys) == 0 {
		return
	}
	m.wg.Add(1)
	go m.cleanupKeys(keys)
}

// cleanupKeys удаляет объекты с экспоненциальной задержкой и jitter между попытками.
func (m *MinioInfrastructure) cleanupKeys(keys []string) {
	defer m.wg.Done()
	const op = "MinioInfrastructure.cleanupKeys"

	ctx, cancel := context.WithTimeout(m.shutdownCtx, cleanupTimeout)
	defer cancel()

	for _, key := range keys {
		for attempt := 0; attempt < cleanupAttempts; attempt++ {
			err := m.minioRepo.Delete(ctx, key)
			if err == nil {
				m.logger.Debugf("%s: removed key=%s", op, key)
				break
			}

			if ctx.Err() != nil {
				m.logger.Warnf("%s: cleanup interrupted by shutdown, key=%s", op, key)
				return
			}

			if attempt == cleanupAttempts-1 {
				m.logger.Errorf(err, "%s: giving up on key=%s", op, key)
				break
			}

			select {
			case <-time.After(m.backoff(attempt)):
			case <-ctx.Done():
				m.logger.Warnf("%s: cleanup interrupted by shutdown during backoff, key=%s", op, key)
				return
			}
		}
	}
}

// WaitForCleanup ожидает завершения всех фоновых задач очистки с учётом таймаута завершения приложения.
func (m *MinioInfrastructure) WaitForCleanup(shutdownTimeoutCtx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-shutdownTimeoutCtx.Done():
		return fmt.Errorf("minio cleanup timeout during shutdown: %w", shutdownTimeoutCtx.Err())
	}
}

var _ usecase.ImagesInfra = (*MinioInfrastructure)(nil)
