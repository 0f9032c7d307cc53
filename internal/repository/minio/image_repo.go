package minio

import (
	"bytes"
	"context"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/minio/minio-go/v7"
)

const noSuchKey = "NoSuchKey"

// ImageRepo реализует репозиторий изображений поверх MinIO.
type ImageRepo struct {
	mc     *minio.Client
	bucket string
}

func NewImageRepo(mc *minio.Client, bucket string) *ImageRepo {
	return &ImageRepo{
		mc:     mc,
		bucket: bucket,
	}
}

// Upload загружает изображение в MinIO и возвращает ключ объекта.
func (i *ImageRepo) Upload(ctx context.Context, image *domain.Image, data []byte) (string, error) {
	info, err := i.mc.PutObject(ctx, i.bucket, image.ObjectKey, bytes.NewReader(data), image.Size, minio.PutObjectOptions{
		ContentType:  image.ContentType,
		UserMetadata: map[string]string{"image-id": image.ID},
	})
	if err != nil {
		return "", e.Wrap(whereami.WhereAmI(), err)
	}

	return info.Key, nil
}

// Get открывает объект на чтение. Для отсутствующего ключа возвращает e.ErrImageNotFound.
func (i *ImageRepo) Get(ctx context.Context, key string) (*domain.ImageObject, error) {
	obj, err := i.mc.GetObject(ctx, i.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, i.mapErr(err)
	}

	// GetObject ленивый: реальный запрос уходит на Stat
	stat, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, i.mapErr(err)
	}

	return &domain.ImageObject{
		Body:        obj,
		Size:        stat.Size,
		ContentType: stat.ContentType,
		ETag:        stat.ETag,
	}, nil
}

// Delete удаляет объект из MinIO по указанному ключу.
func (i *ImageRepo) Delete(ctx context.Context, key string) error {
	if err := i.mc.RemoveObject(ctx, i.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (i *ImageRepo) mapErr(err error) error {
	if minio.ToErrorResponse(err).Code == noSuchKey {
		return e.ErrImageNotFound
	}

	return e.Wrap(whereami.WhereAmI(), err)
}

var _ usecase.ImageRepository = (*ImageRepo)(nil)
