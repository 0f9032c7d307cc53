package domain

import "io"

// Image описывает изображение товара, которое хранится в S3
type Image struct {
	ID          string // uuid
	Bucket      string
	ObjectKey   string
	Size        int64
	ContentType string // Example: "image/png"
}

func NewImage(id string, bucket string, objectKey string, size int64, contentType string) *Image {
	return &Image{
		ID:          id,
		Bucket:      bucket,
		ObjectKey:   objectKey,
		Size:        size,
		ContentType: contentType,
	}
}

// ImageObject — открытый на чтение объект хранилища. Вызывающий обязан закрыть Body.
type ImageObject struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
	ETag        string
}
