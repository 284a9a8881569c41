// Пакет assetstore — клиент S3-совместимого объектного хранилища
// для изображений результатов (MinIO, S3).
// Операции: Put (загрузка объекта с постоянной публичной ссылкой),
// Delete (удаление объекта), проверка готовности bucket.
package assetstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Options — параметры создания клиента хранилища.
type Options struct {
	// Endpoint S3-совместимого хранилища (например, http://minio:9000)
	Endpoint string
	// Регион (для MinIO значение формальное)
	Region string
	// Имя bucket
	Bucket string
	// Access key
	AccessKey string
	// Secret key
	SecretKey string
	// Базовый публичный URL для построения постоянных ссылок
	PublicURL string
}

// Client — клиент объектного хранилища.
type Client struct {
	s3client  *s3.Client
	bucket    string
	publicURL string
	logger    *slog.Logger
}

// New создаёт клиент объектного хранилища.
// Используются статические учётные данные и кастомный endpoint
// (path-style адресация — требование MinIO).
func New(ctx context.Context, opts Options, logger *slog.Logger) (*Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(opts.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.AccessKey,
			opts.SecretKey,
			"", // session token не используется
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка конфигурации S3-клиента: %w", err)
	}

	s3client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(opts.Endpoint)
		o.UsePathStyle = true
	})

	return &Client{
		s3client:  s3client,
		bucket:    opts.Bucket,
		publicURL: strings.TrimRight(opts.PublicURL, "/"),
		logger:    logger.With(slog.String("component", "asset_store")),
	}, nil
}

// Put загружает объект в bucket и возвращает постоянную публичную ссылку.
func (c *Client) Put(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	_, err := c.s3client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("ошибка загрузки объекта %s: %w", key, err)
	}

	url := c.ObjectURL(key)
	c.logger.Debug("Объект загружен",
		slog.String("key", key),
		slog.String("url", url),
	)
	return url, nil
}

// Delete удаляет объект из bucket.
func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := c.s3client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("ошибка удаления объекта %s: %w", key, err)
	}

	c.logger.Debug("Объект удалён", slog.String("key", key))
	return nil
}

// ObjectURL возвращает постоянную публичную ссылку на объект.
func (c *Client) ObjectURL(key string) string {
	return c.publicURL + "/" + key
}

// ReadinessChecker — проверка готовности хранилища для health endpoint.
// Реализует интерфейс handlers.ReadinessChecker.
type ReadinessChecker struct {
	client *Client
}

// NewReadinessChecker создаёт проверку готовности объектного хранилища.
func NewReadinessChecker(client *Client) *ReadinessChecker {
	return &ReadinessChecker{client: client}
}

// CheckReady проверяет доступность bucket через HeadBucket.
// Возвращает статус ("ok", "fail") и сообщение.
func (c *ReadinessChecker) CheckReady() (status string, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, err := c.client.s3client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(c.client.bucket),
	})
	if err != nil {
		return "fail", fmt.Sprintf("объектное хранилище недоступно: %v", err)
	}
	return "ok", "bucket доступен"
}
