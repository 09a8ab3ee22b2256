package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"ats-evaluator/internal/config"
	"ats-evaluator/internal/logger"
	"ats-evaluator/internal/tracing"
	"ats-evaluator/internal/types"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
)

// ObjectStorage 对象存储接口
type ObjectStorage interface {
	// UploadFile 上传文件到默认存储桶
	UploadFile(ctx context.Context, objectName string, reader io.Reader, fileSize int64, contentType string) (string, error)

	// DownloadFile 下载文件
	DownloadFile(ctx context.Context, objectName string) ([]byte, error)

	// FetchDocuments 按对象key批量下载待评估的简历
	FetchDocuments(ctx context.Context, objectKeys []string) ([]types.Document, error)
}

// 确保MinIO实现了ObjectStorage接口
var _ ObjectStorage = (*MinIO)(nil)

// MinIO 提供对象存储功能
type MinIO struct {
	client *minio.Client
	bucket string
	logger *zerolog.Logger
}

// NewMinIO 创建MinIO客户端并确保存储桶存在
func NewMinIO(ctx context.Context, cfg *config.MinIOConfig, l *zerolog.Logger) (*MinIO, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MinIO配置不能为空")
	}
	if l == nil {
		l = &logger.Logger
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("创建MinIO客户端失败: %w", err)
	}

	m := &MinIO{client: client, bucket: cfg.Bucket, logger: l}
	if err := m.ensureBucketExists(ctx); err != nil {
		return nil, err
	}
	l.Info().Str("endpoint", cfg.Endpoint).Str("bucket", cfg.Bucket).Msg("MinIO客户端初始化成功")
	return m, nil
}

// ensureBucketExists 确保存储桶存在
func (m *MinIO) ensureBucketExists(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("检查存储桶 %s 是否存在时出错: %w", m.bucket, err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("创建存储桶 %s 失败: %w", m.bucket, err)
	}
	m.logger.Info().Str("bucket", m.bucket).Msg("已创建存储桶")
	return nil
}

// UploadFile 上传对象，返回对象key
func (m *MinIO) UploadFile(ctx context.Context, objectName string, reader io.Reader, fileSize int64, contentType string) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "MinIO.UploadFile",
		attribute.String("storage.bucket", m.bucket),
		attribute.String("storage.object", objectName))
	defer span.End()

	info, err := m.client.PutObject(ctx, m.bucket, objectName, reader, fileSize, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeStorage)
		return "", fmt.Errorf("上传对象 %s/%s 失败: %w", m.bucket, objectName, err)
	}
	m.logger.Debug().Str("object", objectName).Int64("size", info.Size).Msg("对象上传成功")
	return objectName, nil
}

// DownloadFile 下载对象的全部内容
func (m *MinIO) DownloadFile(ctx context.Context, objectName string) ([]byte, error) {
	ctx, span := tracing.StartSpan(ctx, "MinIO.DownloadFile",
		attribute.String("storage.bucket", m.bucket),
		attribute.String("storage.object", objectName))
	defer span.End()

	obj, err := m.client.GetObject(ctx, m.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeStorage)
		return nil, fmt.Errorf("获取对象 %s/%s 失败: %w", m.bucket, objectName, err)
	}
	defer obj.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, obj); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeStorage)
		return nil, fmt.Errorf("读取对象 %s/%s 数据失败: %w", m.bucket, objectName, err)
	}
	span.SetAttributes(attribute.Int("storage.size", buf.Len()))
	return buf.Bytes(), nil
}

// FetchDocuments 文档名取对象key的最后一段，任一对象下载失败则整体失败
func (m *MinIO) FetchDocuments(ctx context.Context, objectKeys []string) ([]types.Document, error) {
	docs := make([]types.Document, 0, len(objectKeys))
	for _, key := range objectKeys {
		data, err := m.DownloadFile(ctx, key)
		if err != nil {
			return nil, err
		}
		docs = append(docs, types.Document{Name: path.Base(key), Data: data})
	}
	return docs, nil
}
