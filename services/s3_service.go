package services

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"venturelink_server/apperrors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ObjectStorage materializes attachment bytes into a public URL before a
// message is persisted. A failed upload aborts the enclosing send.
type ObjectStorage interface {
	Store(ctx context.Context, data []byte, filename, mimeType, folder string) (string, error)
}

// S3Storage stores attachments in S3 under folder-scoped keys.
type S3Storage struct {
	Client *s3.Client
	Bucket string
	Region string
	Log    *zap.Logger
}

// InitializeS3Client initializes the S3 client from the ambient AWS
// configuration.
func InitializeS3Client() *s3.Client {
	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(), awsconfig.WithRegion(os.Getenv("AWS_REGION")))
	if err != nil {
		panic(fmt.Sprintf("failed to load AWS config: %v", err))
	}
	return s3.NewFromConfig(cfg)
}

func (s *S3Storage) Store(ctx context.Context, data []byte, filename, mimeType, folder string) (string, error) {
	key := folder + "/" + time.Now().UTC().Format("20060102150405") + "-" + uuid.NewString() + "-" + filename

	_, err := s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(mimeType),
	})
	if err != nil {
		s.Log.Error("attachment upload failed", zap.String("key", key), zap.Error(err))
		return "", apperrors.Upstream("failed to store attachment", err)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.Bucket, s.Region, key), nil
}
