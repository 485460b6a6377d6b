package media

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOConfig holds MinIO connection configuration.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	// PublicURL is the base the bucket is served from, e.g.
	// https://media.example.com. Defaults to the endpoint.
	PublicURL string
}

// publicReadPolicy lets anonymous clients GET objects under uploads/.
const publicReadPolicy = `{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/uploads/*"]}]}`

// MinIOUploader stores images in a MinIO (S3) bucket readable by everyone.
type MinIOUploader struct {
	client *minio.Client
	bucket string
	public string
}

// NewMinIOUploader connects and ensures the bucket exists and is publicly
// readable.
func NewMinIOUploader(ctx context.Context, cfg MinIOConfig) (*MinIOUploader, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio config missing")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio new: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mc.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
		exist, xerr := mc.BucketExists(ctx, cfg.Bucket)
		if xerr != nil || !exist {
			return nil, fmt.Errorf("minio bucket ensure: %w", err)
		}
	}
	if err := mc.SetBucketPolicy(ctx, cfg.Bucket, fmt.Sprintf(publicReadPolicy, cfg.Bucket)); err != nil {
		return nil, fmt.Errorf("minio bucket policy: %w", err)
	}
	return &MinIOUploader{client: mc, bucket: cfg.Bucket, public: publicBase(cfg)}, nil
}

func publicBase(cfg MinIOConfig) string {
	if cfg.PublicURL != "" {
		return strings.TrimRight(cfg.PublicURL, "/")
	}
	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	return scheme + "://" + cfg.Endpoint
}

// ObjectKey names an upload: a random id plus the original extension.
func ObjectKey(filename string) string {
	return "uploads/" + uuid.NewString() + strings.ToLower(path.Ext(filename))
}

func (s *MinIOUploader) Upload(ctx context.Context, filename, contentType string, r io.Reader, size int64) (string, error) {
	key := ObjectKey(filename)
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", &UploadError{Err: err}
	}
	return s.public + "/" + s.bucket + "/" + key, nil
}
