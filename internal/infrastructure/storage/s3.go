package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/imagekit/internal/config"
	"github.com/yokitheyo/imagekit/internal/domain"
)

// S3Disk stores objects in an S3-compatible bucket. Root, when set, is used
// as a key prefix.
type S3Disk struct {
	name    string
	client  *minio.Client
	bucket  string
	prefix  string
	baseURL string
}

func NewS3Disk(cfg config.DiskConfig) (*S3Disk, error) {
	if cfg.S3Endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	if cfg.S3AccessKey == "" || cfg.S3SecretKey == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}

	creds := credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, "")
	client, err := minio.New(cfg.S3Endpoint, &minio.Options{
		Creds:  creds,
		Secure: cfg.S3UseSSL,
		Region: cfg.S3Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize s3 client: %w", err)
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.S3Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check s3 bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.S3Bucket, minio.MakeBucketOptions{Region: cfg.S3Region}); err != nil {
			zlog.Logger.Warn().Err(err).Str("bucket", cfg.S3Bucket).Msg("unable to create bucket, ensure it exists and credentials are correct")
		} else {
			zlog.Logger.Info().Str("bucket", cfg.S3Bucket).Msg("created s3 bucket")
		}
	}

	baseURL := strings.TrimRight(cfg.URL, "/")
	if baseURL == "" {
		scheme := "http"
		if cfg.S3UseSSL {
			scheme = "https"
		}
		baseURL = fmt.Sprintf("%s://%s/%s", scheme, cfg.S3Endpoint, cfg.S3Bucket)
	}

	return &S3Disk{
		name:    cfg.Name,
		client:  client,
		bucket:  cfg.S3Bucket,
		prefix:  strings.Trim(cfg.Root, "/"),
		baseURL: baseURL,
	}, nil
}

func (d *S3Disk) Name() string { return d.name }

func (d *S3Disk) key(p string) string {
	p = strings.TrimLeft(p, "/")
	if d.prefix == "" {
		return p
	}
	return path.Join(d.prefix, p)
}

func isNoSuchKey(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound
}

func (d *S3Disk) Put(ctx context.Context, p string, data []byte) error {
	objectName := d.key(p)
	_, err := d.client.PutObject(ctx, d.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: domain.MimeTypeFor(path.Ext(p)),
	})
	if err != nil {
		zlog.Logger.Error().Err(err).Str("object", objectName).Msg("failed to put object to s3")
		return fmt.Errorf("put object %s: %w", objectName, err)
	}
	zlog.Logger.Debug().Str("disk", d.name).Str("path", objectName).Msg("object saved to s3")
	return nil
}

func (d *S3Disk) Get(ctx context.Context, p string) ([]byte, error) {
	objectName := d.key(p)
	obj, err := d.client.GetObject(ctx, d.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		zlog.Logger.Error().Err(err).Str("object", objectName).Msg("failed to get object")
		return nil, fmt.Errorf("get object %s: %w", objectName, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if isNoSuchKey(err) {
			return nil, domain.NotFound("object %s on disk %s", objectName, d.name)
		}
		return nil, fmt.Errorf("read object %s: %w", objectName, err)
	}
	return data, nil
}

func (d *S3Disk) Exists(ctx context.Context, p string) bool {
	_, err := d.client.StatObject(ctx, d.bucket, d.key(p), minio.StatObjectOptions{})
	if err != nil && !isNoSuchKey(err) {
		zlog.Logger.Warn().Err(err).Str("object", d.key(p)).Msg("stat object failed")
	}
	return err == nil
}

func (d *S3Disk) Delete(ctx context.Context, p string) error {
	if !d.Exists(ctx, p) {
		return domain.NotFound("object %s on disk %s", d.key(p), d.name)
	}
	objectName := d.key(p)
	if err := d.client.RemoveObject(ctx, d.bucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		zlog.Logger.Error().Err(err).Str("path", objectName).Msg("failed to delete object from s3")
		return fmt.Errorf("remove object %s: %w", objectName, err)
	}
	zlog.Logger.Debug().Str("disk", d.name).Str("path", objectName).Msg("object deleted from s3")
	return nil
}

func (d *S3Disk) Size(ctx context.Context, p string) (int64, error) {
	info, err := d.client.StatObject(ctx, d.bucket, d.key(p), minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return 0, domain.NotFound("object %s on disk %s", d.key(p), d.name)
		}
		return 0, fmt.Errorf("stat object %s: %w", d.key(p), err)
	}
	return info.Size, nil
}

func (d *S3Disk) URL(p string) string {
	return d.baseURL + "/" + d.key(p)
}

func (d *S3Disk) AbsolutePath(p string) (string, error) {
	return "", domain.Unsupported("disk %s is not backed by a filesystem", d.name)
}

func (d *S3Disk) TemporaryURL(ctx context.Context, p string, expiry time.Duration, params url.Values) (string, error) {
	u, err := d.client.PresignedGetObject(ctx, d.bucket, d.key(p), expiry, params)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("object", d.key(p)).Msg("failed to presign object url")
		return "", fmt.Errorf("presign object %s: %w", d.key(p), err)
	}
	return u.String(), nil
}
