package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"time"

	"lumina-server/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var MinioClient *minio.Client

func InitMinIO() {
	cfg := config.AppConfig.MinIO
	var err error
	MinioClient, err = minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		Log.Fatalf("minio init failed: %v", err)
	}
}

func contentTypeFor(objectName string) string {
	switch filepath.Ext(objectName) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".mp4":
		return "video/mp4"
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	default:
		return "application/octet-stream"
	}
}

// UploadStream uploads from reader and returns a presigned GET URL.
// size may be -1 when unknown.
func UploadStream(reader io.Reader, objectName string, size int64) (string, error) {
	ctx := context.Background()
	cfg := config.AppConfig.MinIO
	bucketName := cfg.Bucket

	exists, err := MinioClient.BucketExists(ctx, bucketName)
	if err != nil {
		return "", fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := MinioClient.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
			return "", fmt.Errorf("create bucket: %w", err)
		}
	}

	_, err = MinioClient.PutObject(ctx, bucketName, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentTypeFor(objectName),
	})
	if err != nil {
		return "", fmt.Errorf("upload to minio: %w", err)
	}

	expiry := 72 * time.Hour
	reqParams := make(url.Values)
	presignedURL, err := MinioClient.PresignedGetObject(ctx, bucketName, objectName, expiry, reqParams)
	if err != nil {
		return "", fmt.Errorf("presign url: %w", err)
	}

	Log.Infof("uploaded %s", objectName)
	return presignedURL.String(), nil
}

func UploadBytes(data []byte, objectName string) (string, error) {
	return UploadStream(bytes.NewReader(data), objectName, int64(len(data)))
}

// RemoveObject deletes a stored object. Best effort; callers log and move on.
func RemoveObject(objectName string) error {
	return MinioClient.RemoveObject(context.Background(), config.AppConfig.MinIO.Bucket,
		objectName, minio.RemoveObjectOptions{})
}

// MediaStore re-hosts generated media under our own storage. The minio
// implementation downloads/uploads; tests fake it.
type MediaStore interface {
	SaveRemote(ctx context.Context, sourceURL, objectName string) (string, error)
	SaveBytes(data []byte, objectName string) (string, error)
}

type minioMediaStore struct{}

func NewMinioMediaStore() MediaStore {
	return minioMediaStore{}
}

// SaveRemote performs the secondary fetch of a finished generation job and
// re-hosts the bytes under our bucket. A rejected fetch fails the operation.
func (minioMediaStore) SaveRemote(ctx context.Context, sourceURL, objectName string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download status: %d", resp.StatusCode)
	}
	return UploadStream(resp.Body, objectName, resp.ContentLength)
}

func (minioMediaStore) SaveBytes(data []byte, objectName string) (string, error) {
	return UploadBytes(data, objectName)
}
