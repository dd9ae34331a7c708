package service

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"qdrt_backend/internal/config"
	"qdrt_backend/internal/util"
	"qdrt_backend/pkg/logger"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// ArtifactStore keeps published export files.
type ArtifactStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	URL(key string) string
}

// LocalArtifactStore writes artifacts under the configured local path.
type LocalArtifactStore struct {
	Root string
}

func (p *LocalArtifactStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	dst := filepath.Join(p.Root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", err
	}
	if err := os.WriteFile(dst, data, 0644); err != nil {
		return "", err
	}
	return p.URL(key), nil
}

func (p *LocalArtifactStore) URL(key string) string {
	return "/uploads/" + key
}

type MinioArtifactStore struct {
	Bucket string
	Client *minio.Client
}

func NewMinioArtifactStore(cfg *config.StorageConfig) (*MinioArtifactStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, err
	}
	return &MinioArtifactStore{Bucket: cfg.MinioBucket, Client: client}, nil
}

func (p *MinioArtifactStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := p.Client.PutObject(ctx, p.Bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return p.URL(key), nil
}

func (p *MinioArtifactStore) URL(key string) string {
	return "/" + p.Bucket + "/" + key
}

type OSSArtifactStore struct {
	Endpoint string
	Bucket   string
	Client   *oss.Client
}

func NewOSSArtifactStore(cfg *config.StorageConfig) (*OSSArtifactStore, error) {
	client, err := oss.New(cfg.OSSEndpoint, cfg.OSSAccessKey, cfg.OSSSecretKey)
	if err != nil {
		return nil, err
	}
	return &OSSArtifactStore{Endpoint: cfg.OSSEndpoint, Bucket: cfg.OSSBucket, Client: client}, nil
}

func (p *OSSArtifactStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	bucket, err := p.Client.Bucket(p.Bucket)
	if err != nil {
		return "", err
	}
	if err := bucket.PutObject(key, bytes.NewReader(data), oss.ContentType(contentType), oss.WithContext(ctx)); err != nil {
		return "", err
	}
	return p.URL(key), nil
}

func (p *OSSArtifactStore) URL(key string) string {
	return fmt.Sprintf("https://%s.%s/%s", p.Bucket, p.Endpoint, key)
}

// StorageService publishes export artifacts to the configured backend.
// A backend that fails to initialize falls back to local disk.
type StorageService struct {
	Store ArtifactStore
}

func NewStorageService(cfg *config.Config) *StorageService {
	var store ArtifactStore
	switch cfg.Storage.Type {
	case util.StorageMinio:
		p, err := NewMinioArtifactStore(&cfg.Storage)
		if err != nil {
			logger.Log.Warn("MinIO unavailable, publishing exports to local disk", zap.Error(err))
		} else {
			store = p
		}
	case util.StorageOSS:
		p, err := NewOSSArtifactStore(&cfg.Storage)
		if err != nil {
			logger.Log.Warn("OSS unavailable, publishing exports to local disk", zap.Error(err))
		} else {
			store = p
		}
	}

	if store == nil {
		store = &LocalArtifactStore{Root: cfg.Storage.LocalPath}
	}

	return &StorageService{Store: store}
}

// Publish stores data under exports/<dir>/<filename> and returns where it can be fetched.
func (s *StorageService) Publish(ctx context.Context, dir, filename string, data []byte, contentType string) (string, string, error) {
	key := path.Join("exports", dir, filename)
	url, err := s.Store.Put(ctx, key, data, contentType)
	if err != nil {
		return "", "", err
	}
	return key, url, nil
}
