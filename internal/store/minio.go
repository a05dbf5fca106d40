package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const markdownContentType = "text/markdown; charset=utf-8"

// ExportInfo describes one stored journal export.
type ExportInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// MinioStore keeps Markdown journal exports in a MinIO bucket, one prefix per user.
type MinioStore struct {
	client *minio.Client
	bucket string
}

func NewMinioStore(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio make bucket: %w", err)
		}
	}

	return &MinioStore{client: client, bucket: bucket}, nil
}

// ExportKey is the object key for a user's export taken on day.
func ExportKey(userID string, day time.Time) string {
	return path.Join(userID, "journal-"+day.Format("20060102")+".md")
}

// PutExport stores a Markdown export, replacing any export from the same day.
func (s *MinioStore) PutExport(ctx context.Context, userID string, day time.Time, markdown []byte) (string, error) {
	key := ExportKey(userID, day)
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(markdown), int64(len(markdown)), minio.PutObjectOptions{
		ContentType: markdownContentType,
	})
	if err != nil {
		return "", fmt.Errorf("minio put %s: %w", key, err)
	}
	return key, nil
}

// GetExport reads back an export. Keys outside the user's prefix are refused.
func (s *MinioStore) GetExport(ctx context.Context, userID, key string) ([]byte, error) {
	if !strings.HasPrefix(key, userID+"/") {
		return nil, fmt.Errorf("export %q does not belong to %s", key, userID)
	}
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	return io.ReadAll(obj)
}

// ListExports returns the user's exports, newest first.
func (s *MinioStore) ListExports(ctx context.Context, userID string) ([]ExportInfo, error) {
	var out []ExportInfo
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: userID + "/"}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		out = append(out, ExportInfo{Key: obj.Key, Size: obj.Size, LastModified: obj.LastModified})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key > out[j].Key })
	return out, nil
}

// RemoveExports deletes every export under the user's prefix.
func (s *MinioStore) RemoveExports(ctx context.Context, userID string) error {
	exports, err := s.ListExports(ctx, userID)
	if err != nil {
		return err
	}
	for _, e := range exports {
		if err := s.client.RemoveObject(ctx, s.bucket, e.Key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("minio remove %s: %w", e.Key, err)
		}
	}
	return nil
}
