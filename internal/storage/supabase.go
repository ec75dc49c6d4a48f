package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	storage_go "github.com/supabase-community/storage-go"
)

// SupabaseStorage implements LogoStore on a Supabase Storage bucket.
type SupabaseStorage struct {
	client *storage_go.Client
	bucket string
}

// NewSupabaseStorage builds a client against <projectURL>/storage/v1 using the service key.
func NewSupabaseStorage(projectURL, serviceKey, bucket string) *SupabaseStorage {
	endpoint := strings.TrimRight(projectURL, "/") + "/storage/v1"
	return &SupabaseStorage{
		client: storage_go.NewClient(endpoint, serviceKey, nil),
		bucket: bucket,
	}
}

// UploadLogo upserts the blob; the storage client takes no context, so ctx is only checked up front.
func (s *SupabaseStorage) UploadLogo(ctx context.Context, ownerID, filename string, data io.Reader) (string, error) {
	rel, err := LogoPath(ownerID, filename)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	upsert := true
	contentType := mime.TypeByExtension(path.Ext(rel))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if _, err := s.client.UploadFile(s.bucket, rel, data, storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	}); err != nil {
		return "", fmt.Errorf("failed to upload logo: %w", err)
	}

	return s.client.GetPublicUrl(s.bucket, rel).SignedURL, nil
}
