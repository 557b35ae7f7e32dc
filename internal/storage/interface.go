package storage

import "context"

// MediaUploader stores post attachments and profile images.
// Handlers depend on it so tests can swap in a fake.
type MediaUploader interface {
	UploadPostAsset(ctx context.Context, postID, filename string, data []byte) (*UploadResult, error)
	UploadUserAsset(ctx context.Context, username string, kind UserAssetKind, data []byte) (*UploadResult, error)
	DeleteFile(ctx context.Context, key string) error
}

// Ensure S3Uploader implements MediaUploader
var _ MediaUploader = (*S3Uploader)(nil)
