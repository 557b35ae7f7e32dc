package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/inkvault/backend/internal/logger"
	"github.com/inkvault/backend/internal/telemetry"
	"go.uber.org/zap"
)

const (
	MaxImageSizeBytes = 15 * 1024 * 1024
	MaxVideoSizeBytes = 20 * 1024 * 1024
)

var (
	ErrUnsupportedType = errors.New("unsupported media type")
	ErrTooLarge        = errors.New("media too large")
	ErrEmptyFile       = errors.New("empty file")
)

// UserAssetKind selects the folder of a profile image
type UserAssetKind string

const (
	AssetProfilePicture UserAssetKind = "profile"
	AssetBanner         UserAssetKind = "banner"
)

// s3API is the slice of the S3 client this package uses
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Uploader handles media uploads to S3 or an S3 compatible store
type S3Uploader struct {
	client  s3API
	bucket  string
	region  string
	baseURL string
}

// UploadResult contains the result of an S3 upload
type UploadResult struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	Bucket      string `json:"bucket"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// NewS3Uploader creates a new S3 uploader. A non-empty endpoint points the
// client at an S3 compatible store using path-style addressing.
func NewS3Uploader(region, bucket, baseURL, endpoint string) (*S3Uploader, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(region),
		config.WithHTTPClient(telemetry.NewHTTPClient(30 * time.Second)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Uploader{
		client:  client,
		bucket:  bucket,
		region:  region,
		baseURL: baseURL,
	}, nil
}

// ValidateMedia checks a post attachment against the allowed types and sizes
func ValidateMedia(contentType string, size int64) error {
	if size == 0 {
		return ErrEmptyFile
	}
	switch {
	case isImage(contentType):
		if size > MaxImageSizeBytes {
			return ErrTooLarge
		}
	case isVideo(contentType):
		if size > MaxVideoSizeBytes {
			return ErrTooLarge
		}
	default:
		return ErrUnsupportedType
	}
	return nil
}

// UploadPostAsset stores an attachment at postassets/{postID}/{filename}
func (u *S3Uploader) UploadPostAsset(ctx context.Context, postID, filename string, data []byte) (*UploadResult, error) {
	name := filepath.Base(filepath.Clean("/" + filename))
	if name == "/" || name == "." {
		return nil, ErrEmptyFile
	}
	contentType := getContentType(filepath.Ext(name))
	if err := ValidateMedia(contentType, int64(len(data))); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("postassets/%s/%s", postID, name)
	if err := u.put(ctx, key, data, contentType, "max-age=86400", map[string]string{
		"post-id":           postID,
		"original-filename": filename,
		"file-type":         "post",
	}); err != nil {
		return nil, err
	}
	return u.result(key, contentType, len(data)), nil
}

// UploadUserAsset stores a profile picture or banner under a content hash, so
// uploading the same image twice yields the same key
func (u *S3Uploader) UploadUserAsset(ctx context.Context, username string, kind UserAssetKind, data []byte) (*UploadResult, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	contentType := http.DetectContentType(data)
	if !isImage(contentType) {
		return nil, ErrUnsupportedType
	}
	if len(data) > MaxImageSizeBytes {
		return nil, ErrTooLarge
	}

	key := fmt.Sprintf("userassets/%s/%s/%s%s", username, kind, contentHash(data), imageExtension(contentType))
	if err := u.put(ctx, key, data, contentType, "max-age=31536000, immutable", map[string]string{
		"username":  username,
		"file-type": string(kind),
	}); err != nil {
		return nil, err
	}
	return u.result(key, contentType, len(data)), nil
}

func (u *S3Uploader) put(ctx context.Context, key string, data []byte, contentType, cacheControl string, metadata map[string]string) error {
	metadata["upload-timestamp"] = time.Now().UTC().Format(time.RFC3339)

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(u.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String(cacheControl),
		Metadata:     metadata,
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	logger.Log.Debug("Uploaded object", zap.String("bucket", u.bucket), zap.String("key", key), zap.Int("size", len(data)))
	return nil
}

func (u *S3Uploader) result(key, contentType string, size int) *UploadResult {
	return &UploadResult{
		Key:         key,
		URL:         fmt.Sprintf("%s/%s", strings.TrimSuffix(u.baseURL, "/"), key),
		Bucket:      u.bucket,
		ContentType: contentType,
		Size:        int64(size),
	}
}

// DeleteFile deletes a file from S3
func (u *S3Uploader) DeleteFile(ctx context.Context, key string) error {
	_, err := u.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}

	return nil
}

// CheckBucketAccess verifies that we can access the S3 bucket
func (u *S3Uploader) CheckBucketAccess(ctx context.Context) error {
	_, err := u.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(u.bucket),
	})
	if err != nil {
		return fmt.Errorf("cannot access S3 bucket %s: %w", u.bucket, err)
	}

	return nil
}

// contentHash is a shortened hex sha256 of data
func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:16])
}

func isImage(contentType string) bool {
	switch contentType {
	case "image/png", "image/jpeg", "image/webp", "image/gif":
		return true
	}
	return false
}

func isVideo(contentType string) bool {
	return contentType == "video/mp4" || contentType == "video/webm"
}

func imageExtension(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".png"
	}
}

// getContentType returns the appropriate MIME type for file extensions
func getContentType(extension string) string {
	switch strings.ToLower(extension) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	case ".mp4":
		return "video/mp4"
	case ".webm":
		return "video/webm"
	default:
		return "application/octet-stream"
	}
}
