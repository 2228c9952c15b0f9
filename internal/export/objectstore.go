package export

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStore uploads exported files to S3-compatible storage and hands
// out short-lived download links.
type ObjectStore struct {
	client *minio.Client
	bucket string
}

// NewObjectStore connects to the S3 endpoint and makes sure the bucket exists.
func NewObjectStore(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool) (*ObjectStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect object storage: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", bucket, err)
		}
	}

	return &ObjectStore{client: client, bucket: bucket}, nil
}

// Upload stores an exported file under the user's prefix and returns a
// presigned download URL valid for 24 hours.
func (o *ObjectStore) Upload(ctx context.Context, userID string, result *Result) (string, error) {
	objectName := fmt.Sprintf("%s/%s", userID, result.Filename)

	_, err := o.client.PutObject(ctx, o.bucket, objectName,
		bytes.NewReader(result.Data), int64(len(result.Data)),
		minio.PutObjectOptions{ContentType: result.MimeType})
	if err != nil {
		return "", fmt.Errorf("upload export: %w", err)
	}

	presigned, err := o.client.PresignedGetObject(ctx, o.bucket, objectName, 24*time.Hour, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign export url: %w", err)
	}
	return presigned.String(), nil
}
