package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"cloud.google.com/go/storage"
)

// signedURLExpiry matches the upload flow: clients are expected to use the
// URL right away.
const signedURLExpiry = time.Hour

// GCS implements Store on a Google Cloud Storage bucket with V4 signed URLs.
type GCS struct {
	client *storage.Client
	bucket *storage.BucketHandle
}

// NewGCS returns a Store backed by the named bucket. Signing uses the
// client's ambient credentials (service account on GCE/Cloud Run).
func NewGCS(ctx context.Context, bucketName string) (*GCS, error) {
	if bucketName == "" {
		return nil, fmt.Errorf("bucket name must be provided")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCS{client: client, bucket: client.Bucket(bucketName)}, nil
}

func (g *GCS) UploadURL(ctx context.Context, name string) (string, error) {
	return g.signedURL(name, http.MethodPut)
}

func (g *GCS) DownloadURL(ctx context.Context, name string) (string, error) {
	return g.signedURL(name, http.MethodGet)
}

func (g *GCS) signedURL(name, method string) (string, error) {
	url, err := g.bucket.SignedURL(name, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  method,
		Expires: time.Now().Add(signedURLExpiry),
	})
	if err != nil {
		return "", fmt.Errorf("sign %s url for %s: %w", method, name, err)
	}
	return url, nil
}

func (g *GCS) Exists(ctx context.Context, name string) (bool, error) {
	_, err := g.bucket.Object(name).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat object %s: %w", name, err)
	}
	return true, nil
}

func (g *GCS) Download(ctx context.Context, name, destPath string) error {
	rc, err := g.bucket.Object(name).NewReader(ctx)
	if err != nil {
		return fmt.Errorf("open object %s: %w", name, err)
	}
	defer rc.Close()

	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", destPath, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, rc); err != nil {
		return fmt.Errorf("download object %s: %w", name, err)
	}
	return nil
}

// Close releases the underlying client.
func (g *GCS) Close() error {
	return g.client.Close()
}
