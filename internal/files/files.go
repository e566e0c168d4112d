// Package files abstracts document blob storage: signed upload/download
// URLs for clients and direct downloads for the processors.
package files

import "context"

// Store is the document store collaborator. Objects are keyed by book id.
type Store interface {
	// UploadURL returns a pre-signed URL a client can PUT the document to.
	UploadURL(ctx context.Context, name string) (string, error)

	// DownloadURL returns a pre-signed URL a client can GET the document from.
	DownloadURL(ctx context.Context, name string) (string, error)

	// Exists reports whether the object has been uploaded.
	Exists(ctx context.Context, name string) (bool, error)

	// Download copies the object's bytes to destPath.
	Download(ctx context.Context, name, destPath string) error
}
