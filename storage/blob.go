package storage

import (
	"context"
	"io"
)

// URLPrefix is the public path prefix attachment references resolve under.
const URLPrefix = "/uploads/"

// BlobStore is the narrow contract message attachments are stored through.
// Save persists the blob under a relative key (e.g. "messages/169...png")
// and returns the public reference path; Open streams a stored blob back;
// Delete removes it. Keys never start with a slash.
type BlobStore interface {
	Save(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// KeyFromURL converts a stored reference path back into a blob key.
func KeyFromURL(url string) string {
	if len(url) > len(URLPrefix) && url[:len(URLPrefix)] == URLPrefix {
		return url[len(URLPrefix):]
	}
	return url
}
