package storage

import (
	"context"
	"errors"
	"io"
)

var ErrInvalidKey = errors.New("storage key escapes the storage root")

// FileStorage keeps face photos under slash-separated keys such as
// "attendance/2024-06-10/<employee>-check_in-1718000000.jpg".
type FileStorage interface {
	// Save writes r under key and returns the normalized key
	Save(ctx context.Context, key string, r io.Reader) (string, error)

	// Remove deletes key. A missing key is not an error.
	Remove(ctx context.Context, key string) error

	// URL returns the public address of key
	URL(key string) string
}
