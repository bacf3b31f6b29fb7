package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// BlobStore is a read-only view of a collection of named blobs (encoded images).
type BlobStore interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)

	// List returns the names of all blobs starting with prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to a data blob.
type Blob interface {
	io.Closer

	// ReadAt reads len(p) bytes starting at offset off.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)

	// ReadRange returns a reader for length bytes starting at off. The range
	// is clipped to the blob size; an offset at or past the end yields io.EOF.
	ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error)

	// Size returns the size of the blob in bytes.
	Size() int64
}

// Fetcher is an optional interface for stores that can retrieve a whole blob
// more efficiently than a single ranged read.
type Fetcher interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// ReadAll returns the contents of the named blob.
func ReadAll(ctx context.Context, store BlobStore, name string) ([]byte, error) {
	if f, ok := store.(Fetcher); ok {
		return f.Fetch(ctx, name)
	}

	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = blob.Close() }()

	if blob.Size() == 0 {
		return []byte{}, nil
	}

	r, err := blob.ReadRange(ctx, 0, blob.Size())
	if err != nil {
		return nil, fmt.Errorf("blobstore: read %s: %w", name, err)
	}
	defer func() { _ = r.Close() }()

	data := make([]byte, blob.Size())
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("blobstore: read %s: %w", name, err)
	}
	return data, nil
}

// IsNotFound reports whether err indicates a missing blob.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func hasPrefix(name, prefix string) bool {
	return prefix == "" || strings.HasPrefix(name, prefix)
}

// sliceRange clips [off, off+length) to data.
func sliceRange(data []byte, off, length int64) ([]byte, error) {
	size := int64(len(data))
	if off < 0 || length < 0 {
		return nil, fmt.Errorf("blobstore: invalid range %d+%d", off, length)
	}
	if off >= size {
		return nil, io.EOF
	}
	return data[off:min(off+length, size)], nil
}

func readAt(data []byte, p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if off < 0 || off >= int64(len(data)) {
		return 0, io.EOF
	}
	n := copy(p, data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
