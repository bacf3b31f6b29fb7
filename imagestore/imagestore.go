// Package imagestore lists and decodes images held in a blobstore.BlobStore.
//
// Supported encodings are PNG, JPEG, GIF, BMP, TIFF and WebP. Blobs whose
// name ends in ".zst" or ".lz4" are decompressed transparently before
// decoding, so "input-1.png.zst" is a zstd-compressed PNG.
package imagestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"path"
	"strings"

	"github.com/hupe1980/slichash/blobstore"
	"github.com/hupe1980/slichash/resource"
	"github.com/klauspost/compress/zstd"
	"github.com/nfnt/resize"
	"github.com/pierrec/lz4/v4"
	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

// ErrUnsupportedFormat is returned for blobs that are not a known image encoding.
var ErrUnsupportedFormat = errors.New("imagestore: unsupported image format")

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".bmp": true, ".tif": true, ".tiff": true, ".webp": true,
}

// Options configures a Store.
type Options struct {
	// MaxDimension downscales images whose width or height exceeds it,
	// preserving the aspect ratio. Zero keeps images at full size.
	MaxDimension int

	// Resources throttles blob reads. Nil means unlimited.
	Resources *resource.Controller
}

// Store loads images from a blob store.
type Store struct {
	blobs blobstore.BlobStore
	opts  Options
}

// New creates an image store on top of blobs.
func New(blobs blobstore.BlobStore, optFns ...func(o *Options)) *Store {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Store{blobs: blobs, opts: opts}
}

// List returns the names of all images starting with prefix, sorted.
// Blobs that do not look like images are ignored.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	names, err := s.blobs.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("imagestore: list %q: %w", prefix, err)
	}

	images := names[:0]
	for _, name := range names {
		if IsImage(name) {
			images = append(images, name)
		}
	}
	return images, nil
}

// IsImage reports whether name carries a supported image extension,
// optionally followed by a compression suffix.
func IsImage(name string) bool {
	base, _ := splitCompression(strings.ToLower(name))
	return imageExts[path.Ext(base)]
}

// Load reads and decodes the named image.
func (s *Store) Load(ctx context.Context, name string) (image.Image, error) {
	raw, err := s.open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("imagestore: open %s: %w", name, err)
	}
	defer func() { _ = raw.Close() }()

	r, err := decompress(resource.NewRateLimitedReader(ctx, raw, s.opts.Resources), name)
	if err != nil {
		return nil, fmt.Errorf("imagestore: decompress %s: %w", name, err)
	}
	defer func() { _ = r.Close() }()

	img, err := Decode(r)
	if err != nil {
		return nil, fmt.Errorf("imagestore: decode %s: %w", name, err)
	}

	if limit := s.opts.MaxDimension; limit > 0 {
		b := img.Bounds()
		if b.Dx() > limit || b.Dy() > limit {
			img = resize.Thumbnail(uint(limit), uint(limit), img, resize.Bilinear)
		}
	}
	return img, nil
}

// Decode decodes an image from r with the registered decoders.
func Decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if errors.Is(err, image.ErrFormat) {
		return nil, ErrUnsupportedFormat
	}
	return img, err
}

func (s *Store) open(ctx context.Context, name string) (io.ReadCloser, error) {
	if f, ok := s.blobs.(blobstore.Fetcher); ok {
		data, err := f.Fetch(ctx, name)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(bytes.NewReader(data)), nil
	}

	blob, err := s.blobs.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	if blob.Size() == 0 {
		_ = blob.Close()
		return io.NopCloser(bytes.NewReader(nil)), nil
	}

	rc, err := blob.ReadRange(ctx, 0, blob.Size())
	if err != nil {
		_ = blob.Close()
		return nil, err
	}
	return &blobReader{ReadCloser: rc, blob: blob}, nil
}

// blobReader closes the blob together with its range reader.
type blobReader struct {
	io.ReadCloser
	blob blobstore.Blob
}

func (r *blobReader) Close() error {
	return errors.Join(r.ReadCloser.Close(), r.blob.Close())
}

func splitCompression(name string) (string, string) {
	for _, ext := range []string{".zst", ".lz4"} {
		if strings.HasSuffix(name, ext) {
			return strings.TrimSuffix(name, ext), ext
		}
	}
	return name, ""
}

func decompress(r io.Reader, name string) (io.ReadCloser, error) {
	_, ext := splitCompression(strings.ToLower(name))

	switch ext {
	case ".zst":
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	case ".lz4":
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return io.NopCloser(r), nil
	}
}
