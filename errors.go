package slichash

import (
	"errors"
	"fmt"

	"github.com/hupe1980/slichash/aggregate"
	"github.com/hupe1980/slichash/index"
	"github.com/hupe1980/slichash/registry"
)

var (
	// ErrSealed is returned when adding images after the database was sealed.
	ErrSealed = errors.New("database is sealed")

	// ErrDuplicateImage is returned when an image name is added twice.
	ErrDuplicateImage = errors.New("duplicate image")

	// ErrNoSegmenter is returned by the image-level operations when no
	// segmenter was configured.
	ErrNoSegmenter = errors.New("no segmenter configured")

	// ErrUnknownImage is returned for image IDs or names that were never added.
	ErrUnknownImage = errors.New("unknown image")

	// ErrInvalidInput is returned when a label map does not describe the
	// image it is paired with.
	ErrInvalidInput = errors.New("invalid input")
)

// ErrImage indicates that processing a single image failed.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrImage struct {
	Name  string
	cause error
}

func (e *ErrImage) Error() string {
	return fmt.Sprintf("image %q: %v", e.Name, e.cause)
}

func (e *ErrImage) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, index.ErrFrozen):
		return fmt.Errorf("%w: %w", ErrSealed, err)
	case errors.Is(err, registry.ErrDuplicate):
		return fmt.Errorf("%w: %w", ErrDuplicateImage, err)
	case errors.Is(err, registry.ErrUnknown):
		return fmt.Errorf("%w: %w", ErrUnknownImage, err)
	case errors.Is(err, aggregate.ErrContractViolation):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	return err
}
