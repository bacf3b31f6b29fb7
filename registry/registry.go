// Package registry assigns stable identifiers to database images.
//
// Index entries reference their source image only through the ImageID handed
// out here, so the index never holds on to image memory.
package registry

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/slichash/model"
)

var (
	// ErrDuplicate is returned when registering a name twice.
	ErrDuplicate = errors.New("registry: duplicate image name")

	// ErrUnknown is returned for IDs or names that were never registered.
	ErrUnknown = errors.New("registry: unknown image")

	// ErrFull is returned when the ID space is exhausted.
	ErrFull = errors.New("registry: id space exhausted")
)

// Registry maps image names to dense ImageIDs in registration order.
//
// Registry is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	names []string
	ids   map[string]model.ImageID
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		ids: make(map[string]model.ImageID),
	}
}

// Register assigns the next ImageID to name.
func (r *Registry) Register(name string) (model.ImageID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.ids[name]; ok {
		return 0, fmt.Errorf("%w: %q", ErrDuplicate, name)
	}
	if uint64(len(r.names)) > math.MaxUint32 {
		return 0, ErrFull
	}

	id := model.ImageID(len(r.names))
	r.names = append(r.names, name)
	r.ids[name] = id
	return id, nil
}

// Lookup returns the ImageID registered for name.
func (r *Registry) Lookup(name string) (model.ImageID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.ids[name]
	return id, ok
}

// Name returns the name registered for id.
func (r *Registry) Name(id model.ImageID) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if int(id) >= len(r.names) {
		return "", fmt.Errorf("%w: %s", ErrUnknown, id)
	}
	return r.names[id], nil
}

// Len returns the number of registered images.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}

// IDs returns the set of registered ImageIDs.
func (r *Registry) IDs() *roaring.Bitmap {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bm := roaring.New()
	if len(r.names) > 0 {
		bm.AddRange(0, uint64(len(r.names)))
	}
	return bm
}

// Select returns the IDs registered under the given names.
// Unknown names produce ErrUnknown.
func (r *Registry) Select(names ...string) (*roaring.Bitmap, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bm := roaring.New()
	for _, name := range names {
		id, ok := r.ids[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknown, name)
		}
		bm.Add(uint32(id))
	}
	return bm, nil
}
