package slichash

import (
	"context"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/slichash/aggregate"
	"github.com/hupe1980/slichash/colorspace"
	"github.com/hupe1980/slichash/imagestore"
	"github.com/hupe1980/slichash/index"
	"github.com/hupe1980/slichash/model"
	"github.com/hupe1980/slichash/quantization"
	"github.com/hupe1980/slichash/registry"
	"github.com/hupe1980/slichash/searcher"
	"golang.org/x/sync/errgroup"
)

// Candidate is one voted image of a query.
type Candidate struct {
	Image model.ImageID
	Name  string
	Votes int
}

// Match is the answer to a query.
type Match struct {
	// Image is the ID of the best-matching database image.
	Image model.ImageID

	// Name is the name the image was added under.
	Name string

	// Votes is the number of index entries that voted for Image.
	Votes int

	// Found is false when no database region shared a bucket with any query
	// region (NoMatch). The other fields are zero in that case.
	Found bool

	// Candidates ranks every voted image, best first.
	Candidates []Candidate
}

// Stats is a snapshot of the database.
type Stats struct {
	Images int
	Sealed bool
	Index  index.Stats
}

// String returns a string representation of the Stats.
func (s Stats) String() string {
	return fmt.Sprintf("images=%d sealed=%t %s", s.Images, s.Sealed, s.Index)
}

// Entry is one image of a bulk build. Either Source and Labels are set, or
// Image is set and segmented with the configured segmenter.
type Entry struct {
	Name   string
	Image  image.Image
	Source aggregate.Source
	Labels *aggregate.Labels
}

// QueryOptions configures a single query.
type QueryOptions struct {
	// Images restricts voting to the named database images. Empty means all.
	Images []string

	// TopN limits Match.Candidates. Zero keeps every voted image.
	TopN int
}

// QueryOption configures a query.
type QueryOption func(o *QueryOptions)

// WithImages restricts a query to the named database images.
func WithImages(names ...string) QueryOption {
	return func(o *QueryOptions) {
		o.Images = append(o.Images, names...)
	}
}

// WithTopN limits the number of ranked candidates returned.
func WithTopN(n int) QueryOption {
	return func(o *QueryOptions) {
		o.TopN = n
	}
}

// DB is a superpixel image retrieval database.
//
// A DB is built by adding images and then queried. The first query seals it.
// All methods are safe for concurrent use.
type DB struct {
	opts options

	quantizer *quantization.Quantizer
	registry  *registry.Registry
	index     *index.Index
	resolver  *searcher.Resolver

	// mu orders registration and insertion against Seal.
	mu     sync.Mutex
	sealed atomic.Bool
}

// New creates an empty database.
func New(optFns ...Option) (*DB, error) {
	opts := applyOptions(optFns)

	q, err := quantization.New(opts.quantization)
	if err != nil {
		return nil, err
	}

	ix := index.New()

	return &DB{
		opts:      opts,
		quantizer: q,
		registry:  registry.New(),
		index:     ix,
		resolver:  searcher.NewResolver(ix, q),
	}, nil
}

// Add indexes one database image from a precomputed segmentation and returns
// the ID assigned to it. labels must cover src exactly.
func (db *DB) Add(ctx context.Context, name string, src aggregate.Source, labels *aggregate.Labels) (model.ImageID, error) {
	start := time.Now()

	if err := db.checkAddable(name); err != nil {
		db.record(ctx, name, 0, 0, start, err)
		return 0, err
	}

	regions, err := db.describe(ctx, src, labels)
	if err != nil {
		db.record(ctx, name, 0, 0, start, err)
		return 0, err
	}

	id, err := db.insert(name, regions)
	db.record(ctx, name, id, len(regions), start, err)
	return id, err
}

// AddImage segments img with the configured segmenter and indexes it.
func (db *DB) AddImage(ctx context.Context, name string, img image.Image) (model.ImageID, error) {
	if err := db.checkAddable(name); err != nil {
		return 0, err
	}

	src, labels, release, err := db.prepare(ctx, img)
	if err != nil {
		return 0, err
	}
	defer release()

	return db.Add(ctx, name, src, labels)
}

// Build indexes entries concurrently. Images are described in parallel and
// inserted in the order of entries, so IDs follow that order. If any entry
// fails, nothing is inserted and the error is an *ErrImage.
func (db *DB) Build(ctx context.Context, entries []Entry) ([]model.ImageID, error) {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}

	return db.build(ctx, names, func(ctx context.Context, i int) ([]model.Region, error) {
		e := entries[i]
		if e.Source != nil && e.Labels != nil {
			return db.describe(ctx, e.Source, e.Labels)
		}
		if e.Image == nil {
			return nil, fmt.Errorf("%w: entry has neither an image nor a segmentation", ErrInvalidInput)
		}
		return db.describeImage(ctx, e.Image)
	})
}

// IndexStore loads every image under prefix from store and indexes it, like
// Build.
func (db *DB) IndexStore(ctx context.Context, store *imagestore.Store, prefix string) ([]model.ImageID, error) {
	names, err := store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}

	return db.build(ctx, names, func(ctx context.Context, i int) ([]model.Region, error) {
		img, err := store.Load(ctx, names[i])
		if err != nil {
			return nil, err
		}
		return db.describeImage(ctx, img)
	})
}

func (db *DB) build(ctx context.Context, names []string, describe func(ctx context.Context, i int) ([]model.Region, error)) ([]model.ImageID, error) {
	start := time.Now()

	ids, err := db.buildAll(ctx, names, describe)
	failed := len(names) - len(ids)

	db.opts.metricsCollector.RecordBuild(len(names), failed, time.Since(start))
	db.opts.logger.LogBuild(ctx, len(names), failed)

	return ids, err
}

func (db *DB) buildAll(ctx context.Context, names []string, describe func(ctx context.Context, i int) ([]model.Region, error)) ([]model.ImageID, error) {
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			return nil, &ErrImage{Name: name, cause: ErrDuplicateImage}
		}
		seen[name] = struct{}{}

		if err := db.checkAddable(name); err != nil {
			return nil, &ErrImage{Name: name, cause: err}
		}
	}

	described := make([][]model.Region, len(names))
	rc := db.opts.resources

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rc.Workers())

	for i, name := range names {
		g.Go(func() error {
			if err := rc.AcquireWorker(gctx); err != nil {
				return err
			}
			defer rc.ReleaseWorker()

			regions, err := describe(gctx, i)
			if err != nil {
				return &ErrImage{Name: name, cause: err}
			}
			described[i] = regions
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	ids := make([]model.ImageID, 0, len(names))
	for i, name := range names {
		start := time.Now()
		id, err := db.insert(name, described[i])
		db.record(ctx, name, id, len(described[i]), start, err)
		if err != nil {
			return ids, &ErrImage{Name: name, cause: err}
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Query resolves a segmented query image against the database. The first
// query seals the database.
//
// A query without any bucket collision is not an error: the returned Match
// has Found == false.
func (db *DB) Query(ctx context.Context, src aggregate.Source, labels *aggregate.Labels, optFns ...QueryOption) (Match, error) {
	start := time.Now()

	m, regions, err := db.query(ctx, src, labels, optFns)

	db.opts.metricsCollector.RecordQuery(regions, m.Votes, time.Since(start), err)
	db.opts.logger.LogQuery(ctx, m, regions, err)

	return m, err
}

// QueryImage segments img with the configured segmenter and queries it.
func (db *DB) QueryImage(ctx context.Context, img image.Image, optFns ...QueryOption) (Match, error) {
	src, labels, release, err := db.prepare(ctx, img)
	if err != nil {
		return Match{}, err
	}
	defer release()

	return db.Query(ctx, src, labels, optFns...)
}

// QueryStore loads the named image from store and queries it.
func (db *DB) QueryStore(ctx context.Context, store *imagestore.Store, name string, optFns ...QueryOption) (Match, error) {
	img, err := store.Load(ctx, name)
	if err != nil {
		return Match{}, err
	}
	return db.QueryImage(ctx, img, optFns...)
}

func (db *DB) query(ctx context.Context, src aggregate.Source, labels *aggregate.Labels, optFns []QueryOption) (Match, int, error) {
	var opts QueryOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	db.seal(ctx)

	regions, err := db.describe(ctx, src, labels)
	if err != nil {
		return Match{}, 0, err
	}

	var searchOpts []func(o *searcher.Options)
	if len(opts.Images) > 0 {
		filter, err := db.registry.Select(opts.Images...)
		if err != nil {
			return Match{}, len(regions), translateError(err)
		}
		searchOpts = append(searchOpts, func(o *searcher.Options) { o.Filter = filter })
	}
	if opts.TopN > 0 {
		searchOpts = append(searchOpts, func(o *searcher.Options) { o.TopN = opts.TopN })
	}

	res, err := db.resolver.Resolve(ctx, regions, searchOpts...)
	if err != nil {
		return Match{}, len(regions), err
	}

	m := Match{Found: res.Found}
	for _, c := range res.Candidates {
		name, err := db.registry.Name(c.Image)
		if err != nil {
			return Match{}, len(regions), translateError(err)
		}
		m.Candidates = append(m.Candidates, Candidate{Image: c.Image, Name: name, Votes: c.Votes})
	}
	if res.Found {
		m.Image = res.Best.Image
		m.Votes = res.Best.Votes
		if m.Name, err = db.registry.Name(res.Best.Image); err != nil {
			return Match{}, len(regions), translateError(err)
		}
	}

	return m, len(regions), nil
}

// Seal ends the build phase. Later calls to Add fail with ErrSealed.
// Sealing is idempotent; the first query seals implicitly.
func (db *DB) Seal() {
	db.seal(context.Background())
}

func (db *DB) seal(ctx context.Context) {
	if db.sealed.Load() {
		return
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if db.sealed.Load() {
		return
	}

	db.index.Freeze()
	db.sealed.Store(true)
	db.opts.logger.LogSeal(ctx, db.registry.Len(), db.index.Len())
}

// Sealed reports whether the database is in the query phase.
func (db *DB) Sealed() bool {
	return db.sealed.Load()
}

// Stats returns a snapshot of the database.
func (db *DB) Stats() Stats {
	return Stats{
		Images: db.registry.Len(),
		Sealed: db.sealed.Load(),
		Index:  db.index.Stats(),
	}
}

// ImageName returns the name image id was added under.
func (db *DB) ImageName(id model.ImageID) (string, error) {
	name, err := db.registry.Name(id)
	return name, translateError(err)
}

// ImageID returns the ID of the named image.
func (db *DB) ImageID(name string) (model.ImageID, error) {
	id, ok := db.registry.Lookup(name)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownImage, name)
	}
	return id, nil
}

func (db *DB) checkAddable(name string) error {
	if db.sealed.Load() {
		return ErrSealed
	}
	if _, ok := db.registry.Lookup(name); ok {
		return fmt.Errorf("%w: %q", ErrDuplicateImage, name)
	}
	return nil
}

func (db *DB) record(ctx context.Context, name string, id model.ImageID, regions int, start time.Time, err error) {
	db.opts.metricsCollector.RecordIndex(regions, time.Since(start), err)
	db.opts.logger.LogIndex(ctx, name, id, regions, err)
}

// describe turns a segmented image into region descriptors. The regions are
// not yet attributed to an image.
func (db *DB) describe(ctx context.Context, src aggregate.Source, labels *aggregate.Labels) ([]model.Region, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	totals, err := aggregate.CountPixels(labels)
	if err != nil {
		return nil, translateError(err)
	}

	regions, err := aggregate.Collect(src, labels, totals, 0)
	if err != nil {
		return nil, translateError(err)
	}
	return regions, nil
}

func (db *DB) describeImage(ctx context.Context, img image.Image) ([]model.Region, error) {
	src, labels, release, err := db.prepare(ctx, img)
	if err != nil {
		return nil, err
	}
	defer release()

	return db.describe(ctx, src, labels)
}

// prepare converts img into the configured colour space and segments it.
// release returns the reserved memory and must be called once the source
// and labels are no longer needed.
func (db *DB) prepare(ctx context.Context, img image.Image) (aggregate.Source, *aggregate.Labels, func(), error) {
	if db.opts.segmenter == nil {
		return nil, nil, nil, ErrNoSegmenter
	}

	rc := db.opts.resources
	b := img.Bounds()
	// Planar channels plus one int32 label per pixel.
	bytes := int64(b.Dx()) * int64(b.Dy()) * (model.Channels + 4)
	if err := rc.AcquireMemory(ctx, bytes); err != nil {
		return nil, nil, nil, err
	}
	release := func() { rc.ReleaseMemory(bytes) }

	src := colorspace.Convert(img, db.opts.colorSpace)

	labels, err := db.opts.segmenter.Segment(ctx, src)
	if err != nil {
		release()
		return nil, nil, nil, fmt.Errorf("segment: %w", err)
	}
	return src, labels, release, nil
}

// insert registers name and stores its regions. Registration and insertion
// happen under mu so a concurrent Seal never observes a registered image
// without its entries.
func (db *DB) insert(name string, regions []model.Region) (model.ImageID, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.sealed.Load() {
		return 0, ErrSealed
	}

	id, err := db.registry.Register(name)
	if err != nil {
		return 0, translateError(err)
	}

	keys := make([]model.Key, len(regions))
	for i := range regions {
		regions[i].Image = id
		keys[i] = db.quantizer.Quantize(regions[i])
	}

	if err := db.index.InsertBatch(keys, regions); err != nil {
		return 0, translateError(err)
	}
	return id, nil
}
