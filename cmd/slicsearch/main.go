// Command slicsearch indexes a set of database images and reports the best
// match for every query image.
//
// Images are read from a local directory, a MinIO bucket or an S3 bucket.
// Database images are the ones whose name starts with the database prefix
// ("input" by default), query images the ones starting with the query prefix
// ("query" by default). Settings come from SLIC_* environment variables or a
// dotenv file; flags override both.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hupe1980/slichash"
	"github.com/hupe1980/slichash/blobstore"
	miniostore "github.com/hupe1980/slichash/blobstore/minio"
	s3store "github.com/hupe1980/slichash/blobstore/s3"
	"github.com/hupe1980/slichash/colorspace"
	"github.com/hupe1980/slichash/imagestore"
	"github.com/hupe1980/slichash/internal/config"
	"github.com/hupe1980/slichash/resource"
	"github.com/hupe1980/slichash/segment"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "slicsearch: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("slicsearch", flag.ContinueOnError)
	envFile := fs.String("env", ".env", "dotenv file with SLIC_* settings")
	store := fs.String("store", "", "image store: local, minio or s3")
	root := fs.String("root", "", "image directory (local store)")
	bucket := fs.String("bucket", "", "bucket (minio and s3 stores)")
	dbPrefix := fs.String("db", "", "name prefix of database images")
	queryPrefix := fs.String("query", "", "name prefix of query images")
	segmenter := fs.String("segmenter", "", "segmenter: slic or grid")
	regionSize := fs.Int("region-size", 0, "superpixel size in pixels")
	colorSpace := fs.String("color", "", "colour space: bgr, rgb or lab")
	workers := fs.Int("workers", 0, "concurrent image workers")
	top := fs.Int("top", 1, "candidates to print per query")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		return err
	}

	override(&cfg.Store, *store)
	override(&cfg.Root, *root)
	override(&cfg.Bucket, *bucket)
	override(&cfg.DatabasePrefix, *dbPrefix)
	override(&cfg.QueryPrefix, *queryPrefix)
	override(&cfg.Segmenter, *segmenter)
	override(&cfg.ColorSpace, *colorSpace)
	if *regionSize > 0 {
		cfg.RegionSize = *regionSize
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	blobs, err := openBlobStore(ctx, cfg)
	if err != nil {
		return err
	}

	rc := resource.NewController(resource.Config{
		MemoryLimitBytes:   cfg.MemoryLimit,
		MaxWorkers:         int64(cfg.Workers),
		IOLimitBytesPerSec: cfg.IOLimit,
	})

	images := imagestore.New(blobs, func(o *imagestore.Options) {
		o.MaxDimension = cfg.MaxDimension
		o.Resources = rc
	})

	seg, err := newSegmenter(cfg)
	if err != nil {
		return err
	}

	conv, err := colorspace.ByName(cfg.ColorSpace)
	if err != nil {
		return err
	}

	logger := slichash.NewTextLogger(cfg.LogLevel)
	if cfg.LogFormat == "json" {
		logger = slichash.NewJSONLogger(cfg.LogLevel)
	}

	db, err := slichash.New(
		slichash.WithSegmenter(seg),
		slichash.WithColorSpace(conv),
		slichash.WithResources(rc),
		slichash.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	start := time.Now()
	ids, err := db.IndexStore(ctx, images, cfg.DatabasePrefix)
	if err != nil {
		return err
	}
	fmt.Printf("indexed %d images in %s (%s)\n", len(ids), time.Since(start).Round(time.Millisecond), db.Stats().Index)

	queries, err := images.List(ctx, cfg.QueryPrefix)
	if err != nil {
		return err
	}
	if len(queries) == 0 {
		return fmt.Errorf("no query images with prefix %q", cfg.QueryPrefix)
	}

	for _, name := range queries {
		m, err := db.QueryStore(ctx, images, name, slichash.WithTopN(*top))
		if err != nil {
			return fmt.Errorf("query %s: %w", name, err)
		}

		if !m.Found {
			fmt.Printf("%s: no match\n", name)
			continue
		}

		fmt.Printf("%s: %s (%d votes)\n", name, m.Name, m.Votes)
		for _, c := range m.Candidates[1:] {
			fmt.Printf("  %s (%d votes)\n", c.Name, c.Votes)
		}
	}

	return nil
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func openBlobStore(ctx context.Context, cfg *config.Config) (blobstore.BlobStore, error) {
	switch cfg.Store {
	case config.StoreMinio:
		client, err := minio.New(cfg.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.UseSSL,
			Region: cfg.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("minio client: %w", err)
		}
		return miniostore.NewStore(client, cfg.Bucket, cfg.Prefix), nil

	case config.StoreS3:
		var optFns []func(*awsconfig.LoadOptions) error
		if cfg.Region != "" {
			optFns = append(optFns, awsconfig.WithRegion(cfg.Region))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
		if err != nil {
			return nil, fmt.Errorf("aws config: %w", err)
		}
		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
				o.UsePathStyle = true
			}
		})
		return s3store.NewStore(client, cfg.Bucket, cfg.Prefix), nil

	default:
		return blobstore.NewLocalStore(filepath.Clean(cfg.Root)), nil
	}
}

func newSegmenter(cfg *config.Config) (segment.Segmenter, error) {
	if cfg.Segmenter == "grid" {
		return segment.NewGrid(cfg.RegionSize), nil
	}
	slic, err := segment.NewSLIC(func(o *segment.SLICOptions) {
		o.RegionSize = cfg.RegionSize
		o.Compactness = cfg.Compactness
		o.Iterations = cfg.Iterations
		o.MinSizePercent = cfg.MinSizePercent
	})
	if err != nil {
		return nil, err
	}
	return slic, nil
}
