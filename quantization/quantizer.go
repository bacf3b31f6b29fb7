package quantization

import (
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/slichash/model"
)

// Dimensions is the number of quantized coordinates in a key.
const Dimensions = model.Channels + 2

var (
	// ErrInvalidConfig is returned when a Config cannot produce a key space.
	ErrInvalidConfig = errors.New("quantization: invalid config")

	// ErrKeyOutOfRange is returned when decomposing a key outside the key space.
	ErrKeyOutOfRange = errors.New("quantization: key out of range")
)

// Config configures the bucket layout.
type Config struct {
	// ChannelBuckets is the number of buckets per colour channel.
	ChannelBuckets int

	// ChannelRange is the exclusive upper bound of channel values
	// (256 for 8-bit channels).
	ChannelRange float64

	// XBuckets and YBuckets are the number of spatial buckets per axis.
	XBuckets, YBuckets int

	// MaxWidth and MaxHeight are the assumed maximum image extent.
	MaxWidth, MaxHeight int
}

// DefaultConfig returns the default bucket layout: 16 buckets per 8-bit
// channel and a 10×10 spatial grid over 3840×2160 pixels.
func DefaultConfig() Config {
	return Config{
		ChannelBuckets: 16,
		ChannelRange:   256,
		XBuckets:       10,
		YBuckets:       10,
		MaxWidth:       3840,
		MaxHeight:      2160,
	}
}

// Validate checks that the configuration describes a usable key space.
func (c Config) Validate() error {
	if c.ChannelBuckets <= 0 || c.XBuckets <= 0 || c.YBuckets <= 0 {
		return fmt.Errorf("%w: bucket counts must be positive", ErrInvalidConfig)
	}
	if !(c.ChannelRange > 0) {
		return fmt.Errorf("%w: channel range must be positive", ErrInvalidConfig)
	}
	if c.MaxWidth <= 0 || c.MaxHeight <= 0 {
		return fmt.Errorf("%w: maximum extent must be positive", ErrInvalidConfig)
	}
	if c.keySpace() > math.MaxInt32 {
		return fmt.Errorf("%w: key space %d exceeds int32", ErrInvalidConfig, c.keySpace())
	}
	return nil
}

func (c Config) keySpace() int64 {
	cb := int64(c.ChannelBuckets)
	return cb * cb * cb * int64(c.XBuckets) * int64(c.YBuckets)
}

// Coords are the quantized coordinates of a region, in packing order.
type Coords [Dimensions]int

// Quantizer maps regions to bucket keys. It is immutable and safe for
// concurrent use.
type Quantizer struct {
	cfg Config

	// dims holds the bucket count of every coordinate, in packing order.
	dims Coords

	channelWidth float64
	xWidth       float64
	yWidth       float64
}

// New creates a Quantizer for the given configuration.
func New(cfg Config) (*Quantizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	q := &Quantizer{
		cfg:          cfg,
		channelWidth: cfg.ChannelRange / float64(cfg.ChannelBuckets),
		xWidth:       float64(cfg.MaxWidth) / float64(cfg.XBuckets),
		yWidth:       float64(cfg.MaxHeight) / float64(cfg.YBuckets),
	}
	for i := 0; i < model.Channels; i++ {
		q.dims[i] = cfg.ChannelBuckets
	}
	q.dims[model.Channels] = cfg.XBuckets
	q.dims[model.Channels+1] = cfg.YBuckets

	return q, nil
}

// Config returns the configuration of the quantizer.
func (q *Quantizer) Config() Config {
	return q.cfg
}

// KeySpace returns the number of distinct valid keys.
func (q *Quantizer) KeySpace() int {
	return int(q.cfg.keySpace())
}

// Coords returns the clamped bucket coordinates of r.
// ok is false if r is empty.
func (q *Quantizer) Coords(r model.Region) (c Coords, ok bool) {
	if r.Count == 0 {
		return c, false
	}

	mean := r.Mean()
	for i, m := range mean {
		c[i] = bucket(m, q.channelWidth, q.dims[i])
	}

	cx, cy := r.Center()
	c[model.Channels] = bucket(cx, q.xWidth, q.dims[model.Channels])
	c[model.Channels+1] = bucket(cy, q.yWidth, q.dims[model.Channels+1])

	return c, true
}

// Quantize returns the bucket key of r, or model.InvalidKey if r is empty.
func (q *Quantizer) Quantize(r model.Region) model.Key {
	c, ok := q.Coords(r)
	if !ok {
		return model.InvalidKey
	}
	return q.Compose(c)
}

// Compose packs coordinates into a key. Coordinates are clamped first.
func (q *Quantizer) Compose(c Coords) model.Key {
	key := 0
	for i, v := range c {
		key = key*q.dims[i] + clamp(v, q.dims[i])
	}
	return model.Key(key)
}

// Decompose unpacks a key into its coordinates.
func (q *Quantizer) Decompose(k model.Key) (Coords, error) {
	var c Coords
	if k < 0 || int64(k) >= q.cfg.keySpace() {
		return c, fmt.Errorf("%w: %d", ErrKeyOutOfRange, k)
	}

	rest := int(k)
	for i := Dimensions - 1; i >= 0; i-- {
		c[i] = rest % q.dims[i]
		rest /= q.dims[i]
	}
	return c, nil
}

// bucket maps v onto one of n buckets of the given width.
func bucket(v, width float64, n int) int {
	// int() truncates toward zero; anything negative is clamped to 0 below.
	return clamp(int(v/width), n)
}

func clamp(v, n int) int {
	return max(0, min(v, n-1))
}
