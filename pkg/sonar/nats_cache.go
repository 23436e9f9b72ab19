package sonar

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/fivetwenty-io/sonar-client/internal/constants"
)

// Static errors for err113 compliance.
var (
	ErrNATSURLRequired   = errors.New("NATS URL or connection is required")
	ErrCacheValueTooLong = errors.New("cache value exceeds maximum size")
)

// NATSKVConfig configures the JetStream key-value cache.
type NATSKVConfig struct {
	// URL of the NATS server, ignored when Conn is set.
	URL string
	// Conn is an existing connection; the cache does not close it.
	Conn *nats.Conn
	// Bucket name; defaults to constants.DefaultNATSBucket.
	Bucket string
	// TTL of the bucket; entries also carry their own expiry.
	TTL time.Duration
	// Options are passed to nats.Connect.
	Options []nats.Option
}

// NATSKVCache stores responses in a JetStream key-value bucket so that
// several processes share one cache.
type NATSKVCache struct {
	conn    *nats.Conn
	ownConn bool
	kv      jetstream.KeyValue
}

var natsKeyUnsafe = regexp.MustCompile(`[^-_A-Za-z0-9]`)

// NewNATSKVCache connects to NATS and creates or binds the bucket.
func NewNATSKVCache(config *NATSKVConfig) (*NATSKVCache, error) {
	ctx, cancel := context.WithTimeout(context.Background(), constants.ShortHTTPTimeout)
	defer cancel()

	return NewNATSKVCacheWithContext(ctx, config)
}

// NewNATSKVCacheWithContext is NewNATSKVCache with a caller-supplied context.
func NewNATSKVCacheWithContext(ctx context.Context, config *NATSKVConfig) (*NATSKVCache, error) {
	if config == nil || (config.Conn == nil && config.URL == "") {
		return nil, ErrNATSURLRequired
	}

	conn := config.Conn
	ownConn := false

	if conn == nil {
		var err error

		conn, err = nats.Connect(config.URL, config.Options...)
		if err != nil {
			return nil, fmt.Errorf("connecting to NATS: %w", err)
		}

		ownConn = true
	}

	js, err := jetstream.New(conn)
	if err != nil {
		closeIfOwned(conn, ownConn)

		return nil, fmt.Errorf("creating JetStream context: %w", err)
	}

	bucket := config.Bucket
	if bucket == "" {
		bucket = constants.DefaultNATSBucket
	}

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:       bucket,
		Description:  "sonar-client response cache",
		TTL:          config.TTL,
		MaxValueSize: constants.MaxCacheValueSize,
	})
	if err != nil {
		closeIfOwned(conn, ownConn)

		return nil, fmt.Errorf("creating key-value bucket %s: %w", bucket, err)
	}

	return &NATSKVCache{conn: conn, ownConn: ownConn, kv: kv}, nil
}

func closeIfOwned(conn *nats.Conn, owned bool) {
	if owned {
		conn.Close()
	}
}

// natsKey maps a cache key onto the KV key alphabet. The area part before
// "|" stays readable so DeletePrefix can select it.
func natsKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	hash := hex.EncodeToString(sum[:])

	area, _, found := strings.Cut(key, "|")
	if !found {
		return "k." + hash
	}

	return natsKeyUnsafe.ReplaceAllString(area, "_") + "." + hash
}

// Get retrieves an entry.
func (c *NATSKVCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	kvEntry, err := c.kv.Get(ctx, natsKey(key))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, ErrCacheMiss
		}

		return nil, fmt.Errorf("reading cache entry: %w", err)
	}

	var entry CacheEntry

	err = json.Unmarshal(kvEntry.Value(), &entry)
	if err != nil {
		return nil, fmt.Errorf("decoding cache entry: %w", err)
	}

	if entry.Expired() {
		_ = c.kv.Delete(ctx, natsKey(key))

		return nil, ErrCacheEntryExpired
	}

	return &entry, nil
}

// Set stores an entry.
func (c *NATSKVCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}

	if len(data) > constants.MaxCacheValueSize {
		return fmt.Errorf("%w: %d bytes", ErrCacheValueTooLong, len(data))
	}

	_, err = c.kv.Put(ctx, natsKey(key), data)
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}

	return nil
}

// Delete removes an entry.
func (c *NATSKVCache) Delete(ctx context.Context, key string) error {
	err := c.kv.Delete(ctx, natsKey(key))
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("deleting cache entry: %w", err)
	}

	return nil
}

// DeletePrefix removes the entries of the area named by prefix ("area|").
// Prefixes without an area clear the bucket.
func (c *NATSKVCache) DeletePrefix(ctx context.Context, prefix string) error {
	area, _, found := strings.Cut(prefix, "|")
	if !found {
		return c.Clear(ctx)
	}

	return c.deleteMatching(ctx, natsKeyUnsafe.ReplaceAllString(area, "_")+".")
}

// Clear removes every entry in the bucket.
func (c *NATSKVCache) Clear(ctx context.Context) error {
	return c.deleteMatching(ctx, "")
}

func (c *NATSKVCache) deleteMatching(ctx context.Context, prefix string) error {
	keys, err := c.kv.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil
		}

		return fmt.Errorf("listing cache keys: %w", err)
	}

	for _, key := range keys {
		if !strings.HasPrefix(key, prefix) {
			continue
		}

		err = c.kv.Delete(ctx, key)
		if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
			return fmt.Errorf("deleting cache entry: %w", err)
		}
	}

	return nil
}

// Has reports whether a live entry exists.
func (c *NATSKVCache) Has(ctx context.Context, key string) bool {
	_, err := c.Get(ctx, key)

	return err == nil
}

// Close closes the connection when the cache opened it.
func (c *NATSKVCache) Close() {
	closeIfOwned(c.conn, c.ownConn)
}
