package cache

import (
	"context"
	"time"

	"github.com/hupe1980/flowkit/core"
)

// RemoteOptions configures construction of a RemoteBackend.
type RemoteOptions struct {
	// TTL is passed through to the store on writes. Zero means no expiry.
	TTL time.Duration

	// Prefix namespaces cache keys inside a shared store. Defaults to
	// "cache:".
	Prefix string
}

// RemoteBackend adapts a core.Store into a cache backend, letting several
// processes share one cache through Redis, SQLite, or any other store
// implementation. Values cross the store as encoded bytes; the codec
// defaults to JSON.
type RemoteBackend[O any] struct {
	store  core.Store
	codec  core.Codec[O]
	ttl    time.Duration
	prefix string
}

// NewRemoteBackend returns a backend persisting entries in store.
func NewRemoteBackend[O any](store core.Store, optFns ...func(o *RemoteOptions)) *RemoteBackend[O] {
	opts := RemoteOptions{Prefix: "cache:"}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &RemoteBackend[O]{
		store:  store,
		codec:  core.JSONCodec[O]{},
		ttl:    opts.TTL,
		prefix: opts.Prefix,
	}
}

// WithCodec replaces the value codec. Returns the receiver for chaining.
func (b *RemoteBackend[O]) WithCodec(codec core.Codec[O]) *RemoteBackend[O] {
	b.codec = codec
	return b
}

// Get fetches and decodes the entry for key. Entries that fail to decode
// are treated as misses so a codec change cannot poison reads.
func (b *RemoteBackend[O]) Get(ctx context.Context, key string) (O, bool, error) {
	var zero O

	data, ok, err := b.store.Get(ctx, b.prefix+key)
	if err != nil {
		return zero, false, &core.StoreUnavailableError{Op: "cache get", Err: err}
	}

	if !ok {
		return zero, false, nil
	}

	v, err := b.codec.Decode(data)
	if err != nil {
		return zero, false, nil
	}

	return v, true, nil
}

// Put encodes and stores value under key.
func (b *RemoteBackend[O]) Put(ctx context.Context, key string, value O) error {
	data, err := b.codec.Encode(value)
	if err != nil {
		return err
	}

	if err := b.store.Add(ctx, b.prefix+key, data, b.ttl); err != nil {
		return &core.StoreUnavailableError{Op: "cache put", Err: err}
	}

	return nil
}

// Delete removes the entry for key from the store.
func (b *RemoteBackend[O]) Delete(ctx context.Context, key string) error {
	if err := b.store.Delete(ctx, b.prefix+key); err != nil {
		return &core.StoreUnavailableError{Op: "cache delete", Err: err}
	}

	return nil
}
