package repository

import "context"

// KVStore is a string key-value store. A missing key is reported with
// ok=false, not an error.
type KVStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
