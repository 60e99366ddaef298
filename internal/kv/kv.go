// Package kv provides the key-value substrate the bookshelf persists into.
package kv

import "context"

// Store is a string-keyed, string-valued record store. Set overwrites.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
