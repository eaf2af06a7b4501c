package service

import "context"

// Keys of the two persisted entries.
const (
	KeyTasks          = "tasks"
	KeyActiveCategory = "activeCategory"
)

// KeyValueStore is the durable persistence service TodoStore writes through.
// Get reports ok=false for an absent key; that is not an error.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
