package service

import (
	"context"
	"sync"
)

// StoreRegistry hands out one initialized TodoStore per namespace, so every
// chat owns an independent list backed by its own slice of the key space.
type StoreRegistry struct {
	open func(namespace string) KeyValueStore
	opts []Option

	mu     sync.Mutex
	stores map[string]*TodoStore
}

func NewStoreRegistry(open func(namespace string) KeyValueStore, opts ...Option) *StoreRegistry {
	return &StoreRegistry{
		open:   open,
		opts:   opts,
		stores: make(map[string]*TodoStore),
	}
}

// Get returns the store of namespace, loading it on first use. A store whose
// first load failed is not cached, so the next call retries.
func (r *StoreRegistry) Get(ctx context.Context, namespace string) (*TodoStore, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if store, ok := r.stores[namespace]; ok {
		return store, nil
	}
	store := NewTodoStore(r.open(namespace), r.opts...)
	if _, _, err := store.Initialize(ctx); err != nil {
		return nil, err
	}
	r.stores[namespace] = store
	return store, nil
}

// FlushAll writes pending renames of every loaded store and returns the first error.
func (r *StoreRegistry) FlushAll(ctx context.Context) error {
	r.mu.Lock()
	stores := make([]*TodoStore, 0, len(r.stores))
	for _, store := range r.stores {
		stores = append(stores, store)
	}
	r.mu.Unlock()

	var first error
	for _, store := range stores {
		if err := store.Flush(ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}
