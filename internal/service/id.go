package service

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// IDGenerator produces task ids that are unique within a store.
type IDGenerator interface {
	NewID() string
}

// UUIDv7Generator issues time-sortable UUIDv7 ids, so insertion order and
// lexical order agree and two tasks created in the same millisecond never collide.
type UUIDv7Generator struct{}

func (UUIDv7Generator) NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// SequenceGenerator issues prefix-1, prefix-2, ... and is meant for tests and fixtures.
type SequenceGenerator struct {
	Prefix string

	mu   sync.Mutex
	next int
}

func (g *SequenceGenerator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	prefix := g.Prefix
	if prefix == "" {
		prefix = "task"
	}
	return fmt.Sprintf("%s-%d", prefix, g.next)
}
