package order

import (
	"sync"

	"github.com/sabor-pos/api/internal/gateway"
)

// ExtrasClipboard holds the last copied extras selection per scope so a
// cashier can stamp the same add-ons onto another line. Scopes (one per
// edit session) keep concurrent sessions from seeing each other's copies.
// Injected explicitly; there is no process-wide clipboard.
type ExtrasClipboard struct {
	mu     sync.Mutex
	scopes map[string][]gateway.OrderItemExtraDraft
}

// NewExtrasClipboard returns an empty clipboard.
func NewExtrasClipboard() *ExtrasClipboard {
	return &ExtrasClipboard{scopes: make(map[string][]gateway.OrderItemExtraDraft)}
}

// Copy stores a snapshot of extras under the scope, replacing any previous
// copy.
func (c *ExtrasClipboard) Copy(scope string, extras []gateway.OrderItemExtraDraft) {
	snap := make([]gateway.OrderItemExtraDraft, len(extras))
	copy(snap, extras)
	c.mu.Lock()
	c.scopes[scope] = snap
	c.mu.Unlock()
}

// Paste returns a copy of the extras stored under the scope.
func (c *ExtrasClipboard) Paste(scope string) ([]gateway.OrderItemExtraDraft, bool) {
	c.mu.Lock()
	stored, ok := c.scopes[scope]
	c.mu.Unlock()
	if !ok {
		return nil, false
	}
	out := make([]gateway.OrderItemExtraDraft, len(stored))
	copy(out, stored)
	return out, true
}

// Clear drops the scope's copy. Called when the edit session ends.
func (c *ExtrasClipboard) Clear(scope string) {
	c.mu.Lock()
	delete(c.scopes, scope)
	c.mu.Unlock()
}
