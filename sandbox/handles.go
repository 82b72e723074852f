package sandbox

import (
	"sync"

	"github.com/google/uuid"
)

// Handles tracks temporary content staged for execution contexts.
// A leaked handle is a resource leak per invocation,
// so staging and release are strictly paired: every handle is released
// exactly once, on every exit path.
type Handles struct {
	mu     sync.Mutex
	staged map[string]*Handle
}

// NewHandles creates an empty handle registry.
func NewHandles() *Handles {
	return &Handles{staged: make(map[string]*Handle)}
}

// Stage registers content under a fresh handle.
func (r *Handles) Stage(content string) *Handle {
	h := &Handle{
		id:      uuid.NewString(),
		content: content,
		reg:     r,
	}
	r.mu.Lock()
	r.staged[h.id] = h
	r.mu.Unlock()
	return h
}

// Live returns the number of handles staged and not yet released.
func (r *Handles) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.staged)
}

// Handle is one staged piece of content, addressable by id until released.
type Handle struct {
	id      string
	content string
	reg     *Handles
	release sync.Once
}

// ID returns the handle's unique identifier.
func (h *Handle) ID() string { return h.id }

// Content returns the staged content.
func (h *Handle) Content() string { return h.content }

// Release removes the handle from its registry. Releasing more than once
// is a no-op.
func (h *Handle) Release() {
	h.release.Do(func() {
		h.reg.mu.Lock()
		delete(h.reg.staged, h.id)
		h.reg.mu.Unlock()
	})
}
