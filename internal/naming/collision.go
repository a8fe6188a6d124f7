package naming

import (
	"sync"
)

// Namer hands out collision-free output paths. On top of the on-disk
// existence check it keeps a reservation table so two calls in the same
// process never receive the same path, even before either file is written.
// All methods are goroutine-safe.
type Namer struct {
	mu       sync.Mutex
	reserved map[string]struct{} // path → handed out, not yet released
}

// NewNamer creates a ready-to-use Namer.
func NewNamer() *Namer {
	return &Namer{reserved: make(map[string]struct{})}
}

// Next reserves and returns the first candidate for base in target's
// directory that neither exists on disk nor is reserved.
func (n *Namer) Next(target, base string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	p := firstFree(target, base, func(p string) bool {
		_, taken := n.reserved[p]
		return taken
	})
	n.reserved[p] = struct{}{}
	return p
}

// Release drops a reservation, typically after the file was written or the
// operation that wanted it failed.
func (n *Namer) Release(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.reserved, path)
}

// Reserved returns the number of outstanding reservations.
func (n *Namer) Reserved() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.reserved)
}
