package docset

import (
	"slices"
	"sync"
)

// Overlay holds in-memory file contents that shadow the docset on disk, such
// as unsaved editor buffers. It is safe for concurrent use.
type Overlay struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewOverlay returns an empty overlay.
func NewOverlay() *Overlay {
	return &Overlay{files: make(map[string][]byte)}
}

// Set stores content for a docset-relative path.
func (o *Overlay) Set(p string, content []byte) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.files[NormalizePath(p)] = slices.Clone(content)
}

// Delete removes a path from the overlay.
func (o *Overlay) Delete(p string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.files, NormalizePath(p))
}

// Get returns the overlay content for p.
func (o *Overlay) Get(p string) ([]byte, bool) {
	if o == nil {
		return nil, false
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	content, ok := o.files[NormalizePath(p)]
	return content, ok
}

// Paths returns the sorted overlay paths.
func (o *Overlay) Paths() []string {
	if o == nil {
		return nil
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]string, 0, len(o.files))
	for p := range o.files {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}
