package props

import "sync"

// MemoryRegistry is an in-process Registry.
type MemoryRegistry struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryRegistry creates an empty MemoryRegistry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{data: make(map[string]string)}
}

func (r *MemoryRegistry) Get(key string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.data[key]
	return v, ok, nil
}

func (r *MemoryRegistry) Set(key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[key] = value
	return nil
}
