package props

// Registry is the backing key/value property registry. Implementations own
// the storage; Store layers typed access and default substitution on top.
type Registry interface {
	// Get returns the raw value for key. ok is false when the key is unset.
	Get(key string) (value string, ok bool, err error)
	// Set stores value under key.
	Set(key, value string) error
}
