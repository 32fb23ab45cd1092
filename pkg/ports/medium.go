package ports

import "context"

// Medium is the key/value backend behind the checkpoint store.
// An absent key is reported as found=false, never as an error.
type Medium interface {
	// GetItem returns the value stored under key.
	GetItem(ctx context.Context, key string) (value string, found bool, err error)

	// SetItem stores value under key, replacing any previous value.
	SetItem(ctx context.Context, key, value string) error

	// RemoveItem deletes key. Removing an absent key is not an error.
	RemoveItem(ctx context.Context, key string) error
}

// ListableMedium is a Medium that can enumerate stored keys.
type ListableMedium interface {
	Medium

	// Keys returns every stored key starting with prefix, sorted.
	Keys(ctx context.Context, prefix string) ([]string, error)
}
