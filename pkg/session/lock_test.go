package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager()
	ctx := context.Background()
	count := 10000

	for i := 0; i < count; i++ {
		id := fmt.Sprintf("story-%d", i)
		_ = mgr.WithLock(ctx, id, func(context.Context) error { return nil })
	}

	assert.Empty(t, mgr.locks, "lock entries must be released once unused")
}
