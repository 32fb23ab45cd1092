package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunMediumContract runs a suite of tests to verify that a Medium implementation
// adheres to the defined interface contract. If the medium also implements
// ListableMedium, key enumeration is verified too.
func RunMediumContract(t *testing.T, medium Medium) {
	ctx := context.Background()
	key := "contract:" + time.Now().Format("20060102150405")

	t.Run("Set and Get", func(t *testing.T) {
		require.NoError(t, medium.SetItem(ctx, key, `{"hello":"world"}`))

		value, found, err := medium.GetItem(ctx, key)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, `{"hello":"world"}`, value)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, medium.SetItem(ctx, key, "first"))
		require.NoError(t, medium.SetItem(ctx, key, "second"))

		value, found, err := medium.GetItem(ctx, key)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "second", value)
	})

	t.Run("Get Absent", func(t *testing.T) {
		value, found, err := medium.GetItem(ctx, key+":absent")
		require.NoError(t, err, "absent keys are not errors")
		assert.False(t, found)
		assert.Empty(t, value)
	})

	t.Run("Remove", func(t *testing.T) {
		require.NoError(t, medium.SetItem(ctx, key, "doomed"))
		require.NoError(t, medium.RemoveItem(ctx, key))

		_, found, err := medium.GetItem(ctx, key)
		require.NoError(t, err)
		assert.False(t, found, "GetItem after RemoveItem should report absent")

		assert.NoError(t, medium.RemoveItem(ctx, key), "removing twice is allowed")
	})

	listable, ok := medium.(ListableMedium)
	if !ok {
		return
	}

	t.Run("Keys", func(t *testing.T) {
		prefix := key + ":list:"
		require.NoError(t, medium.SetItem(ctx, prefix+"b", "2"))
		require.NoError(t, medium.SetItem(ctx, prefix+"a", "1"))
		require.NoError(t, medium.SetItem(ctx, key+":other", "x"))
		defer func() {
			_ = medium.RemoveItem(ctx, prefix+"a")
			_ = medium.RemoveItem(ctx, prefix+"b")
			_ = medium.RemoveItem(ctx, key+":other")
		}()

		keys, err := listable.Keys(ctx, prefix)
		require.NoError(t, err)
		assert.Equal(t, []string{prefix + "a", prefix + "b"}, keys)

		require.NoError(t, medium.RemoveItem(ctx, prefix+"a"))
		keys, err = listable.Keys(ctx, prefix)
		require.NoError(t, err)
		assert.Equal(t, []string{prefix + "b"}, keys)
	})

	t.Run("Keys No Match", func(t *testing.T) {
		keys, err := listable.Keys(ctx, key+":nothing-here:")
		require.NoError(t, err)
		assert.Empty(t, keys)
	})
}
