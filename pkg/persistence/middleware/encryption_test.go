package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"io"
	"strings"
	"testing"

	"github.com/aretw0/storyline/pkg/adapters/memory"
	"github.com/aretw0/storyline/pkg/persistence/middleware"
	"github.com/aretw0/storyline/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func encrypted(key []byte, fallback ...[]byte) middleware.Middleware {
	return middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    key,
		FallbackKeys: fallback,
	})
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	ports.RunMediumContract(t, encrypted(generateKey(t))(memory.NewMedium()))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewMedium()
	secure := encrypted(generateKey(t))(underlying)

	plain := `{"version":1,"storyId":"lighthouse","sceneId":"harbor"}`
	require.NoError(t, secure.SetItem(ctx, "storyline:checkpoint:lighthouse", plain))

	stored, found, err := underlying.GetItem(ctx, "storyline:checkpoint:lighthouse")
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, strings.HasPrefix(stored, middleware.EnvelopePrefix))
	assert.NotContains(t, stored, "harbor", "stored value must be opaque")

	loaded, found, err := secure.GetItem(ctx, "storyline:checkpoint:lighthouse")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, plain, loaded)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewMedium()
	oldKey, newKey := generateKey(t), generateKey(t)

	secureOld := encrypted(oldKey)(underlying)
	require.NoError(t, secureOld.SetItem(ctx, "k", "old-secret"))

	secureNew := encrypted(newKey, oldKey)(underlying)
	value, found, err := secureNew.GetItem(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "old-secret", value)

	require.NoError(t, secureNew.SetItem(ctx, "k", "new-secret"))

	_, _, err = secureOld.GetItem(ctx, "k")
	assert.ErrorIs(t, err, middleware.ErrDecrypt)
}

func TestEncryptionMiddleware_Plaintext(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewMedium()
	require.NoError(t, underlying.SetItem(ctx, "k", "legacy"))

	_, _, err := encrypted(generateKey(t))(underlying).GetItem(ctx, "k")
	assert.ErrorIs(t, err, middleware.ErrPlaintext)

	lenient := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:      generateKey(t),
		AllowPlaintext: true,
	})(underlying)
	value, found, err := lenient.GetItem(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "legacy", value)
}

func TestEncryptionMiddleware_PreservesListing(t *testing.T) {
	secure := middleware.Apply(memory.NewMedium(), encrypted(generateKey(t)))
	_, ok := secure.(ports.ListableMedium)
	assert.True(t, ok, "wrapping a listable medium stays listable")
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	assert.Panics(t, func() {
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	})
}

func TestParseKey(t *testing.T) {
	key := generateKey(t)

	got, err := middleware.ParseKey(hex.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, got)

	got, err = middleware.ParseKey(" " + base64.StdEncoding.EncodeToString(key) + "\n")
	require.NoError(t, err)
	assert.Equal(t, key, got)

	_, err = middleware.ParseKey("deadbeef")
	assert.Error(t, err)
}
