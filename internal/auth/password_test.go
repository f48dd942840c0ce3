package auth

import (
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher(t *testing.T) {
	ctx := context.Background()
	hasher := NewPasswordHasher(bcrypt.MinCost)

	t.Run("salted hashes differ and both verify", func(t *testing.T) {
		first, err := hasher.Hash(ctx, "senha123456")
		require.NoError(t, err)
		second, err := hasher.Hash(ctx, "senha123456")
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
		assert.NotEqual(t, "senha123456", first)

		for _, hash := range []string{first, second} {
			ok, err := hasher.Verify(ctx, "senha123456", hash)
			require.NoError(t, err)
			assert.True(t, ok)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		hash, err := hasher.Hash(ctx, "senha123456")
		require.NoError(t, err)

		ok, err := hasher.Verify(ctx, "senha654321", hash)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("malformed hash is a mismatch", func(t *testing.T) {
		for _, hash := range []string{"", "plaintext", "$2a$99$abcdefghijklmnopqrstuv", "$9z$10$abcdefghijklmnopqrstuvwxyzabcdefghijklmnopqrstuvwxyz0"} {
			ok, err := hasher.Verify(ctx, "senha123456", hash)
			require.NoError(t, err)
			assert.False(t, ok, "hash %q", hash)
		}
	})

	t.Run("cancelled context while waiting for a slot", func(t *testing.T) {
		busy := NewPasswordHasher(bcrypt.MinCost)
		require.True(t, busy.slots.TryAcquire(int64(runtime.GOMAXPROCS(0))))
		require.False(t, busy.slots.TryAcquire(1))

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := busy.Verify(cancelled, "senha123456", "")
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("out of range cost falls back to default", func(t *testing.T) {
		assert.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(99).cost)
	})
}
