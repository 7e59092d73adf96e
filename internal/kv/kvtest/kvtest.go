// Package kvtest holds the behaviour every kv.Store backend must share.
package kvtest

import (
	"context"
	"testing"

	"github.com/pliu/newsportal/internal/kv"
	"github.com/stretchr/testify/require"
)

// Run exercises s against the kv.Store contract. s must start empty.
func Run(t *testing.T, s kv.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		_, err := s.Get(ctx, "absent")
		require.ErrorIs(t, err, kv.ErrNotFound)
	})

	t.Run("set get overwrite", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "user", []byte(`{"id":"1"}`)))
		got, err := s.Get(ctx, "user")
		require.NoError(t, err)
		require.JSONEq(t, `{"id":"1"}`, string(got))

		require.NoError(t, s.Set(ctx, "user", []byte(`{"id":"2"}`)))
		got, err = s.Get(ctx, "user")
		require.NoError(t, err)
		require.JSONEq(t, `{"id":"2"}`, string(got))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "gone", []byte("x")))
		require.NoError(t, s.Delete(ctx, "gone"))
		_, err := s.Get(ctx, "gone")
		require.ErrorIs(t, err, kv.ErrNotFound)

		// deleting twice is fine
		require.NoError(t, s.Delete(ctx, "gone"))
	})

	t.Run("prefix isolation", func(t *testing.T) {
		a := kv.WithPrefix(s, "profile:a:")
		b := kv.WithPrefix(s, "profile:b:")
		require.NoError(t, a.Set(ctx, "chatMessages", []byte("[1]")))

		_, err := b.Get(ctx, "chatMessages")
		require.ErrorIs(t, err, kv.ErrNotFound)

		raw, err := s.Get(ctx, "profile:a:chatMessages")
		require.NoError(t, err)
		require.Equal(t, "[1]", string(raw))
	})
}
