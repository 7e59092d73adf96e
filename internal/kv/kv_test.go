package kv_test

import (
	"context"
	"testing"

	"github.com/pliu/newsportal/internal/kv"
	"github.com/pliu/newsportal/internal/kv/kvtest"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	kvtest.Run(t, kv.NewMemory())
}

func TestMemoryCopiesValues(t *testing.T) {
	m := kv.NewMemory()
	buf := []byte("abc")
	require.NoError(t, m.Set(context.Background(), "k", buf))
	buf[0] = 'z'

	got, err := m.Get(context.Background(), "k")
	require.NoError(t, err)
	require.Equal(t, "abc", string(got))
}
