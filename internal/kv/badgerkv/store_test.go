package badgerkv

import (
	"context"
	"testing"

	"github.com/pliu/newsportal/internal/kv/kvtest"
	"github.com/stretchr/testify/require"
)

func TestBadgerStore(t *testing.T) {
	req := require.New(t)
	s, err := Open(t.TempDir())
	req.NoError(err)
	defer s.Close()

	kvtest.Run(t, s)
}

func TestBadgerStoreSurvivesReopen(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(dir)
	req.NoError(err)
	req.NoError(s.Set(ctx, "user", []byte(`{"id":"1","name":"ann"}`)))
	req.NoError(s.Close())

	s, err = Open(dir)
	req.NoError(err)
	defer s.Close()

	got, err := s.Get(ctx, "user")
	req.NoError(err)
	req.JSONEq(`{"id":"1","name":"ann"}`, string(got))
}
