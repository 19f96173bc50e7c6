package pool

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kimun-go/vaultcore/pkg/store"
	"github.com/kimun-go/vaultcore/pkg/vaulterr"
)

func openTestPool(t *testing.T, size int) *Pool {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "index.db")
	p, err := Open(context.Background(), dbPath, size)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestSubmitRunsJobAndReturnsResult(t *testing.T) {
	p := openTestPool(t, 2)

	v, err := p.Submit(context.Background(), func(ctx context.Context, s *store.Store) (any, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestSubmitPropagatesJobError(t *testing.T) {
	p := openTestPool(t, 1)
	boom := errors.New("boom")

	_, err := p.Submit(context.Background(), func(ctx context.Context, s *store.Store) (any, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestSubmitAfterCloseReturnsPoolClosed(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "index.db")
	p, err := Open(context.Background(), dbPath, 1)
	require.NoError(t, err)
	require.NoError(t, p.Close())

	_, err = p.Submit(context.Background(), func(ctx context.Context, s *store.Store) (any, error) {
		return nil, nil
	})
	assert.ErrorIs(t, err, vaulterr.ErrPoolClosed)
}

func TestSubmitHonorsContextCancellation(t *testing.T) {
	p := openTestPool(t, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Submit(ctx, func(ctx context.Context, s *store.Store) (any, error) {
		return nil, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPoolDistributesAcrossWorkers(t *testing.T) {
	p := openTestPool(t, 4)

	var calls int64
	for i := 0; i < 16; i++ {
		_, err := p.Submit(context.Background(), func(ctx context.Context, s *store.Store) (any, error) {
			atomic.AddInt64(&calls, 1)
			return nil, nil
		})
		require.NoError(t, err)
	}
	assert.EqualValues(t, 16, atomic.LoadInt64(&calls))
}
