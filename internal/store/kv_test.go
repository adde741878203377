package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryKV_SetGetDel(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "k1", "v1", time.Hour))

	got, err := kv.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "v1", got)

	require.NoError(t, kv.Del(ctx, "k1"))
	_, err = kv.Get(ctx, "k1")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryKV_Expiry(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "k1", "v1", time.Nanosecond))
	time.Sleep(time.Millisecond)

	_, err := kv.Get(ctx, "k1")
	assert.ErrorIs(t, err, ErrMiss)
}

// 作为 Redis 回退时多个 HTTP 请求并发读写；-race 下必须干净
func TestMemoryKV_ConcurrentAccess(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("session:%d-%d", worker, j)
				require.NoError(t, kv.Set(ctx, key, "payload", time.Millisecond))
				_, _ = kv.Get(ctx, key)
				require.NoError(t, kv.Del(ctx, key))
			}
		}(i)
	}
	wg.Wait()
}
