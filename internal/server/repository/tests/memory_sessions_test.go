package tests

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/IvanChernomyrdin/go-geoauth/internal/server/repository"
	serr "github.com/IvanChernomyrdin/go-geoauth/internal/shared/errors"
)

func TestMemorySessions_CreateGetDestroy(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemorySessions()

	require.NoError(t, store.Create(ctx, []byte("k"), alicePayload(), time.Now().Add(time.Hour)))

	p, err := store.Get(ctx, []byte("k"))
	require.NoError(t, err)
	require.Equal(t, alicePayload(), p)

	require.NoError(t, store.Destroy(ctx, []byte("k")))

	_, err = store.Get(ctx, []byte("k"))
	require.ErrorIs(t, err, serr.ErrNotFound)

	// повторное удаление — не ошибка
	require.NoError(t, store.Destroy(ctx, []byte("k")))
}

func TestMemorySessions_Expired(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store := repository.NewMemorySessionsWithClock(func() time.Time { return now })

	require.NoError(t, store.Create(ctx, []byte("old"), alicePayload(), now.Add(-time.Second)))
	require.NoError(t, store.Create(ctx, []byte("new"), alicePayload(), now.Add(time.Hour)))

	_, err := store.Get(ctx, []byte("old"))
	require.ErrorIs(t, err, serr.ErrNotFound)

	n, err := store.DeleteExpired(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
	require.Equal(t, 1, store.Len())
}

func TestMemorySessions_Concurrent(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemorySessions()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := []byte(fmt.Sprintf("k-%d", i))
			_ = store.Create(ctx, key, alicePayload(), time.Now().Add(time.Hour))
			_, _ = store.Get(ctx, key)
			_ = store.Destroy(ctx, key)
		}(i)
	}
	wg.Wait()

	require.Equal(t, 0, store.Len())
}
