package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pseng/MyH5P-pages/pkg/adapters/redis"
	"github.com/pseng/MyH5P-pages/pkg/domain"
	"github.com/pseng/MyH5P-pages/pkg/ports"
	"github.com/pseng/MyH5P-pages/pkg/session"
)

type counter struct {
	n int
}

func TestManager_Locking(t *testing.T) {
	manager := session.NewManager[*counter]()
	ctx := context.Background()
	id := manager.Add(&counter{})

	var wg sync.WaitGroup
	concurrentWrites := 20

	// Read-modify-write with a yield in between loses updates unless access is serialized.
	for i := 0; i < concurrentWrites; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := manager.Do(ctx, id, func(_ context.Context, c *counter) error {
				v := c.n
				time.Sleep(time.Millisecond)
				c.n = v + 1
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	c, err := manager.Get(id)
	require.NoError(t, err)
	assert.Equal(t, concurrentWrites, c.n)
}

func TestManager_NotFound(t *testing.T) {
	manager := session.NewManager[string]()
	ctx := context.Background()

	_, err := manager.Get("missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	err = manager.Do(ctx, "missing", func(context.Context, string) error { return nil })
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	assert.ErrorIs(t, manager.Delete(ctx, "missing"), domain.ErrSessionNotFound)
}

func TestManager_AddListDelete(t *testing.T) {
	ids := []string{"b", "a"}
	manager := session.NewManager[string](session.WithIDGenerator[string](func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}))
	ctx := context.Background()

	assert.Equal(t, "b", manager.Add("first"))
	assert.Equal(t, "a", manager.Add("second"))
	assert.Equal(t, []string{"a", "b"}, manager.List())
	assert.Equal(t, 2, manager.Len())

	require.NoError(t, manager.Delete(ctx, "a"))
	assert.Equal(t, []string{"b"}, manager.List())
}

func TestManager_FnErrorPropagates(t *testing.T) {
	manager := session.NewManager[int]()
	id := manager.Add(1)
	boom := errors.New("boom")

	err := manager.Do(context.Background(), id, func(context.Context, int) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestManager_Sweep(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	var evicted []string
	manager := session.NewManager[string](
		session.WithClock[string](func() time.Time { return now }),
		session.WithIdleTimeout[string](10*time.Minute),
		session.WithEvictHook[string](func(id string, _ string) { evicted = append(evicted, id) }),
	)
	ctx := context.Background()

	manager.Put("old", "x")
	now = now.Add(5 * time.Minute)
	manager.Put("fresh", "y")
	now = now.Add(6 * time.Minute)

	// Touching a session keeps it alive.
	require.NoError(t, manager.Do(ctx, "fresh", func(context.Context, string) error { return nil }))

	assert.Equal(t, 1, manager.Sweep())
	assert.Equal(t, []string{"old"}, evicted)
	assert.Equal(t, []string{"fresh"}, manager.List())
}

func TestManager_SweepWithoutTimeout(t *testing.T) {
	manager := session.NewManager[int]()
	manager.Put("a", 1)
	assert.Equal(t, 0, manager.Sweep())
	assert.Equal(t, 1, manager.Len())
}

type recordingLocker struct {
	mu   sync.Mutex
	keys []string
}

func (l *recordingLocker) Lock(_ context.Context, key string, _ time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	l.keys = append(l.keys, key)
	l.mu.Unlock()
	return func(context.Context) error { return errors.New("already expired") }, nil
}

func TestManager_DistributedLockKeys(t *testing.T) {
	locker := &recordingLocker{}
	manager := session.NewManager[int](
		session.WithLocker[int](locker),
		session.WithKeySpace[int]("learner:"),
	)
	manager.Put("s1", 1)

	// A failing unlock is logged, not returned.
	err := manager.Do(context.Background(), "s1", func(context.Context, int) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, []string{"learner:s1"}, locker.keys)
}

func TestManager_RedisLocker(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})

	manager := session.NewManager[*counter](
		session.WithLocker[*counter](redis.NewLocker(client, "learnpath:")),
		session.WithKeySpace[*counter]("editor:"),
	)
	id := manager.Add(&counter{})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, manager.Do(context.Background(), id, func(_ context.Context, c *counter) error {
				c.n++
				return nil
			}))
		}()
	}
	wg.Wait()

	c, err := manager.Get(id)
	require.NoError(t, err)
	assert.Equal(t, 5, c.n)
	assert.False(t, mr.Exists("learnpath:lock:editor:"+id), "lock released")
}
