package save

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	store, err := NewRedisStore(context.Background(), "redis://"+mr.Addr(), quietLogger())
	if err != nil {
		t.Fatalf("Failed to create redis store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store, mr
}

// storeContract runs the behavior every Store must share.
func storeContract(t *testing.T, s Store) {
	ctx := context.Background()

	slots, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, slots)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Put(ctx, "slot-b", []byte(`{"version":1}`)))
	require.NoError(t, s.Put(ctx, "slot_a", []byte(`{"version":1,"fired":2}`)))
	require.NoError(t, s.Put(ctx, "slot-b", []byte(`{"version":1,"fired":3}`)))

	data, err := s.Get(ctx, "slot-b")
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1,"fired":3}`, string(data))

	slots, err = s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"slot-b", "slot_a"}, slots)

	for _, bad := range []string{"", "../escape", "a/b", "with space"} {
		assert.Error(t, s.Put(ctx, bad, nil), "slot %q", bad)
		_, err := s.Get(ctx, bad)
		assert.Error(t, err, "slot %q", bad)
	}
}

func TestFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "saves")
	storeContract(t, NewFileStore(dir, quietLogger()))

	_, err := os.Stat(filepath.Join(dir, "slot_a.json"))
	assert.NoError(t, err)
}

func TestFileStore_IgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.json"), 0o755))

	slots, err := NewFileStore(dir, quietLogger()).List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestRedisStore(t *testing.T) {
	store, mr := setupTestRedis(t)
	storeContract(t, store)

	assert.True(t, mr.Exists(DefaultKeyPrefix+"slot_a"))
}

func TestRedisStore_IgnoresOtherKeys(t *testing.T) {
	store, mr := setupTestRedis(t)
	require.NoError(t, mr.Set("unrelated", "x"))

	slots, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestRedisStore_TTL(t *testing.T) {
	store, mr := setupTestRedis(t)
	store.WithTTL(time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "temp", []byte(`{}`)))
	mr.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, "temp")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_ConnectFailure(t *testing.T) {
	_, err := NewRedisStore(context.Background(), "not-a-url", quietLogger())
	assert.Error(t, err)
}

func TestRedisStore_FromClient(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStoreFromClient(client, nil)
	defer store.Close()

	require.NoError(t, store.Put(context.Background(), "s1", []byte("data")))
	got, err := mr.Get(DefaultKeyPrefix + "s1")
	require.NoError(t, err)
	assert.Equal(t, "data", got)
}
