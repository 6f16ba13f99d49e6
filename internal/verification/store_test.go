package verification

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) (*CodeStore, *miniredis.Miniredis) {
	t.Helper()

	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)

	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() {
		require.NoError(t, rdb.Close())
	})

	return NewCodeStore(rdb, 10*time.Minute), s
}

func TestCodeStore_IssueAndVerify(t *testing.T) {
	store, s := setupStore(t)
	ctx := context.Background()

	code, err := store.IssueCode(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Len(t, code, 6)

	stored, err := s.Get(CodeKey("alice@example.com"))
	require.NoError(t, err)
	require.Equal(t, code, stored)

	require.NoError(t, store.VerifyCode(ctx, "alice@example.com", code))

	// The code is consumed and a verified marker takes its place.
	require.False(t, s.Exists(CodeKey("alice@example.com")))
	require.True(t, s.Exists(VerifiedKey("alice@example.com")))

	verified, err := store.IsVerified(ctx, "alice@example.com")
	require.NoError(t, err)
	require.True(t, verified)
}

func TestCodeStore_VerifyMismatch(t *testing.T) {
	store, s := setupStore(t)
	ctx := context.Background()

	_, err := store.IssueCode(ctx, "alice@example.com")
	require.NoError(t, err)

	err = store.VerifyCode(ctx, "alice@example.com", "000000")
	require.ErrorIs(t, err, ErrCodeMismatch)

	// A mismatch does not consume the pending code.
	require.True(t, s.Exists(CodeKey("alice@example.com")))
	require.False(t, s.Exists(VerifiedKey("alice@example.com")))
}

func TestCodeStore_VerifyExpired(t *testing.T) {
	store, s := setupStore(t)
	ctx := context.Background()

	err := store.VerifyCode(ctx, "alice@example.com", "123456")
	require.ErrorIs(t, err, ErrCodeExpired)

	_, err = store.IssueCode(ctx, "alice@example.com")
	require.NoError(t, err)

	s.FastForward(11 * time.Minute)

	err = store.VerifyCode(ctx, "alice@example.com", "123456")
	require.ErrorIs(t, err, ErrCodeExpired)
}

func TestCodeStore_ReissueOverwrites(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	first, err := store.IssueCode(ctx, "alice@example.com")
	require.NoError(t, err)

	second, err := store.IssueCode(ctx, "alice@example.com")
	require.NoError(t, err)

	if first != second {
		err = store.VerifyCode(ctx, "alice@example.com", first)
		require.ErrorIs(t, err, ErrCodeMismatch)
	}

	require.NoError(t, store.VerifyCode(ctx, "alice@example.com", second))
}

func TestCodeStore_ClearVerified(t *testing.T) {
	store, s := setupStore(t)
	ctx := context.Background()

	code, err := store.IssueCode(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NoError(t, store.VerifyCode(ctx, "alice@example.com", code))

	require.NoError(t, store.ClearVerified(ctx, "alice@example.com"))
	require.False(t, s.Exists(VerifiedKey("alice@example.com")))

	verified, err := store.IsVerified(ctx, "alice@example.com")
	require.NoError(t, err)
	require.False(t, verified)
}
