package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	setNXResult bool
	setNXError  error
	lastKey     string
	lastTTL     time.Duration
	lastDeleted string
}

func (f *fakeStore) Get(context.Context, string) (string, error) {
	return "", nil
}

func (f *fakeStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	f.lastKey = key
	f.lastTTL = ttl
	return f.setNXResult, f.setNXError
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return "of:idempotency:" + scope + ":" + id
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	if len(keys) > 0 {
		f.lastDeleted = keys[0]
	}
	return nil
}

func TestCheckAndMarkProcessed_FirstTime(t *testing.T) {
	store := &fakeStore{setNXResult: true}
	manager, err := NewManager(store, 24*time.Hour)
	require.NoError(t, err)

	eventID := uuid.New()
	already, err := manager.CheckAndMarkProcessed(context.Background(), "order-analytics", eventID)
	require.NoError(t, err)
	require.False(t, already)
	require.Equal(t, "of:idempotency:evt:processed:order-analytics:"+eventID.String(), store.lastKey)
	require.Equal(t, 24*time.Hour, store.lastTTL)
}

func TestCheckAndMarkProcessed_Duplicate(t *testing.T) {
	manager, err := NewManager(&fakeStore{setNXResult: false}, time.Hour)
	require.NoError(t, err)

	already, err := manager.CheckAndMarkProcessed(context.Background(), "order-analytics", uuid.New())
	require.NoError(t, err)
	require.True(t, already)
}

func TestCheckAndMarkProcessed_Errors(t *testing.T) {
	manager, err := NewManager(&fakeStore{setNXError: errors.New("redis down")}, time.Hour)
	require.NoError(t, err)

	_, err = manager.CheckAndMarkProcessed(context.Background(), "order-analytics", uuid.New())
	require.Error(t, err)

	_, err = manager.CheckAndMarkProcessed(context.Background(), "", uuid.New())
	require.Error(t, err)

	_, err = manager.CheckAndMarkProcessed(context.Background(), "order-analytics", uuid.Nil)
	require.Error(t, err)
}

func TestDeleteReleasesKey(t *testing.T) {
	store := &fakeStore{setNXResult: true}
	manager, err := NewManager(store, time.Hour)
	require.NoError(t, err)

	eventID := uuid.New()
	require.NoError(t, manager.Delete(context.Background(), "order-analytics", eventID))
	require.Equal(t, "of:idempotency:evt:processed:order-analytics:"+eventID.String(), store.lastDeleted)
}

func TestNewManagerValidates(t *testing.T) {
	_, err := NewManager(nil, time.Hour)
	require.Error(t, err)
	_, err = NewManager(&fakeStore{}, -time.Second)
	require.Error(t, err)
}
