package conversation

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleState() *ConversationState {
	state := NewConversationState("conv-1")
	state.AppendAssistant("hola")
	state.AppendUser("quiero una cita")
	state.Booking.Status = BookingStatusInProgress
	state.Booking.PetName = "Luna"
	state.RetryCount = 1
	return state
}

func TestMemoryStateStoreRoundTrip(t *testing.T) {
	store := NewMemoryStateStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleState()))

	loaded, err := store.Load(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "conv-1", loaded.ConversationID)
	assert.Len(t, loaded.History, 2)
	assert.Equal(t, "Luna", loaded.Booking.PetName)
	assert.Equal(t, 1, loaded.RetryCount)
}

func TestMemoryStateStoreNotFound(t *testing.T) {
	store := NewMemoryStateStore()

	_, err := store.Load(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestMemoryStateStoreReturnsCopies(t *testing.T) {
	store := NewMemoryStateStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, sampleState()))

	first, err := store.Load(ctx, "conv-1")
	require.NoError(t, err)
	first.Booking.PetName = "Max"

	second, err := store.Load(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "Luna", second.Booking.PetName,
		"mutating a loaded state must not affect the stored one")
}

func TestMemoryStateStoreDoesNotPersistPendingDestination(t *testing.T) {
	store := NewMemoryStateStore()
	ctx := context.Background()

	state := sampleState()
	state.PendingDestination = DestinationScheduleAppointment
	require.NoError(t, store.Save(ctx, state))

	loaded, err := store.Load(ctx, "conv-1")
	require.NoError(t, err)
	assert.Empty(t, loaded.PendingDestination)
}

func TestRedisStateStoreRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStateStore(client, nil)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleState()))

	loaded, err := store.Load(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "Luna", loaded.Booking.PetName)
	assert.Len(t, loaded.History, 2)
}

func TestRedisStateStoreNotFound(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStateStore(client, nil)

	_, err := store.Load(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestRedisStateStoreSetsTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStateStore(client, nil)

	require.NoError(t, store.Save(context.Background(), sampleState()))

	ttl := mr.TTL("conversation:state:conv-1")
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, 24*time.Hour)
}

func TestRedisStateStoreExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStateStore(client, nil)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleState()))
	mr.FastForward(25 * time.Hour)

	_, err := store.Load(ctx, "conv-1")
	assert.ErrorIs(t, err, ErrConversationNotFound)
}
