package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/app/commands"
	domainbooking "staybook/internal/domain/booking"
)

type recordingStore struct {
	items map[string]IdempotencyRecord
}

func newRecordingStore() *recordingStore {
	return &recordingStore{items: make(map[string]IdempotencyRecord)}
}

func (s *recordingStore) Get(ctx context.Context, key string) (IdempotencyRecord, bool, error) {
	rec, ok := s.items[key]
	return rec, ok, nil
}

func (s *recordingStore) Save(ctx context.Context, rec IdempotencyRecord) error {
	s.items[rec.Key] = rec
	return nil
}

type replayResult struct {
	Value string `json:"value"`
}

type replayCmd struct {
	idKey string
}

func (replayCmd) Key() string { return "test.replay" }

func (c replayCmd) IdempotencyKey() string { return c.idKey }

func (replayCmd) ResultPrototype() any { return &replayResult{} }

func replayBus(t *testing.T, store IdempotencyStore, handler func(context.Context) (any, error)) (commands.Bus, *int) {
	t.Helper()
	calls := 0
	base := commands.NewInMemoryBus()
	base.RegisterRaw(replayCmd{}.Key(), func(ctx context.Context, _ commands.Command) (any, error) {
		calls++
		return handler(ctx)
	})
	return ChainCommands(base, Idempotency(store, nil)), &calls
}

func TestIdempotencyReplaysFailureWithSentinel(t *testing.T) {
	bus, calls := replayBus(t, newRecordingStore(), func(context.Context) (any, error) {
		return nil, domainbooking.ErrDatesUnavailable
	})
	ctx := context.Background()
	cmd := replayCmd{idKey: "idem-1"}

	_, err := bus.Dispatch(ctx, cmd)
	assert.ErrorIs(t, err, domainbooking.ErrDatesUnavailable)

	// the replay must keep the sentinel identity, not flatten to a string
	_, err = bus.Dispatch(ctx, cmd)
	assert.ErrorIs(t, err, domainbooking.ErrDatesUnavailable)
	assert.Equal(t, 1, *calls, "second dispatch must be served from the store")
}

func TestIdempotencyReplaysUntaggedFailureAsMessage(t *testing.T) {
	bus, calls := replayBus(t, newRecordingStore(), func(context.Context) (any, error) {
		return nil, errors.New("listing service unreachable")
	})
	ctx := context.Background()
	cmd := replayCmd{idKey: "idem-1"}

	_, err := bus.Dispatch(ctx, cmd)
	require.Error(t, err)

	_, err = bus.Dispatch(ctx, cmd)
	require.EqualError(t, err, "listing service unreachable")
	assert.Equal(t, 1, *calls)
}

func TestIdempotencyReplaysSuccess(t *testing.T) {
	bus, calls := replayBus(t, newRecordingStore(), func(context.Context) (any, error) {
		return &replayResult{Value: "done"}, nil
	})
	ctx := context.Background()
	cmd := replayCmd{idKey: "idem-1"}

	first, err := bus.Dispatch(ctx, cmd)
	require.NoError(t, err)

	second, err := bus.Dispatch(ctx, cmd)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, *calls)
}

func TestIdempotencySkipsCommandsWithoutKey(t *testing.T) {
	bus, calls := replayBus(t, newRecordingStore(), func(context.Context) (any, error) {
		return &replayResult{Value: "done"}, nil
	})
	ctx := context.Background()

	_, err := bus.Dispatch(ctx, replayCmd{})
	require.NoError(t, err)
	_, err = bus.Dispatch(ctx, replayCmd{})
	require.NoError(t, err)
	assert.Equal(t, 2, *calls, "blank key disables caching")
}
