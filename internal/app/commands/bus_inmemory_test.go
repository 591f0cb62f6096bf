package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingCommand struct {
	id string
}

func (pingCommand) Key() string { return "test.ping" }

type pingHandler struct {
	calls int
}

func (h *pingHandler) Handle(ctx context.Context, cmd pingCommand) (string, error) {
	h.calls++
	return "pong:" + cmd.id, nil
}

func TestDispatchRoutesToRegisteredHandler(t *testing.T) {
	bus := NewInMemoryBus()
	handler := &pingHandler{}
	RegisterHandler(bus, pingCommand{}.Key(), handler)

	result, err := Dispatch[pingCommand, string](context.Background(), bus, pingCommand{id: "1"})
	require.NoError(t, err)
	assert.Equal(t, "pong:1", result)
	assert.Equal(t, 1, handler.calls)
}

func TestDispatchUnknownKey(t *testing.T) {
	bus := NewInMemoryBus()
	_, err := Dispatch[pingCommand, string](context.Background(), bus, pingCommand{})
	assert.ErrorIs(t, err, ErrHandlerNotFound)
	assert.ErrorContains(t, err, "test.ping")
}

func TestDispatchResultTypeMismatch(t *testing.T) {
	bus := NewInMemoryBus()
	RegisterHandler(bus, pingCommand{}.Key(), &pingHandler{})

	_, err := Dispatch[pingCommand, int](context.Background(), bus, pingCommand{})
	assert.ErrorIs(t, err, ErrResultType)
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	bus := NewInMemoryBus()
	RegisterHandler(bus, pingCommand{}.Key(), &pingHandler{})
	assert.Panics(t, func() {
		RegisterHandler(bus, pingCommand{}.Key(), &pingHandler{})
	})
}

func TestDispatchNilBus(t *testing.T) {
	_, err := Dispatch[pingCommand, string](context.Background(), nil, pingCommand{})
	assert.ErrorIs(t, err, ErrNilBus)
}
