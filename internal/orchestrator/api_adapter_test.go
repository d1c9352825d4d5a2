package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stagehand/internal/api"
)

func TestAPIAdapterRegister(t *testing.T) {
	q, l := newFake(unitQ, nil), newFake(unitL, nil)
	o := newTestOrchestrator(t, Config{SessionUnit: unitSession}, nil,
		eager(unitQ, q), lazy(unitL, l, unitQ), lazy(unitSession, newFake(unitSession, nil)))

	NewAPIAdapter(o).Register()
	t.Cleanup(func() { api.RegisterConsumer(nil) })

	consumer := api.NewConsumerAPI()
	assert.Equal(t, api.GlobalPending, consumer.GlobalState())

	require.NoError(t, o.Start(context.Background()))
	assert.True(t, consumer.IsReady(unitQ))
	assert.Equal(t, "q-instance", consumer.GetContext(unitQ))
	assert.Nil(t, consumer.GetError(unitQ))
	assert.Equal(t, api.GlobalReady, consumer.Snapshot().Global)

	instance, err := consumer.Acquire(context.Background(), unitL)
	require.NoError(t, err)
	assert.Equal(t, "l-instance", instance)

	value, ok := api.ContextAs[string](consumer, unitL)
	require.True(t, ok)
	assert.Equal(t, "l-instance", value)

	require.NoError(t, consumer.SetSession("token"))
	assert.Equal(t, "token", o.Session())

	assert.NoError(t, consumer.RetryInitialization(context.Background(), unitL), "ready units need no retry")
	assert.NoError(t, consumer.RetryAll(context.Background()))

	events := consumer.Subscribe()
	require.NoError(t, o.Reset(unitL))
	ev := <-events
	assert.Equal(t, unitL, ev.Unit)
	assert.Equal(t, api.StatePending, ev.NewState)
}
