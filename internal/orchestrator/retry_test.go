package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stagehand/internal/api"
)

func TestRetryInitialization(t *testing.T) {
	t.Run("unknown unit", func(t *testing.T) {
		o := newTestOrchestrator(t, Config{}, nil)
		assert.True(t, api.IsUnknownUnit(o.RetryInitialization(context.Background(), unitQ)))
	})

	t.Run("pending unit is not retryable", func(t *testing.T) {
		q := newFake(unitQ, nil)
		o := newTestOrchestrator(t, Config{}, nil, eager(unitQ, q))

		err := o.RetryInitialization(context.Background(), unitQ)
		assert.ErrorIs(t, err, api.ErrNotRetryable)
		assert.Equal(t, 0, q.callCount())
	})

	t.Run("ready unit is a no-op", func(t *testing.T) {
		q := newFake(unitQ, nil)
		o := newTestOrchestrator(t, Config{}, nil, eager(unitQ, q))
		require.NoError(t, o.Start(context.Background()))

		require.NoError(t, o.RetryInitialization(context.Background(), unitQ))
		assert.Equal(t, 1, q.callCount())
	})

	t.Run("loading unit is not retryable", func(t *testing.T) {
		l := newFake(unitL, nil)
		l.release = make(chan struct{})
		l.started = make(chan struct{}, 1)
		o := newTestOrchestrator(t, Config{}, nil, lazy(unitL, l))
		done := make(chan struct{})
		go func() {
			defer close(done)
			_ = o.Trigger(context.Background(), unitL)
		}()
		<-l.started

		assert.ErrorIs(t, o.RetryInitialization(context.Background(), unitL), api.ErrNotRetryable)
		close(l.release)
		<-done
	})

	t.Run("failed unit recovers", func(t *testing.T) {
		q := newFake(unitQ, nil)
		q.set(nil, errors.New("boom"))
		o := newTestOrchestrator(t, Config{}, nil, eager(unitQ, q))
		require.Error(t, o.Start(context.Background()))

		q.set("fixed", nil)
		require.NoError(t, o.RetryInitialization(context.Background(), unitQ))
		assert.Equal(t, "fixed", o.GetContext(unitQ))
		assert.Nil(t, o.GetError(unitQ))
		assert.Equal(t, api.GlobalReady, o.GlobalState())
	})

	t.Run("dependencies are re-validated", func(t *testing.T) {
		l, a := newFake(unitL, nil), newFake(unitA, nil)
		o := newTestOrchestrator(t, Config{}, nil, lazy(unitL, l), eager(unitA, a, unitL))
		require.Error(t, o.Start(context.Background()))

		err := o.RetryInitialization(context.Background(), unitA)
		assert.True(t, api.IsDependencyNotReady(err))
		assertState(t, o, unitA, api.StateError)

		require.NoError(t, o.Trigger(context.Background(), unitL))
		require.NoError(t, o.RetryInitialization(context.Background(), unitA))
		assertState(t, o, unitA, api.StateReady)
		assert.Equal(t, api.GlobalReady, o.GlobalState())
	})

	t.Run("retry does not touch other units", func(t *testing.T) {
		q, l := newFake(unitQ, nil), newFake(unitL, nil)
		l.set(nil, errors.New("broken"))
		o := newTestOrchestrator(t, Config{}, nil, eager(unitQ, q), lazy(unitL, l))
		require.NoError(t, o.Start(context.Background()))
		require.Error(t, o.Trigger(context.Background(), unitL))

		before, err := o.Status(unitQ)
		require.NoError(t, err)
		require.Error(t, o.RetryInitialization(context.Background(), unitL))
		after, err := o.Status(unitQ)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})
}

func TestRetryAll(t *testing.T) {
	t.Run("nothing to retry", func(t *testing.T) {
		o := newTestOrchestrator(t, Config{}, nil, eager(unitQ, newFake(unitQ, nil)))
		assert.NoError(t, o.RetryAll(context.Background()))
	})

	t.Run("failures are independent", func(t *testing.T) {
		l, f := newFake(unitL, nil), newFake(unitFiles, nil)
		l.set(nil, errors.New("l broken"))
		f.set(nil, errors.New("files broken"))
		o := newTestOrchestrator(t, Config{}, nil, lazy(unitL, l), lazy(unitFiles, f))
		require.Error(t, o.Trigger(context.Background(), unitL))
		require.Error(t, o.Trigger(context.Background(), unitFiles))

		l.set("l-instance", nil)
		err := o.RetryAll(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "files broken")
		assert.NotContains(t, err.Error(), "l broken")

		assertState(t, o, unitL, api.StateReady)
		assertState(t, o, unitFiles, api.StateError)
	})

	t.Run("dependencies are retried before dependents", func(t *testing.T) {
		log := &callLog{}
		l, a := newFake(unitL, log), newFake(unitA, log)
		l.set(nil, errors.New("first try"))
		o := newTestOrchestrator(t, Config{}, nil, eager(unitA, a, unitL), lazy(unitL, l))
		require.Error(t, o.Trigger(context.Background(), unitL))
		require.Error(t, o.Start(context.Background()))

		l.set("l-instance", nil)
		require.NoError(t, o.RetryAll(context.Background()))
		assertState(t, o, unitL, api.StateReady)
		assertState(t, o, unitA, api.StateReady)
		assert.Equal(t, []api.UnitID{unitL, unitL, unitA}, log.list())
	})
}
