package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stagehand/internal/api"
	"stagehand/internal/units"
)

func TestAcquire(t *testing.T) {
	t.Run("unknown unit", func(t *testing.T) {
		o := newTestOrchestrator(t, Config{}, nil)
		_, err := o.Acquire(context.Background(), unitL)
		assert.True(t, api.IsUnknownUnit(err))
	})

	t.Run("dependencies are handed to the factory", func(t *testing.T) {
		q, l := newFake(unitQ, nil), newFake(unitL, nil)
		var got any
		l.check = func(deps units.Dependencies) { got = deps.Get(unitQ) }
		o := newTestOrchestrator(t, Config{}, nil, eager(unitQ, q), lazy(unitL, l, unitQ))
		require.NoError(t, o.Start(context.Background()))

		instance, err := o.Acquire(context.Background(), unitL)
		require.NoError(t, err)
		assert.Equal(t, "l-instance", instance)
		assert.Equal(t, "q-instance", got)
	})

	t.Run("lazy trigger before dependency is ready", func(t *testing.T) {
		q, l := newFake(unitQ, nil), newFake(unitL, nil)
		o := newTestOrchestrator(t, Config{}, nil, eager(unitQ, q), lazy(unitL, l, unitQ))

		_, err := o.Acquire(context.Background(), unitL)
		assert.True(t, api.IsDependencyNotReady(err))
		assertState(t, o, unitL, api.StateError)
		assert.Equal(t, 0, l.callCount())
	})

	t.Run("error state returns recorded error without re-running", func(t *testing.T) {
		l := newFake(unitL, nil)
		l.set(nil, errors.New("no disk"))
		o := newTestOrchestrator(t, Config{}, nil, lazy(unitL, l))

		_, err := o.Acquire(context.Background(), unitL)
		require.Error(t, err)
		_, err = o.Acquire(context.Background(), unitL)
		assert.ErrorContains(t, err, "no disk")
		assert.Equal(t, 1, l.callCount())
	})

	t.Run("pending eager unit is not started", func(t *testing.T) {
		q := newFake(unitQ, nil)
		o := newTestOrchestrator(t, Config{}, nil, eager(unitQ, q))

		_, err := o.Acquire(context.Background(), unitQ)
		assert.ErrorIs(t, err, api.ErrUnitNotReady)
		assert.Equal(t, 0, q.callCount())
		assertState(t, o, unitQ, api.StatePending)
	})

	t.Run("ready eager unit", func(t *testing.T) {
		q := newFake(unitQ, nil)
		o := newTestOrchestrator(t, Config{}, nil, eager(unitQ, q))
		require.NoError(t, o.Start(context.Background()))

		instance, err := o.Acquire(context.Background(), unitQ)
		require.NoError(t, err)
		assert.Equal(t, "q-instance", instance)
	})
}

func TestLazyFailureDoesNotAffectGlobalState(t *testing.T) {
	q, l := newFake(unitQ, nil), newFake(unitL, nil)
	l.set(nil, errors.New("broken"))
	o := newTestOrchestrator(t, Config{}, nil, eager(unitQ, q), lazy(unitL, l))
	require.NoError(t, o.Start(context.Background()))

	require.Error(t, o.Trigger(context.Background(), unitL))
	assert.Error(t, o.GetError(unitL))
	assert.Equal(t, api.GlobalReady, o.GlobalState())
}

func TestConcurrentAcquireRunsFactoryOnce(t *testing.T) {
	l := newFake(unitL, nil)
	l.release = make(chan struct{})
	l.started = make(chan struct{}, 1)
	o := newTestOrchestrator(t, Config{}, nil, lazy(unitL, l))

	const callers = 5
	var wg sync.WaitGroup
	results := make([]any, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = o.Acquire(context.Background(), unitL)
		}(i)
	}

	<-l.started
	assertState(t, o, unitL, api.StateLoading)
	close(l.release)
	wg.Wait()

	assert.Equal(t, 1, l.callCount())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "l-instance", results[i])
	}
}

func TestAcquireWaitHonoursContext(t *testing.T) {
	l := newFake(unitL, nil)
	l.release = make(chan struct{})
	l.started = make(chan struct{}, 1)
	o := newTestOrchestrator(t, Config{}, nil, lazy(unitL, l))

	go func() { _, _ = o.Acquire(context.Background(), unitL) }()
	<-l.started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := o.Acquire(ctx, unitL)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(l.release)
	assert.Eventually(t, func() bool { return o.IsReady(unitL) }, time.Second, 5*time.Millisecond)
}
