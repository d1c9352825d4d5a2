package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stagehand/internal/api"
)

type token struct {
	user string
}

func newSessionOrchestrator(t *testing.T, session, files *fakeFactory) *Orchestrator {
	t.Helper()
	q := newFake(unitQ, nil)
	o := newTestOrchestrator(t, Config{SessionUnit: unitSession}, []api.UnitID{unitQ},
		lazy(unitSession, session),
		eager(unitQ, q),
		lazy(unitFiles, files, unitQ, unitSession),
	)
	require.NoError(t, o.Start(context.Background()))
	return o
}

func TestSetSessionWithoutSessionUnit(t *testing.T) {
	o := newTestOrchestrator(t, Config{}, nil)
	assert.True(t, api.IsUnknownUnit(o.SetSession(&token{user: "alice"})))

	o = newTestOrchestrator(t, Config{SessionUnit: unitSession}, nil)
	assert.True(t, api.IsUnknownUnit(o.SetSession(&token{user: "alice"})))
	assert.Nil(t, o.Session())
}

func TestSetSession(t *testing.T) {
	o := newSessionOrchestrator(t, newFake(unitSession, nil), newFake(unitFiles, nil))
	alice := &token{user: "alice"}

	require.NoError(t, o.SetSession(alice))
	assert.Same(t, alice, o.Session())
	assert.Same(t, alice, o.GetContext(unitSession), "value is stored verbatim")
	assert.True(t, o.IsReady(unitSession))

	files, err := o.Acquire(context.Background(), unitFiles)
	require.NoError(t, err)
	assert.Equal(t, "files-instance", files)
	assert.Equal(t, api.GlobalReady, o.GlobalState())
}

func TestSignOutResetsDependents(t *testing.T) {
	session, files := newFake(unitSession, nil), newFake(unitFiles, nil)
	o := newSessionOrchestrator(t, session, files)
	require.NoError(t, o.SetSession(&token{user: "alice"}))
	_, err := o.Acquire(context.Background(), unitFiles)
	require.NoError(t, err)

	require.NoError(t, o.SetSession(nil))

	assertState(t, o, unitSession, api.StatePending)
	assertState(t, o, unitFiles, api.StatePending)
	assert.Nil(t, o.Session())
	assert.Nil(t, o.GetContext(unitFiles))
	assertState(t, o, unitQ, api.StateReady)
	assert.Equal(t, api.GlobalReady, o.GlobalState(), "eager units are unaffected")
	assert.Equal(t, 0, session.callCount(), "sign-out does not run the session factory")

	// files is rebuilt for the next user
	require.NoError(t, o.SetSession(&token{user: "bob"}))
	_, err = o.Acquire(context.Background(), unitFiles)
	require.NoError(t, err)
	assert.Equal(t, 2, files.callCount())
}

func TestReplacingSessionKeepsDependentsReady(t *testing.T) {
	files := newFake(unitFiles, nil)
	o := newSessionOrchestrator(t, newFake(unitSession, nil), files)
	require.NoError(t, o.SetSession(&token{user: "alice"}))
	_, err := o.Acquire(context.Background(), unitFiles)
	require.NoError(t, err)
	events := o.Subscribe()

	refreshed := &token{user: "alice"}
	require.NoError(t, o.SetSession(refreshed))

	assert.Same(t, refreshed, o.Session())
	assert.Same(t, refreshed, o.GetContext(unitSession))
	assertState(t, o, unitFiles, api.StateReady)
	assert.Equal(t, "files-instance", o.GetContext(unitFiles))
	assert.Equal(t, 1, files.callCount())
	assert.Equal(t, api.GlobalReady, o.GlobalState())

	require.Len(t, events, 1, "only the session unit changes")
	ev := <-events
	assert.Equal(t, unitSession, ev.Unit)
	assert.Equal(t, api.StateReady, ev.OldState)
	assert.Equal(t, api.StateReady, ev.NewState)
}

func TestReplacingSessionKeepsEagerDependentReady(t *testing.T) {
	files := newFake(unitFiles, nil)
	o := newTestOrchestrator(t, Config{SessionUnit: unitSession}, nil,
		lazy(unitSession, newFake(unitSession, nil)),
		eager(unitFiles, files, unitSession),
	)
	require.NoError(t, o.SetSession(&token{user: "alice"}))
	require.NoError(t, o.Start(context.Background()))
	require.Equal(t, api.GlobalReady, o.GlobalState())

	require.NoError(t, o.SetSession(&token{user: "alice"}))

	assert.True(t, o.IsReady(unitFiles))
	assert.Equal(t, "files-instance", o.GetContext(unitFiles))
	assert.Equal(t, api.GlobalReady, o.GlobalState())
	assert.Equal(t, 1, files.callCount())
}

func TestSetSessionSupersedesLoadingAttempt(t *testing.T) {
	session := newFake(unitSession, nil)
	session.value = &token{user: "from-file"}
	session.release = make(chan struct{})
	session.started = make(chan struct{}, 1)
	o := newSessionOrchestrator(t, session, newFake(unitFiles, nil))

	type result struct {
		value any
		err   error
	}
	resCh := make(chan result, 1)
	go func() {
		v, err := o.Acquire(context.Background(), unitSession)
		resCh <- result{v, err}
	}()
	<-session.started

	user := &token{user: "from-user"}
	require.NoError(t, o.SetSession(user))
	close(session.release)

	res := <-resCh
	require.NoError(t, res.err)
	assert.Same(t, user, res.value)
	assert.Same(t, user, o.Session(), "late factory result is discarded")
}
