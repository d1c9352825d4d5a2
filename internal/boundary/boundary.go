package boundary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"stagehand/internal/api"
	"stagehand/pkg/logging"
)

// DefaultPollInterval bounds how long a dropped event can delay the boundary.
const DefaultPollInterval = 500 * time.Millisecond

// ErrStartupFailed is returned by a non-interactive boundary when startup
// ends in the Error state.
var ErrStartupFailed = errors.New("startup failed")

// Consumer is the part of the consumer API the boundary reads.
type Consumer interface {
	GlobalState() api.GlobalState
	Snapshot() api.Snapshot
	Subscribe() <-chan api.StateChangedEvent
}

// RetryFunc re-runs initialization of every failed unit.
type RetryFunc func(ctx context.Context) error

// Options configures a Boundary.
type Options struct {
	// Out receives the rendered output. Defaults to io.Discard.
	Out io.Writer

	// Reader reads the chosen action. Without a reader the boundary is
	// non-interactive and returns ErrStartupFailed on failure.
	Reader LineReader

	// Indicator is shown while startup runs. Defaults to no indicator.
	Indicator Indicator

	Retry  RetryFunc
	Reload ReloadFunc

	// Tail, when set, supplies recent log lines for the failure screen.
	Tail *LogTail

	// PollInterval re-reads the global state in case an event was dropped.
	PollInterval time.Duration
}

// Boundary renders startup progress and failures and dispatches the
// recovery actions.
type Boundary struct {
	consumer  Consumer
	events    <-chan api.StateChangedEvent
	opts      Options
	renderer  *Renderer
	indicator Indicator
}

// New creates a boundary over consumer. It subscribes immediately so no
// transition between New and Run is missed.
func New(consumer Consumer, opts Options) *Boundary {
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	indicator := opts.Indicator
	if indicator == nil {
		indicator = noopIndicator{}
	}
	return &Boundary{
		consumer:  consumer,
		events:    consumer.Subscribe(),
		opts:      opts,
		renderer:  NewRenderer(),
		indicator: indicator,
	}
}

// Run blocks until startup succeeds, the user leaves the boundary, or ctx
// ends. It returns the last action taken.
func (b *Boundary) Run(ctx context.Context) (Action, error) {
	for {
		state, err := b.await(ctx)
		if err != nil {
			return ActionNone, err
		}

		snapshot := b.consumer.Snapshot()
		if state == api.GlobalReady {
			fmt.Fprint(b.opts.Out, b.renderer.Status(snapshot))
			return ActionNone, nil
		}

		message, err := b.renderer.Failure(snapshot)
		if err != nil {
			return ActionNone, err
		}
		fmt.Fprint(b.opts.Out, message)
		fmt.Fprint(b.opts.Out, b.renderer.Status(snapshot))
		if b.opts.Tail != nil {
			fmt.Fprint(b.opts.Out, b.renderer.RecentLog(b.opts.Tail.Lines()))
		}

		if b.opts.Reader == nil {
			return ActionNone, ErrStartupFailed
		}

		action, err := readAction(b.opts.Reader, b.opts.Out)
		if err != nil {
			return ActionNone, err
		}
		logging.Info("Boundary", "Action selected: %s", action)

		switch action {
		case ActionRetry:
			if b.opts.Retry == nil {
				fmt.Fprintln(b.opts.Out, "Retry is not available.")
				continue
			}
			if err := b.opts.Retry(ctx); err != nil {
				logging.Warn("Boundary", "Retry did not recover every unit: %v", err)
			}
		case ActionReload:
			if b.opts.Reload == nil {
				fmt.Fprintln(b.opts.Out, "Reload is not available.")
				continue
			}
			if err := b.opts.Reload(); err != nil {
				logging.Error("Boundary", err, "Reload failed")
				return ActionReload, err
			}
			return ActionReload, nil
		case ActionQuit:
			return ActionQuit, nil
		}
	}
}

// await shows the indicator until the global state settles in Ready or
// Error.
func (b *Boundary) await(ctx context.Context) (api.GlobalState, error) {
	state := b.consumer.GlobalState()
	if settled(state) {
		return state, nil
	}

	b.indicator.Start()
	defer b.indicator.Stop()

	ticker := time.NewTicker(b.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()

		case event, ok := <-b.events:
			if !ok {
				b.events = nil
				continue
			}
			if event.Kind == api.EventUnit && event.NewState == api.StateLoading {
				b.indicator.Update(fmt.Sprintf("Starting %s...", event.Unit))
			}

		case <-ticker.C:
		}

		if state := b.consumer.GlobalState(); settled(state) {
			return state, nil
		}
	}
}

func settled(state api.GlobalState) bool {
	return state == api.GlobalReady || state == api.GlobalError
}
