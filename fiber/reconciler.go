// Package fiber is an incremental tree reconciler. Components describe a UI
// tree as element descriptors; the reconciler diffs each new description
// against the committed fiber tree and applies the minimal set of mutations
// through a host.Adapter.
package fiber

import (
	"errors"
	"time"

	"github.com/delaneyj/fibertree/host"
	"go.uber.org/zap"
)

// OnErrorFunc receives errors recovered from user callbacks. from is the
// fiber whose callback failed; it may be nil for root level callbacks.
type OnErrorFunc func(from *Fiber, err error)

// CommitStats summarizes one commit.
type CommitStats struct {
	Root       string
	Placements int
	Updates    int
	Deletions  int
	Lifecycles int
	Duration   time.Duration
}

type Option func(*Reconciler)

func WithLogger(logger *zap.Logger) Option {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithOnError(onError OnErrorFunc) Option {
	return func(r *Reconciler) {
		r.onError = onError
	}
}

// WithCommitHook registers fn to be called after every commit.
func WithCommitHook(fn func(CommitStats)) Option {
	return func(r *Reconciler) {
		r.commitHook = fn
	}
}

// Reconciler owns every root mounted through it along with the scheduler
// state shared between them. It is not safe for concurrent use.
type Reconciler struct {
	host       host.Adapter
	logger     *zap.Logger
	onError    OnErrorFunc
	commitHook func(CommitStats)

	roots  map[host.Node]*Root
	nodes  map[host.Node]*hostRecord
	events *EventRegistry

	syncQueue []*Root
	flushing  bool
	context   executionContext
}

// hostRecord links a host node created by the reconciler back to its fiber
// and the props that were last committed to it.
type hostRecord struct {
	fiber *Fiber
	props Props
}

func New(adapter host.Adapter, opts ...Option) (*Reconciler, error) {
	if adapter == nil {
		return nil, ErrNilHost
	}

	r := &Reconciler{
		host:   adapter,
		logger: zap.NewNop(),
		roots:  map[host.Node]*Root{},
		nodes:  map[host.Node]*hostRecord{},
		events: newEventRegistry(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// FiberForNode returns the fiber that owns a host node created by this
// reconciler, or nil.
func (r *Reconciler) FiberForNode(n host.Node) *Fiber {
	if rec, ok := r.nodes[n]; ok {
		return rec.fiber
	}
	return nil
}

func (r *Reconciler) reportError(from *Fiber, err error) {
	fields := []zap.Field{zap.Error(err)}
	if from != nil {
		fields = append(fields, zap.String("component", from.name()))
		if root := rootOf(from); root != nil {
			fields = append(fields, zap.Stringer("root", root.id))
		}
	}
	var le *LifecycleError
	if errors.As(err, &le) {
		fields = append(fields, zap.String("phase", le.Phase))
	}
	r.logger.Error("recovered callback panic", fields...)

	if r.onError != nil {
		r.onError(from, err)
	}
}

// guard runs fn, converting a panic into a *LifecycleError that is logged
// and reported. It reports whether fn completed.
func (r *Reconciler) guard(phase string, f *Fiber, fn func()) (ok bool) {
	defer func() {
		if v := recover(); v != nil {
			name := ""
			if f != nil {
				name = f.name()
			}
			r.reportError(f, &LifecycleError{Phase: phase, Component: name, Cause: panicToError(v)})
			ok = false
		}
	}()
	fn()
	return true
}
