// Package backfill enumerates every album and artist known to the host
// library and drives the ones without a cache record through the resolution
// engine, one at a time. It is meant for the initial population of the
// artwork cache and tolerates being cancelled at any point.
package backfill

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/vankolev/coverd/src/artcache"
	"github.com/vankolev/coverd/src/fetch"
	"github.com/vankolev/coverd/src/library"
	"github.com/vankolev/coverd/src/queue"
)

// ErrAlreadyRunning is returned by Start while a previous run is still
// going.
var ErrAlreadyRunning = errors.New("a backfill run is already in progress")

// progressEvery controls how often a Progress update is emitted while
// draining. Skipped items drain very fast and reporting each of them would
// be all overhead.
const progressEvery = 10

// State is the phase a backfill run is in.
type State int

const (
	// StateIdle means no run was started yet.
	StateIdle State = iota

	// StateEnumerating means the work queue is being built from the host
	// library.
	StateEnumerating

	// StateDraining means items are being resolved one at a time.
	StateDraining

	// StateFinished means the last run drained its whole queue.
	StateFinished

	// StateCancelled means the last run was stopped early, either by the
	// user or by losing the required network condition.
	StateCancelled
)

// String returns the name used for the state in logs and status responses.
func (s State) String() string {
	switch s {
	case StateEnumerating:
		return "enumerating"
	case StateDraining:
		return "draining"
	case StateFinished:
		return "finished"
	case StateCancelled:
		return "cancelled"
	default:
		return "idle"
	}
}

// Progress is one periodic report of how far a run has come.
type Progress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// Resolver is the slice of the resolution engine the orchestrator uses.
// Implemented by fetch.Engine.
type Resolver interface {
	// Fetch resolves artwork for one identity and calls done exactly once.
	Fetch(identity library.Identity, done func(saved bool))
}

// Orchestrator runs at most one backfill at a time. Create it with New,
// drive it with Start and Cancel.
type Orchestrator struct {
	enumerator library.Enumerator
	cache      *artcache.Cache
	resolver   Resolver
	policy     fetch.Policy
	queue      *queue.Queue

	mu        sync.Mutex
	state     State
	wifiOnly  bool
	completed int
	total     int
	cancel    context.CancelFunc
	done      chan struct{}

	progress chan Progress
}

// New creates an orchestrator in StateIdle.
func New(
	enumerator library.Enumerator,
	cache *artcache.Cache,
	resolver Resolver,
	policy fetch.Policy,
	q *queue.Queue,
) *Orchestrator {
	return &Orchestrator{
		enumerator: enumerator,
		cache:      cache,
		resolver:   resolver,
		policy:     policy,
		queue:      q,
		progress:   make(chan Progress, 16),
	}
}

// Start begins a run over the selected categories. It returns immediately,
// the work happens in the background. Starting while a run is in progress
// is an error.
func (o *Orchestrator) Start(fetchAlbums, fetchArtists, wifiOnly bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state == StateEnumerating || o.state == StateDraining {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	o.cancel = cancel
	o.done = make(chan struct{})
	o.state = StateEnumerating
	o.wifiOnly = wifiOnly
	o.completed = 0
	o.total = 0

	go o.run(ctx, fetchAlbums, fetchArtists, wifiOnly)
	return nil
}

// Cancel stops the current run. Any artwork request still in flight on the
// transport queue is cancelled as well. Calling it with no run in progress
// does nothing.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	cancel := o.cancel
	running := o.state == StateEnumerating || o.state == StateDraining
	o.mu.Unlock()

	if !running || cancel == nil {
		return
	}

	cancel()
	o.queue.CancelAll(nil)
}

// ActiveWifiOnly reports whether a run restricted to wifi is in progress.
// The network policy endpoint uses it to decide whether losing wifi must
// abort outstanding transport operations.
func (o *Orchestrator) ActiveWifiOnly() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	running := o.state == StateEnumerating || o.state == StateDraining
	return running && o.wifiOnly
}

// Status reports the current phase and how far along the run is.
func (o *Orchestrator) Status() (State, Progress) {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.state, Progress{Completed: o.completed, Total: o.total}
}

// Progress is the stream of periodic progress reports. Reports are dropped
// rather than delivered late when nobody is draining the channel.
func (o *Orchestrator) Progress() <-chan Progress {
	return o.progress
}

// Done returns a channel closed when the run started by the last Start call
// reaches a terminal state. It returns nil before the first Start.
func (o *Orchestrator) Done() <-chan struct{} {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.done
}

func (o *Orchestrator) run(ctx context.Context, fetchAlbums, fetchArtists, wifiOnly bool) {
	items, err := o.enumerate(ctx, fetchAlbums, fetchArtists)
	if err != nil {
		log.Printf("Backfill enumeration failed: %s", err)
		o.finish(StateCancelled)
		return
	}

	o.mu.Lock()
	o.total = len(items)
	o.state = StateDraining
	o.mu.Unlock()

	for _, item := range items {
		if ctx.Err() != nil {
			o.finish(StateCancelled)
			return
		}

		if !o.policy.FetchAllowed(wifiOnly) {
			log.Println("Backfill lost its required network, cancelling")
			o.queue.CancelAll(nil)
			o.finish(StateCancelled)
			return
		}

		rec, err := o.cache.Lookup(ctx, item)
		if err == nil && rec.State != artcache.StateUnknown {
			// Already resolved one way or the other. No network I/O,
			// straight on to the next item.
			o.completeItem()
			continue
		}

		resolved := make(chan struct{})
		o.resolver.Fetch(item, func(bool) {
			close(resolved)
		})

		select {
		case <-resolved:
		case <-ctx.Done():
			o.finish(StateCancelled)
			return
		}

		o.completeItem()
	}

	o.finish(StateFinished)
}

// enumerate builds the work queue: albums first, then artists, in the order
// the host library lists them.
func (o *Orchestrator) enumerate(
	ctx context.Context,
	fetchAlbums, fetchArtists bool,
) ([]library.Identity, error) {
	var items []library.Identity

	if fetchAlbums {
		albums, err := o.enumerator.ListAlbums(ctx)
		if err != nil {
			return nil, err
		}
		items = append(items, albums...)
	}

	if fetchArtists {
		artists, err := o.enumerator.ListArtists(ctx)
		if err != nil {
			return nil, err
		}
		items = append(items, artists...)
	}

	return items, nil
}

func (o *Orchestrator) completeItem() {
	o.mu.Lock()
	o.completed++
	// The terminal report is emitted by finish, never from here.
	report := o.completed%progressEvery == 0 && o.completed != o.total
	progress := Progress{Completed: o.completed, Total: o.total}
	o.mu.Unlock()

	if report {
		o.emit(progress)
	}
}

func (o *Orchestrator) finish(final State) {
	o.mu.Lock()
	o.state = final
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	progress := Progress{Completed: o.completed, Total: o.total}
	done := o.done
	o.mu.Unlock()

	o.emit(progress)
	close(done)
}

func (o *Orchestrator) emit(p Progress) {
	select {
	case o.progress <- p:
	default:
	}
}
