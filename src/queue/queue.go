// Package queue implements the shared transport queue through which every
// remote artwork operation passes. It bounds the number of in-flight
// operations process-wide, spaces them out in time so that the remote APIs
// are not hammered and supports cancelling everything which matches a
// predicate.
package queue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrCancelled is the cancellation signal delivered to the handler of an
// operation which was aborted before producing a response. Aborting happens
// via CancelAll, via a network policy change or when the queue is stopped.
var ErrCancelled = errors.New("operation cancelled")

// maxResponseSize limits how much of any remote response will be read. Larger
// bodies are truncated which the callers detect as malformed responses. 10MB
// is plenty for both the JSON/XML metadata endpoints and the images.
const maxResponseSize = 10 * 1024 * 1024

// Response is what a successfully executed operation produces. A non-2xx
// status code is still a Response, not an error. Interpreting the code is the
// caller's business.
type Response struct {
	StatusCode int
	Body       []byte
}

// Handler receives the result of an enqueued operation. Exactly one of the
// arguments is non-nil except when the operation was cancelled in which case
// err is ErrCancelled.
type Handler func(resp *Response, err error)

// Operation is a custom work function for requests which are not plain HTTP
// GETs. It must honour the passed context.
type Operation func(ctx context.Context) (*Response, error)

// Request describes one operation for the queue.
type Request struct {
	// Method is the HTTP method. Empty means GET.
	Method string

	// URL is the address requested. Ignored when Do is set, but still used
	// for matching in CancelAll predicates and in logs.
	URL string

	// Header holds additional headers for the request.
	Header http.Header

	// Tag labels the operation so that CancelAll predicates can select
	// related operations as a group.
	Tag string

	// Handler is called exactly once with the outcome.
	Handler Handler

	// Do overrides the default HTTP execution when set. Used for remote
	// calls which go through a dedicated API client instead of a raw URL.
	Do Operation
}

type pendingOp struct {
	req    *Request
	cancel context.CancelFunc
}

// Queue is the process-wide transport queue. A single instance is shared by
// all artwork providers. Enqueue never blocks the caller. There is no
// ordering guarantee between independently enqueued operations.
type Queue struct {
	client    *http.Client
	useragent string

	delay     time.Duration
	delayer   *time.Timer
	delayerMu sync.Mutex

	sem *semaphore.Weighted

	mu        sync.Mutex
	accepting bool
	nextID    uint64
	pending   map[uint64]pendingOp

	baseCtx    context.Context
	baseCancel context.CancelFunc
	wg         sync.WaitGroup
}

// New creates a transport queue which runs at most `concurrency` operations
// at a time and starts no more than one operation per `delay`. Every
// operation is bounded by `timeout`. The delay is there because the remote
// metadata services ask their clients to throttle themselves. See
// https://musicbrainz.org/doc/XML_Web_Service/Rate_Limiting for the most
// explicit of those requests.
func New(
	concurrency int64,
	delay time.Duration,
	timeout time.Duration,
	useragent string,
) *Queue {
	ctx, cancel := context.WithCancel(context.Background())

	return &Queue{
		client:     &http.Client{Timeout: timeout},
		useragent:  useragent,
		delay:      delay,
		delayer:    time.NewTimer(delay),
		sem:        semaphore.NewWeighted(concurrency),
		accepting:  true,
		pending:    make(map[uint64]pendingOp),
		baseCtx:    ctx,
		baseCancel: cancel,
	}
}

// Enqueue schedules req for execution and returns immediately. The request's
// handler will eventually be called exactly once from another goroutine.
func (q *Queue) Enqueue(req *Request) {
	q.mu.Lock()
	if !q.accepting {
		q.mu.Unlock()
		go req.Handler(nil, ErrCancelled)
		return
	}

	ctx, cancel := context.WithCancel(q.baseCtx)
	id := q.nextID
	q.nextID++
	q.pending[id] = pendingOp{req: req, cancel: cancel}
	q.wg.Add(1)
	q.mu.Unlock()

	go q.run(id, req, ctx, cancel)
}

// CancelAll aborts every queued and in-flight operation for which match
// returns true. A nil match aborts everything. The handlers of the aborted
// operations receive ErrCancelled.
func (q *Queue) CancelAll(match func(req *Request) bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, op := range q.pending {
		if match == nil || match(op.req) {
			op.cancel()
		}
	}
}

// OnNetworkPolicyChanged is called by whoever watches the network conditions
// of the machine. When fetching becomes disallowed all outstanding operations
// are aborted and subsequently enqueued ones are rejected with ErrCancelled
// until fetching is allowed again.
func (q *Queue) OnNetworkPolicyChanged(allowed bool) {
	q.mu.Lock()
	q.accepting = allowed
	q.mu.Unlock()

	if !allowed {
		q.CancelAll(nil)
	}
}

// Stop aborts everything and waits for the handlers of all outstanding
// operations to return. The queue must not be used after it was stopped.
func (q *Queue) Stop() {
	q.mu.Lock()
	q.accepting = false
	q.mu.Unlock()

	q.baseCancel()
	q.wg.Wait()
}

func (q *Queue) run(
	id uint64,
	req *Request,
	ctx context.Context,
	cancel context.CancelFunc,
) {
	defer q.wg.Done()
	defer cancel()
	defer func() {
		q.mu.Lock()
		delete(q.pending, id)
		q.mu.Unlock()
	}()

	if err := q.sem.Acquire(ctx, 1); err != nil {
		req.Handler(nil, ErrCancelled)
		return
	}
	defer q.sem.Release(1)

	if err := q.waitTurn(ctx); err != nil {
		req.Handler(nil, ErrCancelled)
		return
	}

	do := req.Do
	if do == nil {
		do = q.httpOperation(req)
	}

	resp, err := do(ctx)
	if ctx.Err() != nil {
		req.Handler(nil, ErrCancelled)
		return
	}

	req.Handler(resp, err)
}

// waitTurn spaces out the starts of consecutive operations by the queue's
// delay.
func (q *Queue) waitTurn(ctx context.Context) error {
	q.delayerMu.Lock()
	defer q.delayerMu.Unlock()

	select {
	case <-q.delayer.C:
		q.delayer.Reset(q.delay)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) httpOperation(req *Request) Operation {
	return func(ctx context.Context) (*Response, error) {
		method := req.Method
		if method == "" {
			method = http.MethodGet
		}

		httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request for %s: %w", req.URL, err)
		}

		for name, values := range req.Header {
			httpReq.Header[name] = values
		}
		if httpReq.Header.Get("User-Agent") == "" {
			httpReq.Header.Set("User-Agent", q.useragent)
		}

		resp, err := q.client.Do(httpReq)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		if err != nil {
			return nil, fmt.Errorf("reading response from %s: %w", req.URL, err)
		}

		return &Response{StatusCode: resp.StatusCode, Body: body}, nil
	}
}
