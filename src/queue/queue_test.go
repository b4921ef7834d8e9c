package queue_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vankolev/coverd/src/queue"
)

// TestQueueExecutesHTTPRequests makes sure a plain enqueued request reaches
// the remote server and its body comes back through the handler.
func TestQueueExecutesHTTPRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, req *http.Request) {
			if ua := req.UserAgent(); ua != "coverd/testing" {
				t.Errorf("unexpected user agent: %s", ua)
			}
			_, _ = w.Write([]byte("response body"))
		},
	))
	defer srv.Close()

	q := queue.New(2, time.Millisecond, 5*time.Second, "coverd/testing")
	defer q.Stop()

	done := make(chan struct{})
	q.Enqueue(&queue.Request{
		URL: srv.URL,
		Handler: func(resp *queue.Response, err error) {
			defer close(done)
			if err != nil {
				t.Errorf("request error: %s", err)
				return
			}
			if resp.StatusCode != http.StatusOK {
				t.Errorf("expected 200 but got %d", resp.StatusCode)
			}
			if string(resp.Body) != "response body" {
				t.Errorf("unexpected body: %s", resp.Body)
			}
		},
	})

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("handler was not called")
	}
}

// TestQueueBoundsConcurrency enqueues more operations than the queue's
// concurrency ceiling and checks that the number of simultaneously running
// ones never exceeds it.
func TestQueueBoundsConcurrency(t *testing.T) {
	const (
		ceiling = 2
		total   = 8
	)

	var (
		running int32
		maxSeen int32
		wg      sync.WaitGroup
	)

	q := queue.New(ceiling, time.Microsecond, 5*time.Second, "coverd/testing")
	defer q.Stop()

	for i := 0; i < total; i++ {
		wg.Add(1)
		q.Enqueue(&queue.Request{
			Do: func(ctx context.Context) (*queue.Response, error) {
				now := atomic.AddInt32(&running, 1)
				for {
					seen := atomic.LoadInt32(&maxSeen)
					if now <= seen || atomic.CompareAndSwapInt32(&maxSeen, seen, now) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				atomic.AddInt32(&running, -1)
				return &queue.Response{StatusCode: http.StatusOK}, nil
			},
			Handler: func(resp *queue.Response, err error) {
				wg.Done()
			},
		})
	}

	wg.Wait()

	if seen := atomic.LoadInt32(&maxSeen); seen > ceiling {
		t.Errorf("saw %d operations in flight with a ceiling of %d", seen, ceiling)
	}
}

// TestQueueCancelAllByPredicate starts one never-ending operation with a
// particular tag and cancels it by predicate while an operation with another
// tag completes normally.
func TestQueueCancelAllByPredicate(t *testing.T) {
	q := queue.New(4, time.Microsecond, 5*time.Second, "coverd/testing")
	defer q.Stop()

	var (
		cancelled = make(chan error, 1)
		started   = make(chan struct{})
		finished  = make(chan error, 1)
	)

	q.Enqueue(&queue.Request{
		Tag: "doomed",
		Do: func(ctx context.Context) (*queue.Response, error) {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		},
		Handler: func(resp *queue.Response, err error) {
			cancelled <- err
		},
	})

	<-started
	q.Enqueue(&queue.Request{
		Tag: "survivor",
		Do: func(ctx context.Context) (*queue.Response, error) {
			return &queue.Response{StatusCode: http.StatusOK}, nil
		},
		Handler: func(resp *queue.Response, err error) {
			finished <- err
		},
	})

	q.CancelAll(func(req *queue.Request) bool {
		return req.Tag == "doomed"
	})

	select {
	case err := <-cancelled:
		if err != queue.ErrCancelled {
			t.Errorf("expected ErrCancelled but got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("the doomed operation was never cancelled")
	}

	select {
	case err := <-finished:
		if err != nil {
			t.Errorf("the surviving operation failed: %s", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("the surviving operation never finished")
	}
}

// TestQueueNetworkPolicy checks that disallowing fetching rejects new
// operations with the cancellation signal and that allowing it again restores
// normal operation.
func TestQueueNetworkPolicy(t *testing.T) {
	q := queue.New(2, time.Microsecond, 5*time.Second, "coverd/testing")
	defer q.Stop()

	q.OnNetworkPolicyChanged(false)

	rejected := make(chan error, 1)
	q.Enqueue(&queue.Request{
		Do: func(ctx context.Context) (*queue.Response, error) {
			return &queue.Response{StatusCode: http.StatusOK}, nil
		},
		Handler: func(resp *queue.Response, err error) {
			rejected <- err
		},
	})

	select {
	case err := <-rejected:
		if err != queue.ErrCancelled {
			t.Errorf("expected ErrCancelled while disallowed but got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("handler for the rejected operation was not called")
	}

	q.OnNetworkPolicyChanged(true)

	accepted := make(chan error, 1)
	q.Enqueue(&queue.Request{
		Do: func(ctx context.Context) (*queue.Response, error) {
			return &queue.Response{StatusCode: http.StatusOK}, nil
		},
		Handler: func(resp *queue.Response, err error) {
			accepted <- err
		},
	})

	select {
	case err := <-accepted:
		if err != nil {
			t.Errorf("operation after re-allowing failed: %s", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("handler for the accepted operation was not called")
	}
}
