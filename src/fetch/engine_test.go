package fetch_test

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/vankolev/coverd/src/art"
	"github.com/vankolev/coverd/src/art/artfakes"
	"github.com/vankolev/coverd/src/artcache"
	"github.com/vankolev/coverd/src/fetch"
	"github.com/vankolev/coverd/src/fetch/fetchfakes"
	"github.com/vankolev/coverd/src/library"
	"github.com/vankolev/coverd/src/queue"
	"github.com/vankolev/coverd/src/scaler/scalerfakes"
)

// engineFixture wires an Engine with a real in-memory cache and queue and
// fakes for everything which talks to the outside world.
type engineFixture struct {
	engine   *fetch.Engine
	cache    *artcache.Cache
	queue    *queue.Queue
	policy   *fetchfakes.FakePolicy
	scaler   *scalerfakes.FakeImageScaler
	provider *artfakes.FakeProvider
}

func newEngineFixture(t *testing.T, settings fetch.Settings) *engineFixture {
	t.Helper()

	cache, err := artcache.New(
		":memory:",
		afero.NewMemMapFs(),
		os.DirFS(filepath.Join("..", "..", "sqls")),
	)
	if err != nil {
		t.Fatalf("creating test cache: %s", err)
	}
	t.Cleanup(cache.Close)

	q := queue.New(2, time.Microsecond, 5*time.Second, "coverd/testing")
	t.Cleanup(q.Stop)

	policy := &fetchfakes.FakePolicy{}
	policy.FetchAllowedReturns(true)

	provider := &artfakes.FakeProvider{}
	provider.SupportsReturns(true)

	scl := &scalerfakes.FakeImageScaler{}

	engine := fetch.New(cache, q, policy, scl, settings, map[string]art.Provider{
		"fakeprov": provider,
	})

	return &engineFixture{
		engine:   engine,
		cache:    cache,
		queue:    q,
		policy:   policy,
		scaler:   scl,
		provider: provider,
	}
}

func defaultSettings() fetch.Settings {
	return fetch.Settings{
		AlbumProvider:  "fakeprov",
		ArtistProvider: "fakeprov",
	}
}

// fetchAndWait runs Engine.Fetch and blocks until its completion callback.
func fetchAndWait(t *testing.T, e *fetch.Engine, identity library.Identity) bool {
	t.Helper()

	saved := make(chan bool, 1)
	e.Fetch(identity, func(s bool) { saved <- s })

	select {
	case s := <-saved:
		return s
	case <-time.After(10 * time.Second):
		t.Fatal("fetch did not complete")
		return false
	}
}

func fixtureAlbum(t *testing.T) library.Identity {
	t.Helper()

	identity, err := library.NewAlbum("Moon Safari", "Air", 42)
	if err != nil {
		t.Fatalf("creating album identity: %s", err)
	}
	return identity
}

// TestEngineStoresFetchedImage resolves an album through a provider which
// finds an image and checks the cache record, the category listener and the
// broadcast event.
func TestEngineStoresFetchedImage(t *testing.T) {
	fix := newEngineFixture(t, defaultSettings())

	imgBytes := []byte("the cover")
	fix.provider.FetchCalls(func(req *art.Request, handler art.Handler) {
		req.MusicBrainzID = "mb-1"
		handler(&art.RawImage{
			Bytes:     imgBytes,
			SourceURL: "https://img.example.com/cover.jpg",
			Request:   req,
		}, nil)
	})

	notified := make(chan library.Identity, 1)
	fix.engine.AddListener(library.KindAlbum, func(id library.Identity) {
		notified <- id
	})

	album := fixtureAlbum(t)
	if saved := fetchAndWait(t, fix.engine, album); !saved {
		t.Fatal("expected the fetch to be saved")
	}

	rec, err := fix.cache.Lookup(context.Background(), album)
	if err != nil {
		t.Fatalf("cache lookup: %s", err)
	}
	if rec.State != artcache.StateFound {
		t.Fatalf("expected the cache record, got state %d", rec.State)
	}
	if rec.MusicBrainzID != "mb-1" {
		t.Errorf("the provider-resolved mbid was lost, got %q", rec.MusicBrainzID)
	}

	select {
	case id := <-notified:
		if id.Name != album.Name {
			t.Errorf("listener notified for the wrong identity: %s", id)
		}
	default:
		t.Error("the album listener was not notified")
	}

	select {
	case ev := <-fix.engine.Events():
		if ev.Kind != library.KindAlbum || ev.ID != 42 || ev.Name != "Moon Safari" {
			t.Errorf("unexpected event: %+v", ev)
		}
	default:
		t.Error("no broadcast event for the resolved album")
	}
}

// TestEngineNegativeCache makes sure exhausted providers produce a negative
// record and that a second fetch does not hit the provider again.
func TestEngineNegativeCache(t *testing.T) {
	fix := newEngineFixture(t, defaultSettings())

	fix.provider.FetchCalls(func(req *art.Request, handler art.Handler) {
		handler(nil, art.ErrNoMatch)
	})

	album := fixtureAlbum(t)
	if saved := fetchAndWait(t, fix.engine, album); !saved {
		t.Fatal("a negative record still counts as saved")
	}

	rec, err := fix.cache.Lookup(context.Background(), album)
	if err != nil {
		t.Fatalf("cache lookup: %s", err)
	}
	if rec.State != artcache.StateNotFound {
		t.Fatalf("expected a negative record, got state %d", rec.State)
	}

	if saved := fetchAndWait(t, fix.engine, album); saved {
		t.Error("the second fetch should have been a cache skip")
	}
	if calls := fix.provider.FetchCallCount(); calls != 1 {
		t.Errorf("the provider was called %d times, expected 1", calls)
	}
}

// TestEngineRateLimited checks the 503 handling: no record is written and
// everything pending on the transport queue is cancelled.
func TestEngineRateLimited(t *testing.T) {
	fix := newEngineFixture(t, defaultSettings())

	fix.provider.FetchCalls(func(req *art.Request, handler art.Handler) {
		handler(nil, &art.TransportError{
			Code: http.StatusServiceUnavailable,
			Err:  errors.New("remote status 503"),
		})
	})

	// A hanging operation on the queue which only a CancelAll can end.
	bystander := make(chan error, 1)
	fix.queue.Enqueue(&queue.Request{
		URL: "http://api.example.com/unrelated",
		Tag: "bystander",
		Do: func(ctx context.Context) (*queue.Response, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
		Handler: func(resp *queue.Response, err error) {
			bystander <- err
		},
	})

	album := fixtureAlbum(t)
	if saved := fetchAndWait(t, fix.engine, album); saved {
		t.Fatal("a rate limited fetch must not write a record")
	}

	rec, err := fix.cache.Lookup(context.Background(), album)
	if err != nil {
		t.Fatalf("cache lookup: %s", err)
	}
	if rec.State != artcache.StateUnknown {
		t.Errorf("a 503 poisoned the cache with state %d", rec.State)
	}

	select {
	case err := <-bystander:
		if !errors.Is(err, queue.ErrCancelled) {
			t.Errorf("expected the bystander to be cancelled, got %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Error("the bystander request was not cancelled")
	}
}

// TestEnginePolicyGate makes sure a disallowing network policy stops the
// fetch before any provider work.
func TestEnginePolicyGate(t *testing.T) {
	settings := defaultSettings()
	settings.WifiOnly = true
	fix := newEngineFixture(t, settings)
	fix.policy.FetchAllowedReturns(false)

	if saved := fetchAndWait(t, fix.engine, fixtureAlbum(t)); saved {
		t.Error("a policy-blocked fetch reported itself as saved")
	}

	if calls := fix.provider.FetchCallCount(); calls != 0 {
		t.Errorf("the provider was called %d times despite the policy", calls)
	}
	if fix.policy.FetchAllowedArgsForCall(0) != true {
		t.Error("the wifi-only setting was not passed to the policy")
	}
}

// TestEngineProviderNone checks that the "none" setting disables fetching
// for the category.
func TestEngineProviderNone(t *testing.T) {
	settings := defaultSettings()
	settings.AlbumProvider = fetch.ProviderNone
	fix := newEngineFixture(t, settings)

	if saved := fetchAndWait(t, fix.engine, fixtureAlbum(t)); saved {
		t.Error("fetch with no provider reported itself as saved")
	}
	if calls := fix.provider.FetchCallCount(); calls != 0 {
		t.Errorf("the provider was called %d times, expected none", calls)
	}
}

// TestEngineFetchSync covers the cache-first synchronous path: found
// records come back immediately (scaled when asked to), negative records
// are ErrNotFound and unknown ones trigger a background fetch.
func TestEngineFetchSync(t *testing.T) {
	fix := newEngineFixture(t, defaultSettings())
	ctx := context.Background()

	album := fixtureAlbum(t)
	imgBytes := []byte("full size image")
	if err := fix.cache.Store(ctx, album, "", imgBytes); err != nil {
		t.Fatalf("seeding the cache: %s", err)
	}

	got, err := fix.engine.FetchSync(ctx, album, 0)
	if err != nil {
		t.Fatalf("sync fetch error: %s", err)
	}
	if string(got) != string(imgBytes) {
		t.Errorf("unexpected image bytes: %s", got)
	}

	scaledBytes := []byte("scaled image")
	fix.scaler.ScaleReturns(scaledBytes, nil)

	got, err = fix.engine.FetchSync(ctx, album, 120)
	if err != nil {
		t.Fatalf("sync fetch error: %s", err)
	}
	if string(got) != string(scaledBytes) {
		t.Errorf("expected the scaled image, got %s", got)
	}
	if fix.scaler.ScaleCallCount() != 1 {
		t.Fatalf("expected one scale call, got %d", fix.scaler.ScaleCallCount())
	}
	if _, _, width := fix.scaler.ScaleArgsForCall(0); width != 120 {
		t.Errorf("scaled to width %d instead of 120", width)
	}

	// An unknown artist: reported unavailable now, resolved in the
	// background.
	providerCalled := make(chan struct{})
	fix.provider.FetchCalls(func(req *art.Request, handler art.Handler) {
		close(providerCalled)
		handler(&art.RawImage{Bytes: []byte("artist img"), Request: req}, nil)
	})

	artist, err := library.NewArtist("Air", 11)
	if err != nil {
		t.Fatalf("creating artist identity: %s", err)
	}

	if _, err := fix.engine.FetchSync(ctx, artist, 0); !errors.Is(err, fetch.ErrNotFound) {
		t.Errorf("expected ErrNotFound for the unknown artist, got %v", err)
	}

	select {
	case <-providerCalled:
	case <-time.After(10 * time.Second):
		t.Fatal("the miss did not trigger a background fetch")
	}

	// A negative record answers ErrNotFound without another fetch.
	missing, err := library.NewArtist("Nowhere Man", 12)
	if err != nil {
		t.Fatalf("creating artist identity: %s", err)
	}
	if err := fix.cache.Store(ctx, missing, "", nil); err != nil {
		t.Fatalf("seeding the cache: %s", err)
	}

	before := fix.provider.FetchCallCount()
	if _, err := fix.engine.FetchSync(ctx, missing, 0); !errors.Is(err, fetch.ErrNotFound) {
		t.Errorf("expected ErrNotFound for the blocked artist, got %v", err)
	}
	if fix.provider.FetchCallCount() != before {
		t.Error("a negative record still triggered a background fetch")
	}
}

// TestEngineResetImage invalidates a resolved album and checks that a new
// provider run replaces the record.
func TestEngineResetImage(t *testing.T) {
	fix := newEngineFixture(t, defaultSettings())
	ctx := context.Background()

	album := fixtureAlbum(t)
	if err := fix.cache.Store(ctx, album, "old-mbid", []byte("old image")); err != nil {
		t.Fatalf("seeding the cache: %s", err)
	}

	refetched := make(chan struct{})
	fix.provider.FetchCalls(func(req *art.Request, handler art.Handler) {
		req.MusicBrainzID = "new-mbid"
		handler(&art.RawImage{Bytes: []byte("new image"), Request: req}, nil)
		close(refetched)
	})

	if err := fix.engine.ResetImage(ctx, album); err != nil {
		t.Fatalf("reset error: %s", err)
	}

	select {
	case <-refetched:
	case <-time.After(10 * time.Second):
		t.Fatal("reset did not trigger a new fetch")
	}

	rec, err := fix.cache.Lookup(ctx, album)
	if err != nil {
		t.Fatalf("cache lookup: %s", err)
	}
	if rec.State != artcache.StateFound || rec.MusicBrainzID != "new-mbid" {
		t.Errorf("the record was not replaced, state %d mbid %q",
			rec.State, rec.MusicBrainzID)
	}
}
