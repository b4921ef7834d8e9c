// Package fetch ties the artwork providers, the transport queue and the
// durable cache together. The Engine resolves artwork for one identity at a
// time: it picks the configured provider for the identity's category, runs
// it and records the outcome in the cache so that the same entity is not
// asked about over and over.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"log"
	"net/http"
	"sync"

	"github.com/vankolev/coverd/src/art"
	"github.com/vankolev/coverd/src/artcache"
	"github.com/vankolev/coverd/src/library"
	"github.com/vankolev/coverd/src/queue"
	"github.com/vankolev/coverd/src/scaler"
)

// ErrNotFound is returned by FetchSync when no artwork is available right
// now. It covers both "known to have none" and "not resolved yet".
var ErrNotFound = errors.New("artwork not available")

// ProviderNone is the provider setting value which disables fetching for a
// category altogether.
const ProviderNone = "none"

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

//counterfeiter:generate . Policy

// Policy is the network policy oracle. The engine consults it before any
// provider work is enqueued.
type Policy interface {
	// FetchAllowed tells whether fetching from the internet is currently
	// permitted under the given wifi-only restriction.
	FetchAllowed(wifiOnly bool) bool
}

// Settings selects the provider used for each category and carries the
// wifi-only restriction.
type Settings struct {
	AlbumProvider  string
	ArtistProvider string
	WifiOnly       bool
}

// Event identifies artwork which was just resolved. It is delivered on the
// Events channel for out-of-process consumers.
type Event struct {
	Kind library.ItemKind
	ID   int64
	Name string
}

// Listener is called when resolution for an identity of the subscribed
// category finished, with or without an image.
type Listener func(identity library.Identity)

// Engine is the artwork resolution engine. Create one with New.
type Engine struct {
	cache     *artcache.Cache
	queue     *queue.Queue
	policy    Policy
	scl       scaler.ImageScaler
	settings  Settings
	providers map[string]art.Provider

	listenersMu sync.Mutex
	listeners   map[library.ItemKind][]Listener

	events chan Event
}

// New creates an engine. The providers registry maps setting values such as
// "musicbrainz" or "lastfm" to provider instances; which of them are
// actually used is decided by the settings.
func New(
	cache *artcache.Cache,
	q *queue.Queue,
	policy Policy,
	scl scaler.ImageScaler,
	settings Settings,
	providers map[string]art.Provider,
) *Engine {
	return &Engine{
		cache:     cache,
		queue:     q,
		policy:    policy,
		scl:       scl,
		settings:  settings,
		providers: providers,
		listeners: make(map[library.ItemKind][]Listener),
		events:    make(chan Event, 16),
	}
}

// AddListener subscribes for resolution notifications of one category.
func (e *Engine) AddListener(kind library.ItemKind, l Listener) {
	e.listenersMu.Lock()
	defer e.listenersMu.Unlock()

	e.listeners[kind] = append(e.listeners[kind], l)
}

// Events is the stream of successfully resolved artwork. Events are
// dropped rather than delivered late when no one is draining the channel.
// Every call returns the same channel, so with more than one reader each
// event reaches only one of them. Use AddListener when multiple consumers
// need to see every event.
func (e *Engine) Events() <-chan Event {
	return e.events
}

// Fetch resolves artwork for the identity asynchronously. The done callback
// fires exactly once: with true when a cache record was written, positive
// or negative, and with false when the attempt was skipped or aborted
// without touching the cache. done may be nil.
func (e *Engine) Fetch(identity library.Identity, done func(saved bool)) {
	if done == nil {
		done = func(bool) {}
	}

	if !e.policy.FetchAllowed(e.settings.WifiOnly) {
		go done(false)
		return
	}

	// Entities the cache already has an answer for, positive or negative,
	// are not asked about again. ResetImage is the way to force a retry.
	rec, err := e.cache.Lookup(context.Background(), identity)
	if err == nil && rec.State != artcache.StateUnknown {
		go done(false)
		return
	}

	p := e.providerFor(identity.Kind)
	if p == nil {
		go done(false)
		return
	}

	req := &art.Request{Identity: identity}
	p.Fetch(req, func(img *art.RawImage, err error) {
		e.resolved(identity, req, img, err, done)
	})
}

// FetchSync answers from the cache only. On a StateUnknown identity it
// kicks off an asynchronous Fetch as a side effect and still reports
// ErrNotFound, the caller is expected to come back later. When maxWidth is
// positive the image is scaled down to it.
func (e *Engine) FetchSync(
	ctx context.Context,
	identity library.Identity,
	maxWidth int,
) ([]byte, error) {
	rec, err := e.cache.Lookup(ctx, identity)
	if err != nil {
		return nil, err
	}

	switch rec.State {
	case artcache.StateFound:
		img, err := e.cache.ImageBytes(rec)
		if err != nil {
			return nil, err
		}
		if maxWidth <= 0 {
			return img, nil
		}

		scaled, err := e.scl.Scale(ctx, bytes.NewReader(img), maxWidth)
		if err != nil {
			log.Printf("Error scaling artwork for %s: %s", identity, err)
			return img, nil
		}
		return scaled, nil
	case artcache.StateNotFound:
		return nil, ErrNotFound
	default:
		e.Fetch(identity, nil)
		return nil, ErrNotFound
	}
}

// ResetImage throws away whatever the cache knows about the identity and
// starts a fresh resolution attempt.
func (e *Engine) ResetImage(ctx context.Context, identity library.Identity) error {
	if err := e.cache.Invalidate(ctx, identity); err != nil {
		return err
	}

	e.Fetch(identity, nil)
	return nil
}

func (e *Engine) providerFor(kind library.ItemKind) art.Provider {
	name := e.settings.AlbumProvider
	if kind == library.KindArtist {
		name = e.settings.ArtistProvider
	}
	if name == "" || name == ProviderNone {
		return nil
	}

	p, ok := e.providers[name]
	if !ok {
		log.Printf("No %s provider named %q is known", kind, name)
		return nil
	}
	if !p.Supports(kind) {
		log.Printf("Provider %q does not support %s artwork", name, kind)
		return nil
	}

	return p
}

// resolved is the single completion point of a Fetch call.
func (e *Engine) resolved(
	identity library.Identity,
	req *art.Request,
	img *art.RawImage,
	err error,
	done func(saved bool),
) {
	ctx := context.Background()

	if err == nil {
		// An empty image is a valid provider answer meaning "this entity
		// has no artwork". Store records it as not-found.
		if serr := e.cache.Store(ctx, identity, req.MusicBrainzID, img.Bytes); serr != nil {
			log.Printf("Error storing artwork for %s: %s", identity, serr)
			done(false)
			return
		}
		e.notify(identity, len(img.Bytes) > 0)
		done(true)
		return
	}

	if errors.Is(err, queue.ErrCancelled) || errors.Is(err, art.ErrNotConfigured) {
		done(false)
		return
	}

	var terr *art.TransportError
	if errors.As(err, &terr) && terr.Code == http.StatusServiceUnavailable {
		// The provider told us to slow down. That says nothing about
		// whether this entity has artwork, so no record is written.
		// Hitting the provider with the rest of the queued work would
		// only make it worse.
		log.Printf(
			"Rate limited while fetching artwork for %s, cancelling outstanding requests",
			identity,
		)
		e.queue.CancelAll(nil)
		done(false)
		return
	}

	// Parse failures, exhausted candidates and other transport errors all
	// read the same from here: nothing to show for this entity. Record
	// that so it is not retried on every pass.
	if serr := e.cache.Store(ctx, identity, req.MusicBrainzID, nil); serr != nil {
		log.Printf("Error storing the not-found record for %s: %s", identity, serr)
		done(false)
		return
	}
	e.notify(identity, false)
	done(true)
}

func (e *Engine) notify(identity library.Identity, hasImage bool) {
	e.listenersMu.Lock()
	listeners := append([]Listener(nil), e.listeners[identity.Kind]...)
	e.listenersMu.Unlock()

	for _, l := range listeners {
		l(identity)
	}

	if !hasImage {
		return
	}

	select {
	case e.events <- Event{Kind: identity.Kind, ID: identity.ID, Name: identity.Name}:
	default:
		// A consumer which stopped draining the channel must not stall
		// resolution.
	}
}
