package art

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vankolev/coverd/src/library"
	"github.com/vankolev/coverd/src/queue"
)

// ErrNoMatch is returned by a provider when its remote source either knows
// nothing about the requested item or everything it returned was rejected by
// the name verification step.
var ErrNoMatch = errors.New("no matching candidate found")

// ErrNotConfigured is returned by a provider which cannot operate because it
// is missing its API credentials. It is deliberately distinct from ErrNoMatch
// so that a missing API key does not end up recorded as "this item has no
// artwork".
var ErrNotConfigured = errors.New("provider is not configured")

// ParseError means the remote service responded with something which does not
// have the expected shape.
type ParseError struct {
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed remote response: %s", e.Err)
}

// Unwrap makes the underlying decoding error reachable for errors.Is/As.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// TransportError means the remote operation failed on the network or the HTTP
// level. Code is the HTTP status code or 0 when no response was received at
// all.
type TransportError struct {
	Code int
	Err  error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("remote returned HTTP %d", e.Code)
	}
	return fmt.Sprintf("transport failure: %s", e.Err)
}

// Unwrap makes the underlying network error reachable for errors.Is/As.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Request is one in-flight artwork resolution attempt.
type Request struct {
	// Identity is the artist or album for which artwork is sought.
	Identity library.Identity

	// MusicBrainzID is filled in opportunistically by providers which
	// resolve it along the way. Later steps and the cache record use it.
	MusicBrainzID string
}

// RawImage is what a provider's download step produces. An empty Bytes slice
// is a valid value meaning "the provider found no image for this item" which
// is different from a failed download.
type RawImage struct {
	Bytes     []byte
	SourceURL string
	Request   *Request
}

// Handler receives the outcome of a provider fetch. It is called exactly once
// unless the provider does not support the request's identity kind in which
// case it is never called.
type Handler func(img *RawImage, err error)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

//counterfeiter:generate . Provider

// Provider encapsulates one external art source's lookup, verification and
// download protocol. Providers are stateless apart from the shared transport
// queue reference and are safe for concurrent use by multiple goroutines.
type Provider interface {
	// Supports tells whether the provider can find artwork for this kind
	// of identity. Every provider supports exactly one kind.
	Supports(kind library.ItemKind) bool

	// Fetch resolves artwork for req over the transport queue and reports
	// the outcome on handler. Calling it with an unsupported identity
	// kind is a no-op.
	Fetch(req *Request, handler Handler)
}

// maxCandidates bounds how many results from a multi-result identity lookup
// will be considered before the provider gives up with ErrNoMatch.
const maxCandidates = 10

// upgradeToHTTPS rewrites a http:// URL to https:// before any image
// download. The image hosts support TLS even where their APIs still hand out
// plain URLs.
func upgradeToHTTPS(rawURL string) string {
	if strings.HasPrefix(rawURL, "http://") {
		return "https://" + strings.TrimPrefix(rawURL, "http://")
	}
	return rawURL
}

// remoteFailure converts a transport queue outcome into the provider error
// taxonomy. It returns nil when resp is a usable HTTP 200 response.
// Cancellations pass through unchanged so that the engine can tell them apart
// from genuine failures.
func remoteFailure(resp *queue.Response, err error) error {
	if err != nil {
		if errors.Is(err, queue.ErrCancelled) {
			return err
		}
		return &TransportError{Code: 0, Err: err}
	}
	if resp.StatusCode != 200 {
		return &TransportError{Code: resp.StatusCode}
	}
	return nil
}
