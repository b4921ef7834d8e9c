package art_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pborman/uuid"
	gocaa "gopkg.in/mineo/gocaa.v1"

	"github.com/vankolev/coverd/src/art"
	"github.com/vankolev/coverd/src/art/artfakes"
	"github.com/vankolev/coverd/src/library"
	"github.com/vankolev/coverd/src/queue"
)

const (
	mismatchedReleaseID = "39b0bd13-2712-4f77-8ded-7d2f7bba3421"
	emptyReleaseID      = "7d2b2e73-0b01-4b8c-9f48-b5e52e99bd1a"
	matchingReleaseID   = "b2a07c3a-c2ad-4bdf-93ae-0b4eda0b5e43"
)

// mbReleaseSearchXML is a truncated MusicBrainz release search response with
// three candidates: one whose title does not match the request, one which has
// no cover in the archive and one which has everything.
var mbReleaseSearchXML = fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<metadata xmlns="http://musicbrainz.org/ns/mmd-2.0#">
  <release-list count="3">
    <release id="%s" score="100">
      <title>Moon Safari (Deluxe Edition)</title>
      <artist-credit><name-credit><artist><name>Air</name></artist></name-credit></artist-credit>
    </release>
    <release id="%s" score="98">
      <title>Moon Safari</title>
      <artist-credit><name-credit><artist><name>Air</name></artist></name-credit></artist-credit>
    </release>
    <release id="%s" score="97">
      <title>Moon Safari</title>
      <artist-credit><name-credit><artist><name>Air</name></artist></name-credit></artist-credit>
    </release>
  </release-list>
</metadata>`, mismatchedReleaseID, emptyReleaseID, matchingReleaseID)

func newArtQueue() *queue.Queue {
	return queue.New(4, time.Microsecond, 5*time.Second, "coverd/testing")
}

func albumRequest(t *testing.T, name, artist string) *art.Request {
	t.Helper()

	identity, err := library.NewAlbum(name, artist, library.UnknownID)
	if err != nil {
		t.Fatalf("creating album identity: %s", err)
	}
	return &art.Request{Identity: identity}
}

func fetchResult(
	t *testing.T,
	p art.Provider,
	req *art.Request,
) (*art.RawImage, error) {
	t.Helper()

	var (
		img  *art.RawImage
		err  error
		done = make(chan struct{})
	)
	p.Fetch(req, func(fetched *art.RawImage, fetchErr error) {
		img = fetched
		err = fetchErr
		close(done)
	})

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("provider handler was never called")
	}

	return img, err
}

// TestMusicBrainzProviderHappyPath exercises the whole
// search -> verify -> archive protocol. The first candidate must be rejected
// by verification, the second must be skipped because the archive has no
// front image for it and the third must produce the artwork.
func TestMusicBrainzProviderHappyPath(t *testing.T) {
	imageBytes := []byte("front image bytes")

	mbrainzSrv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, req *http.Request) {
			if req.URL.Path != "/ws/2/release/" {
				t.Errorf("unexpected MusicBrainz path: %s", req.URL.Path)
			}
			if q := req.URL.Query().Get("query"); q == "" {
				t.Errorf("empty MusicBrainz query")
			}
			_, _ = w.Write([]byte(mbReleaseSearchXML))
		},
	))
	defer mbrainzSrv.Close()

	caaFake := &artfakes.FakeCAAClient{}
	caaFake.GetReleaseFrontStub = func(
		mbid uuid.UUID,
		size int,
	) (gocaa.CoverArtImage, error) {
		switch mbid.String() {
		case emptyReleaseID:
			return gocaa.CoverArtImage{}, gocaa.HTTPError{
				StatusCode: http.StatusNotFound,
			}
		case matchingReleaseID:
			return gocaa.CoverArtImage{Data: imageBytes}, nil
		default:
			t.Errorf("archive queried for unverified release %s", mbid)
			return gocaa.CoverArtImage{}, gocaa.HTTPError{
				StatusCode: http.StatusNotFound,
			}
		}
	}

	q := newArtQueue()
	defer q.Stop()

	p := art.NewMusicBrainzProvider(q, "coverd/testing")
	p.SetMusicBrainzAPIURL(mbrainzSrv.URL)
	p.SetCAAClient(caaFake)

	req := albumRequest(t, "Moon Safari", "Air")
	img, err := fetchResult(t, p, req)
	if err != nil {
		t.Fatalf("fetch error: %s", err)
	}

	if string(img.Bytes) != string(imageBytes) {
		t.Errorf("unexpected image bytes: %s", img.Bytes)
	}
	if req.MusicBrainzID != matchingReleaseID {
		t.Errorf("request mbid not populated, got %q", req.MusicBrainzID)
	}
	if caaFake.GetReleaseFrontCallCount() != 2 {
		t.Errorf(
			"expected 2 archive calls but got %d",
			caaFake.GetReleaseFrontCallCount(),
		)
	}
}

// TestMusicBrainzProviderNoVerifiedCandidates makes sure that when every
// candidate fails verification the archive is never contacted and the fetch
// ends in ErrNoMatch.
func TestMusicBrainzProviderNoVerifiedCandidates(t *testing.T) {
	mbrainzSrv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, req *http.Request) {
			_, _ = w.Write([]byte(mbReleaseSearchXML))
		},
	))
	defer mbrainzSrv.Close()

	caaFake := &artfakes.FakeCAAClient{}

	q := newArtQueue()
	defer q.Stop()

	p := art.NewMusicBrainzProvider(q, "coverd/testing")
	p.SetMusicBrainzAPIURL(mbrainzSrv.URL)
	p.SetCAAClient(caaFake)

	_, err := fetchResult(t, p, albumRequest(t, "Premiers Symptômes", "Air"))
	if !errors.Is(err, art.ErrNoMatch) {
		t.Errorf("expected ErrNoMatch but got %v", err)
	}
	if caaFake.GetReleaseFrontCallCount() != 0 {
		t.Errorf("the archive was contacted for unverified candidates")
	}
}

// TestMusicBrainzProviderTransportErrors checks the error taxonomy forremote
// failures: an HTTP error status becomes a TransportError carrying the code
// and garbage XML becomes a ParseError.
func TestMusicBrainzProviderTransportErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		check   func(t *testing.T, err error)
	}{
		{
			name: "service unavailable",
			handler: func(w http.ResponseWriter, req *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
			check: func(t *testing.T, err error) {
				var terr *art.TransportError
				if !errors.As(err, &terr) {
					t.Fatalf("expected a TransportError but got %v", err)
				}
				if terr.Code != http.StatusServiceUnavailable {
					t.Errorf("expected code 503 but got %d", terr.Code)
				}
			},
		},
		{
			name: "garbage response",
			handler: func(w http.ResponseWriter, req *http.Request) {
				_, _ = w.Write([]byte("<not-xml"))
			},
			check: func(t *testing.T, err error) {
				var perr *art.ParseError
				if !errors.As(err, &perr) {
					t.Errorf("expected a ParseError but got %v", err)
				}
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			srv := httptest.NewServer(test.handler)
			defer srv.Close()

			q := newArtQueue()
			defer q.Stop()

			p := art.NewMusicBrainzProvider(q, "coverd/testing")
			p.SetMusicBrainzAPIURL(srv.URL)
			p.SetCAAClient(&artfakes.FakeCAAClient{})

			_, err := fetchResult(t, p, albumRequest(t, "Moon Safari", "Air"))
			test.check(t, err)
		})
	}
}

// TestMusicBrainzProviderUnsupportedKind makes sure an artist request is a
// no-op for the album provider.
func TestMusicBrainzProviderUnsupportedKind(t *testing.T) {
	q := newArtQueue()
	defer q.Stop()

	p := art.NewMusicBrainzProvider(q, "coverd/testing")
	if p.Supports(library.KindArtist) {
		t.Errorf("the MusicBrainz provider claims to support artists")
	}

	identity, err := library.NewArtist("Air", library.UnknownID)
	if err != nil {
		t.Fatalf("creating artist identity: %s", err)
	}

	p.Fetch(&art.Request{Identity: identity}, func(*art.RawImage, error) {
		t.Errorf("handler called for an unsupported identity kind")
	})

	// Give an erroneously started fetch a moment to surface.
	time.Sleep(20 * time.Millisecond)
}
