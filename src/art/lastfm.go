package art

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/vankolev/coverd/src/library"
	"github.com/vankolev/coverd/src/queue"
)

const lastFmAlbumInfoEndpoint = "%s/2.0/?method=album.getinfo&%s"

// lastFmImageSizes orders the size labels of the Last.fm image list from the
// most to the least preferred one.
var lastFmImageSizes = []string{"mega", "extralarge", "large", "medium"}

// LastFmProvider finds album covers via the Last.fm album.getinfo call. This
// is a single-result source: Last.fm either knows the album or it does not,
// so the verification step has exactly one candidate to accept or reject.
type LastFmProvider struct {
	queue  *queue.Queue
	apiKey string

	lastFmAPIHost string
}

// NewLastFmProvider returns a fully configured LastFmProvider. Without an API
// key the provider reports ErrNotConfigured for every fetch.
func NewLastFmProvider(q *queue.Queue, apiKey string) *LastFmProvider {
	return &LastFmProvider{
		queue:         q,
		apiKey:        apiKey,
		lastFmAPIHost: "https://ws.audioscrobbler.com",
	}
}

// Supports implements Provider. Last.fm lookups here are for albums only.
func (p *LastFmProvider) Supports(kind library.ItemKind) bool {
	return kind == library.KindAlbum
}

// Fetch implements the Provider interface.
func (p *LastFmProvider) Fetch(req *Request, handler Handler) {
	if !p.Supports(req.Identity.Kind) {
		return
	}

	if p.apiKey == "" {
		handler(nil, ErrNotConfigured)
		return
	}

	query := url.Values{}
	query.Set("api_key", p.apiKey)
	query.Set("artist", req.Identity.ArtistName)
	query.Set("album", req.Identity.Name)
	query.Set("autocorrect", "1")
	query.Set("format", "json")

	p.queue.Enqueue(&queue.Request{
		URL: fmt.Sprintf(lastFmAlbumInfoEndpoint, p.lastFmAPIHost, query.Encode()),
		Tag: req.Identity.Kind.String(),
		Handler: func(resp *queue.Response, err error) {
			// Last.fm reports "no such album" as an error document
			// with HTTP 200 but some frontends send 404 instead.
			if err == nil && resp.StatusCode == 404 {
				handler(nil, ErrNoMatch)
				return
			}

			if failure := remoteFailure(resp, err); failure != nil {
				handler(nil, failure)
				return
			}

			imageURL, err := p.albumImageURL(req, resp.Body)
			if err != nil {
				handler(nil, err)
				return
			}
			if imageURL == "" {
				// The album is known but has no cover on record.
				handler(&RawImage{Request: req}, nil)
				return
			}

			p.download(req, imageURL, handler)
		},
	})
}

// albumImageURL decodes an album.getinfo response, verifies the single
// candidate it carries and returns the URL of the largest cover image. An
// empty URL with no error means a verified album without a cover.
func (p *LastFmProvider) albumImageURL(req *Request, body []byte) (string, error) {
	var root lastFmAlbumInfo
	if err := json.Unmarshal(body, &root); err != nil {
		return "", &ParseError{Err: err}
	}

	if root.Error != 0 || root.Album == nil {
		return "", ErrNoMatch
	}

	album := root.Album
	if !namesMatch(req.Identity.Name, album.Name) {
		return "", ErrNoMatch
	}
	if req.Identity.ArtistName != "" && album.Artist != "" &&
		!namesMatch(req.Identity.ArtistName, album.Artist) {
		return "", ErrNoMatch
	}

	if album.MBID != "" {
		req.MusicBrainzID = album.MBID
	}

	for _, size := range lastFmImageSizes {
		for _, img := range album.Images {
			if img.Size == size && img.URL != "" {
				return img.URL, nil
			}
		}
	}

	return "", nil
}

func (p *LastFmProvider) download(req *Request, imageURL string, handler Handler) {
	imageURL = upgradeToHTTPS(imageURL)

	p.queue.Enqueue(&queue.Request{
		URL: imageURL,
		Tag: req.Identity.Kind.String(),
		Handler: func(resp *queue.Response, err error) {
			if failure := remoteFailure(resp, err); failure != nil {
				handler(nil, failure)
				return
			}

			handler(&RawImage{
				Bytes:     resp.Body,
				SourceURL: imageURL,
				Request:   req,
			}, nil)
		},
	})
}

// lastFmAlbumInfo and friends decode the JSON response of the album.getinfo
// call. Only the fields the provider needs are defined.
type lastFmAlbumInfo struct {
	Album *lastFmAlbum `json:"album"`
	Error int          `json:"error"`
}

type lastFmAlbum struct {
	Name   string        `json:"name"`
	Artist string        `json:"artist"`
	MBID   string        `json:"mbid"`
	Images []lastFmImage `json:"image"`
}

type lastFmImage struct {
	URL  string `json:"#text"`
	Size string `json:"size"`
}
