package art

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"github.com/vankolev/coverd/src/library"
	"github.com/vankolev/coverd/src/queue"
)

const (
	musicBrainzArtistEndpoint   = "%s/ws/2/artist/"
	musicBrainzArtistQueryValue = "artist:%s"

	fanartArtistEndpoint = "%s/v3/music/%s?api_key=%s"
)

// FanartProvider finds artist images in the fanart.tv database. fanart.tv is
// keyed by MusicBrainz artist IDs so the requested artist name is first
// resolved through a MusicBrainz artist search and every candidate is
// verified by name before its fanart.tv record is consulted.
type FanartProvider struct {
	queue  *queue.Queue
	apiKey string

	musicBrainzAPIHost string
	fanartAPIHost      string
}

// NewFanartProvider returns a fully configured FanartProvider. The API key is
// obtained with a free registration at fanart.tv and without one the provider
// reports ErrNotConfigured for every fetch.
func NewFanartProvider(q *queue.Queue, apiKey string) *FanartProvider {
	return &FanartProvider{
		queue:              q,
		apiKey:             apiKey,
		musicBrainzAPIHost: "https://musicbrainz.org",
		fanartAPIHost:      "https://webservice.fanart.tv",
	}
}

// Supports implements Provider. fanart.tv lookups here are for artists only.
func (p *FanartProvider) Supports(kind library.ItemKind) bool {
	return kind == library.KindArtist
}

// Fetch implements the Provider interface.
func (p *FanartProvider) Fetch(req *Request, handler Handler) {
	if !p.Supports(req.Identity.Kind) {
		return
	}

	if p.apiKey == "" {
		handler(nil, ErrNotConfigured)
		return
	}

	searchURL := fmt.Sprintf(musicBrainzArtistEndpoint, p.musicBrainzAPIHost)
	query := url.Values{}
	query.Set("query", fmt.Sprintf(musicBrainzArtistQueryValue, req.Identity.Name))
	query.Set("limit", fmt.Sprintf("%d", maxCandidates))

	p.queue.Enqueue(&queue.Request{
		URL: searchURL + "?" + query.Encode(),
		Tag: req.Identity.Kind.String(),
		Handler: func(resp *queue.Response, err error) {
			if failure := remoteFailure(resp, err); failure != nil {
				handler(nil, failure)
				return
			}

			ids, err := p.verifiedArtistIDs(req, resp.Body)
			if err != nil {
				handler(nil, err)
				return
			}

			p.fetchThumb(req, ids, 0, handler)
		},
	})
}

// verifiedArtistIDs decodes a MusicBrainz artist search response and returns
// the IDs of the artists whose name matches the request.
func (p *FanartProvider) verifiedArtistIDs(
	req *Request,
	body []byte,
) ([]string, error) {
	root := mbArtistSearchData{}
	if err := xml.Unmarshal(body, &root); err != nil {
		return nil, &ParseError{Err: err}
	}

	var ids []string
	for i, artist := range root.ArtistList.Artists {
		if i >= maxCandidates {
			break
		}
		if namesMatch(req.Identity.Name, artist.Name) {
			ids = append(ids, artist.ID)
		}
	}

	if len(ids) < 1 {
		return nil, ErrNoMatch
	}

	return ids, nil
}

// fetchThumb looks up the fanart.tv record of the verified artist IDs one
// after another starting at index. Artists unknown to fanart.tv or without a
// single thumb image move on to the next candidate.
func (p *FanartProvider) fetchThumb(
	req *Request,
	ids []string,
	index int,
	handler Handler,
) {
	if index >= len(ids) {
		handler(nil, ErrNoMatch)
		return
	}

	mbid := ids[index]
	req.MusicBrainzID = mbid

	p.queue.Enqueue(&queue.Request{
		URL: fmt.Sprintf(fanartArtistEndpoint, p.fanartAPIHost, mbid, p.apiKey),
		Tag: req.Identity.Kind.String(),
		Handler: func(resp *queue.Response, err error) {
			if err == nil && resp.StatusCode == http.StatusNotFound {
				p.fetchThumb(req, ids, index+1, handler)
				return
			}

			if failure := remoteFailure(resp, err); failure != nil {
				handler(nil, failure)
				return
			}

			imageURL, err := bestThumbURL(resp.Body)
			if err != nil {
				handler(nil, err)
				return
			}
			if imageURL == "" {
				p.fetchThumb(req, ids, index+1, handler)
				return
			}

			p.download(req, imageURL, handler)
		},
	})
}

// download gets the image bytes themselves.
func (p *FanartProvider) download(req *Request, imageURL string, handler Handler) {
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

// bestThumbURL picks the most liked artist thumb from a fanart.tv artist
// response. An empty string with no error means the record exists but has no
// usable thumbs.
func bestThumbURL(body []byte) (string, error) {
	var record fanartArtist
	if err := json.Unmarshal(body, &record); err != nil {
		return "", &ParseError{Err: err}
	}

	thumbs := record.ArtistThumbs
	if len(thumbs) < 1 {
		return "", nil
	}

	sort.SliceStable(thumbs, func(i, j int) bool {
		return thumbs[i].likes() > thumbs[j].likes()
	})

	return thumbs[0].URL, nil
}

// fanartArtist matches the fanart.tv JSON representation of an artist. It
// defines only the fields strictly required by the provider.
type fanartArtist struct {
	Name         string        `json:"name"`
	MBID         string        `json:"mbid_id"`
	ArtistThumbs []fanartImage `json:"artistthumb"`
}

type fanartImage struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Likes string `json:"likes"`
}

// likes returns the likes counter which fanart.tv serves as a string.
func (i fanartImage) likes() int {
	count, _ := strconv.Atoi(i.Likes)
	return count
}

// mbArtistSearchData and friends decode the XML response of the MusicBrainz
// artist search endpoint.
type mbArtistSearchData struct {
	ArtistList mbArtistList `xml:"artist-list"`
}

type mbArtistList struct {
	Artists []mbArtist `xml:"artist"`
}

type mbArtist struct {
	ID    string `xml:"id,attr"`
	Score int    `xml:"score,attr"`
	Name  string `xml:"name"`
}
