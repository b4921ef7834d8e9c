package art

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pborman/uuid"
	cca "gopkg.in/mineo/gocaa.v1"

	"github.com/vankolev/coverd/src/library"
	"github.com/vankolev/coverd/src/queue"
)

const (
	musicBrainzReleaseEndpoint   = "%s/ws/2/release/"
	musicBrainzReleaseQueryValue = "release:%s AND artist:%s"

	// coverArtURLLabel is what CancelAll predicates and logs see for the
	// Cover Art Archive step which goes through the gocaa client instead
	// of a raw URL.
	coverArtURLLabel = "https://coverartarchive.org/release/%s/front-500"
)

//counterfeiter:generate . CAAClient

// CAAClient represents a Cover Art Archive client for getting a release front
// image.
type CAAClient interface {
	GetReleaseFront(mbid uuid.UUID, size int) (image cca.CoverArtImage, err error)
}

// MusicBrainzProvider finds album covers. It searches the MusicBrainz API for
// releases matching the requested album and artist names, verifies every
// candidate against the request and downloads the front image of the first
// verified release which has one in the Cover Art Archive.
//
// Why candidates instead of a single result? A certain album may have many
// records in MusicBrainz which correspond to different releases for this
// album. Perhaps for multiple years or countries. Generally all releases have
// the same cover art so any verified one is accepted.
type MusicBrainzProvider struct {
	queue     *queue.Queue
	caaClient CAAClient

	musicBrainzAPIHost string
}

// NewMusicBrainzProvider returns a fully configured MusicBrainzProvider which
// executes its remote operations on q.
func NewMusicBrainzProvider(q *queue.Queue, useragent string) *MusicBrainzProvider {
	return &MusicBrainzProvider{
		queue:              q,
		caaClient:          cca.NewCAAClient(useragent),
		musicBrainzAPIHost: "https://musicbrainz.org",
	}
}

// Supports implements Provider. MusicBrainz lookups here are for albums only.
func (p *MusicBrainzProvider) Supports(kind library.ItemKind) bool {
	return kind == library.KindAlbum
}

// Fetch implements the Provider interface.
func (p *MusicBrainzProvider) Fetch(req *Request, handler Handler) {
	if !p.Supports(req.Identity.Kind) {
		return
	}

	searchURL := fmt.Sprintf(musicBrainzReleaseEndpoint, p.musicBrainzAPIHost)
	query := url.Values{}
	query.Set("query", fmt.Sprintf(
		musicBrainzReleaseQueryValue,
		req.Identity.Name,
		req.Identity.ArtistName,
	))
	query.Set("limit", fmt.Sprintf("%d", maxCandidates))

	p.queue.Enqueue(&queue.Request{
		URL:     searchURL + "?" + query.Encode(),
		Tag:     req.Identity.Kind.String(),
		Handler: func(resp *queue.Response, err error) {
			if failure := remoteFailure(resp, err); failure != nil {
				handler(nil, failure)
				return
			}

			ids, err := p.verifiedReleaseIDs(req, resp.Body)
			if err != nil {
				handler(nil, err)
				return
			}

			p.downloadFront(req, ids, 0, handler)
		},
	})
}

// verifiedReleaseIDs decodes a MusicBrainz release search response and
// returns the IDs of the releases whose title matches the requested album
// name. The artist credit is checked too when the response carries one.
func (p *MusicBrainzProvider) verifiedReleaseIDs(
	req *Request,
	body []byte,
) ([]string, error) {
	root := mbReleaseMetadata{}
	if err := xml.Unmarshal(body, &root); err != nil {
		return nil, &ParseError{Err: err}
	}

	var ids []string
	for i, release := range root.ReleaseList.Releases {
		if i >= maxCandidates {
			break
		}

		if !namesMatch(req.Identity.Name, release.Title) {
			continue
		}

		credited := release.ArtistCredit.Name()
		if req.Identity.ArtistName != "" && credited != "" &&
			!namesMatch(req.Identity.ArtistName, credited) {
			continue
		}

		ids = append(ids, release.ID)
	}

	if len(ids) < 1 {
		return nil, ErrNoMatch
	}

	return ids, nil
}

// downloadFront tries the Cover Art Archive for the verified release IDs one
// after another starting at index. The first release which has a front image
// wins. Archive misses (HTTP 404) move on to the next candidate, everything
// else fails the whole fetch.
func (p *MusicBrainzProvider) downloadFront(
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
	sourceURL := fmt.Sprintf(coverArtURLLabel, mbid)

	p.queue.Enqueue(&queue.Request{
		URL: sourceURL,
		Tag: req.Identity.Kind.String(),
		Do: func(ctx context.Context) (*queue.Response, error) {
			img, err := p.caaClient.GetReleaseFront(
				cca.StringToUUID(mbid),
				cca.ImageSize500,
			)
			if httpErr, ok := err.(cca.HTTPError); ok {
				return &queue.Response{StatusCode: httpErr.StatusCode}, nil
			}
			if err != nil {
				return nil, err
			}

			return &queue.Response{StatusCode: http.StatusOK, Body: img.Data}, nil
		},
		Handler: func(resp *queue.Response, err error) {
			if err == nil && resp.StatusCode == http.StatusNotFound {
				p.downloadFront(req, ids, index+1, handler)
				return
			}

			if failure := remoteFailure(resp, err); failure != nil {
				handler(nil, failure)
				return
			}

			handler(&RawImage{
				Bytes:     resp.Body,
				SourceURL: sourceURL,
				Request:   req,
			}, nil)
		},
	})
}

// The following are structures only used to decode the XML response from the
// MusicBrainz API. And only the stuff we are interested in and nothing more.
type mbReleaseMetadata struct {
	ReleaseList mbReleaseList `xml:"release-list"`
}

type mbReleaseList struct {
	Releases []mbRelease `xml:"release"`
}

type mbRelease struct {
	ID           string         `xml:"id,attr"`
	Score        int            `xml:"score,attr"`
	Title        string         `xml:"title"`
	ArtistCredit mbArtistCredit `xml:"artist-credit"`
}

type mbArtistCredit struct {
	NameCredits []mbNameCredit `xml:"name-credit"`
}

// Name returns the name of the first credited artist or an empty string.
func (c mbArtistCredit) Name() string {
	if len(c.NameCredits) < 1 {
		return ""
	}
	return c.NameCredits[0].ArtistName
}

type mbNameCredit struct {
	ArtistName string `xml:"artist>name"`
}
