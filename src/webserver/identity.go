package webserver

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/vankolev/coverd/src/library"
)

// albumFromQuery builds an album identity from the request's query string.
// Accepted parameters are "album", "artist" and "id".
func albumFromQuery(req *http.Request) (library.Identity, error) {
	q := req.URL.Query()

	id, err := libraryIDFromQuery(q.Get("id"))
	if err != nil {
		return library.Identity{}, err
	}

	return library.NewAlbum(q.Get("album"), q.Get("artist"), id)
}

// artistFromQuery builds an artist identity from the request's query string.
// Accepted parameters are "artist" and "id".
func artistFromQuery(req *http.Request) (library.Identity, error) {
	q := req.URL.Query()

	id, err := libraryIDFromQuery(q.Get("id"))
	if err != nil {
		return library.Identity{}, err
	}

	return library.NewArtist(q.Get("artist"), id)
}

func libraryIDFromQuery(value string) (int64, error) {
	if value == "" {
		return library.UnknownID, nil
	}

	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed id: %s", err)
	}

	return id, nil
}

// kindFromString maps the {kind} URL variable to an item kind.
func kindFromString(value string) (library.ItemKind, error) {
	switch value {
	case "album":
		return library.KindAlbum, nil
	case "artist":
		return library.KindArtist, nil
	}

	return 0, fmt.Errorf("unknown kind %q, must be album or artist", value)
}

// imageWidthFromQuery parses the "size" query parameter. Zero means the
// original size.
func imageWidthFromQuery(req *http.Request) (int, error) {
	value := req.URL.Query().Get("size")
	if value == "" || value == "original" {
		return 0, nil
	}

	width, err := strconv.Atoi(value)
	if err != nil || width < 1 {
		return 0, fmt.Errorf("size must be a positive number of pixels")
	}

	return width, nil
}
