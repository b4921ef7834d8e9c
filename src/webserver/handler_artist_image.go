package webserver

import (
	"fmt"
	"net/http"

	"github.com/vankolev/coverd/src/artcache"
	"github.com/vankolev/coverd/src/fetch"
	"github.com/vankolev/coverd/src/webserver/webutils"
)

// ArtistImageHandler handles the artist image endpoint. Getting, uploading
// and removing the image of an artist.
type ArtistImageHandler struct {
	engine *fetch.Engine
	cache  *artcache.Cache
}

// NewArtistImageHandler returns a new artist image handler using the
// supplied resolution engine and cache.
func NewArtistImageHandler(
	engine *fetch.Engine,
	cache *artcache.Cache,
) *ArtistImageHandler {
	return &ArtistImageHandler{
		engine: engine,
		cache:  cache,
	}
}

// ServeHTTP is required by the http.Handler's interface
func (aih ArtistImageHandler) ServeHTTP(
	writer http.ResponseWriter,
	req *http.Request,
) {
	identity, err := artistFromQuery(req)
	if err != nil {
		webutils.JSONError(writer, "%s", http.StatusBadRequest, err)
		return
	}

	switch req.Method {
	case http.MethodDelete:
		err = removeArtwork(writer, req, aih.engine, identity)
	case http.MethodPut:
		err = uploadArtwork(writer, req, aih.cache, identity)
	default:
		err = findArtwork(writer, req, aih.engine, identity)
	}

	if err != nil {
		writer.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintln(writer, err.Error())
	}
}
