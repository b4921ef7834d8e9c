package webserver

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/vankolev/coverd/src/artcache"
	"github.com/vankolev/coverd/src/fetch"
	"github.com/vankolev/coverd/src/library"
	"github.com/vankolev/coverd/src/webserver/webutils"
)

// maxUploadSize is the biggest image upload which will be accepted.
const maxUploadSize = 5 * 1024 * 1024

// artworkCacheControl is the Cache-Control header value for served
// artwork. Seven days.
const artworkCacheControl = "max-age=604800"

// AlbumArtworkHandler handles the album artwork endpoint. Getting,
// uploading and removing the front cover of an album.
type AlbumArtworkHandler struct {
	engine *fetch.Engine
	cache  *artcache.Cache
}

// NewAlbumArtworkHandler returns a new album artwork handler using the
// supplied resolution engine and cache.
func NewAlbumArtworkHandler(
	engine *fetch.Engine,
	cache *artcache.Cache,
) *AlbumArtworkHandler {
	return &AlbumArtworkHandler{
		engine: engine,
		cache:  cache,
	}
}

// ServeHTTP is required by the http.Handler's interface
func (aah AlbumArtworkHandler) ServeHTTP(
	writer http.ResponseWriter,
	req *http.Request,
) {
	identity, err := albumFromQuery(req)
	if err != nil {
		webutils.JSONError(writer, "%s", http.StatusBadRequest, err)
		return
	}

	switch req.Method {
	case http.MethodDelete:
		err = removeArtwork(writer, req, aah.engine, identity)
	case http.MethodPut:
		err = uploadArtwork(writer, req, aah.cache, identity)
	default:
		err = findArtwork(writer, req, aah.engine, identity)
	}

	if err != nil {
		writer.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintln(writer, err.Error())
	}
}

// findArtwork writes the stored image for the identity to the response.
// A StateUnknown identity gets a 404 while a resolution attempt is kicked
// off in the background, so asking again later may well succeed.
func findArtwork(
	writer http.ResponseWriter,
	req *http.Request,
	engine *fetch.Engine,
	identity library.Identity,
) error {
	width, err := imageWidthFromQuery(req)
	if err != nil {
		webutils.JSONError(writer, "%s", http.StatusBadRequest, err)
		return nil
	}

	img, err := engine.FetchSync(req.Context(), identity, width)
	if errors.Is(err, fetch.ErrNotFound) {
		webutils.JSONError(
			writer,
			"no artwork for %s",
			http.StatusNotFound,
			identity,
		)
		return nil
	}
	if err != nil {
		return err
	}

	writer.Header().Set("Content-Type", "image/jpeg")
	writer.Header().Set("Cache-Control", artworkCacheControl)
	_, err = writer.Write(img)
	return err
}

// uploadArtwork stores the request body as the image for the identity,
// overriding whatever the providers may have found.
func uploadArtwork(
	writer http.ResponseWriter,
	req *http.Request,
	cache *artcache.Cache,
	identity library.Identity,
) error {
	body, err := io.ReadAll(io.LimitReader(req.Body, maxUploadSize))
	if err != nil {
		return fmt.Errorf("reading request body: %w", err)
	}
	if len(body) == 0 {
		webutils.JSONError(
			writer,
			"uploading an empty image is not allowed",
			http.StatusBadRequest,
		)
		return nil
	}

	if err := cache.Store(req.Context(), identity, "", body); err != nil {
		return err
	}

	writer.WriteHeader(http.StatusCreated)
	return nil
}

// removeArtwork forgets the stored image for the identity and starts a
// fresh resolution attempt.
func removeArtwork(
	writer http.ResponseWriter,
	req *http.Request,
	engine *fetch.Engine,
	identity library.Identity,
) error {
	if err := engine.ResetImage(req.Context(), identity); err != nil {
		return err
	}

	writer.WriteHeader(http.StatusNoContent)
	return nil
}
