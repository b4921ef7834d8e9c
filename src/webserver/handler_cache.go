package webserver

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vankolev/coverd/src/artcache"
	"github.com/vankolev/coverd/src/webserver/webutils"
)

// CacheHandler wipes the whole artwork cache for one item kind, stored
// files included.
type CacheHandler struct {
	cache *artcache.Cache
}

// NewCacheHandler returns a handler around the given cache.
func NewCacheHandler(cache *artcache.Cache) *CacheHandler {
	return &CacheHandler{cache: cache}
}

// ServeHTTP is required by the http.Handler's interface
func (ch CacheHandler) ServeHTTP(writer http.ResponseWriter, req *http.Request) {
	kind, err := kindFromString(mux.Vars(req)["kind"])
	if err != nil {
		webutils.JSONError(writer, "%s", http.StatusBadRequest, err)
		return
	}

	if err := ch.cache.ClearAll(req.Context(), kind); err != nil {
		webutils.JSONError(writer, "%s", http.StatusInternalServerError, err)
		return
	}

	writer.WriteHeader(http.StatusNoContent)
}

// CacheNotFoundHandler forgets the negative records for one item kind so
// that everything which came out empty before may be tried again.
type CacheNotFoundHandler struct {
	cache *artcache.Cache
}

// NewCacheNotFoundHandler returns a handler around the given cache.
func NewCacheNotFoundHandler(cache *artcache.Cache) *CacheNotFoundHandler {
	return &CacheNotFoundHandler{cache: cache}
}

// ServeHTTP is required by the http.Handler's interface
func (cnh CacheNotFoundHandler) ServeHTTP(
	writer http.ResponseWriter,
	req *http.Request,
) {
	kind, err := kindFromString(mux.Vars(req)["kind"])
	if err != nil {
		webutils.JSONError(writer, "%s", http.StatusBadRequest, err)
		return
	}

	if err := cnh.cache.ClearNotFound(req.Context(), kind); err != nil {
		webutils.JSONError(writer, "%s", http.StatusInternalServerError, err)
		return
	}

	writer.WriteHeader(http.StatusNoContent)
}
