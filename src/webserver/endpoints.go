package webserver

import "net/http"

// Endpoints in the first version of the coverd API.
const (
	APIv1EndpointAlbumArtwork  = "/v1/album/artwork"
	APIv1EndpointArtistImage   = "/v1/artist/image"
	APIv1EndpointBackfill      = "/v1/backfill"
	APIv1EndpointCache         = "/v1/cache/{kind}"
	APIv1EndpointCacheNotFound = "/v1/cache/{kind}/not-found"
	APIv1EndpointNetworkPolicy = "/v1/network-policy"
	APIv1EndpointEvents        = "/v1/events"
)

// APIv1Methods maps all of the API endpoints to the HTTP methods they
// support.
var APIv1Methods = map[string][]string{
	APIv1EndpointAlbumArtwork: {
		http.MethodGet,
		http.MethodHead,
		http.MethodPut,
		http.MethodDelete,
	},
	APIv1EndpointArtistImage: {
		http.MethodGet,
		http.MethodHead,
		http.MethodPut,
		http.MethodDelete,
	},
	APIv1EndpointBackfill: {
		http.MethodGet,
		http.MethodPost,
		http.MethodDelete,
	},
	APIv1EndpointCache: {
		http.MethodDelete,
	},
	APIv1EndpointCacheNotFound: {
		http.MethodDelete,
	},
	APIv1EndpointNetworkPolicy: {
		http.MethodPost,
	},
	APIv1EndpointEvents: {
		http.MethodGet,
	},
}
