package webserver

import (
	"crypto/subtle"
	"net/http"
)

// Handler wrapper used for basic authenticate. Its only job is to do the
// authentication and then pass the work to the Handler it wraps around
type BasicAuthHandler struct {
	wrapped  http.Handler // The actual handler that does the APP Logic job
	username string       // Username to be used for basic authenticate
	password string       // Password to be used for basic authenticate
}

// Implements the http.Handler interface and does the actual basic
// authenticate check for every request
func (hl BasicAuthHandler) ServeHTTP(writer http.ResponseWriter, req *http.Request) {
	user, pass, ok := req.BasicAuth()
	if !ok || !hl.authenticate(user, pass) {
		writer.Header().Set("WWW-Authenticate", `Basic realm="coverd"`)
		writer.WriteHeader(http.StatusUnauthorized)
		return
	}

	hl.wrapped.ServeHTTP(writer, req)
}

// Compares the credentials from the authentication header with the stored
// user and password and returns true if they pass.
func (hl BasicAuthHandler) authenticate(user, pass string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(hl.username))
	passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(hl.password))
	return userOK == 1 && passOK == 1
}
