// Package webutils has common functions used among the HTTP handlers.
package webutils

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// JSONError writes a JSON formatted error message to w and sets the
// response status code to statusCode.
func JSONError(
	w http.ResponseWriter,
	format string,
	statusCode int,
	args ...interface{},
) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": fmt.Sprintf(format, args...),
	})
}
