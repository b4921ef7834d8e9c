package art

import (
	"github.com/vankolev/coverd/src/library"
)

// normalized is the form in which all name comparisons between the request
// and the remote candidates happen. It is shared with the cache key
// derivation for identities lacking a stable host library ID.
func normalized(s string) string {
	return library.NormalizedName(s)
}

// namesMatch tells whether a candidate name reported by a remote service
// matches the name the request asked for.
func namesMatch(expected, candidate string) bool {
	return normalized(expected) == normalized(candidate)
}
