package queue

import "net/http"

// SetHTTPClient replaces the queue's HTTP client. Only useful for tests which
// need clients trusting their own TLS certificates.
func (q *Queue) SetHTTPClient(client *http.Client) {
	q.client = client
}
