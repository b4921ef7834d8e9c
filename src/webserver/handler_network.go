package webserver

import (
	"encoding/json"
	"net/http"

	"github.com/vankolev/coverd/src/backfill"
	"github.com/vankolev/coverd/src/netpolicy"
	"github.com/vankolev/coverd/src/queue"
	"github.com/vankolev/coverd/src/webserver/webutils"
)

// NetworkPolicyHandler lets the host tell the daemon whether reaching out
// to the internet is allowed at the moment. When an update leaves the
// daemon without a usable network, by losing it outright or by leaving
// wifi while something wifi restricted is running, the remote operations
// already underway are cancelled.
type NetworkPolicyHandler struct {
	queue    *queue.Queue
	policy   *netpolicy.State
	backfill *backfill.Orchestrator
	wifiOnly bool
}

// NewNetworkPolicyHandler returns a handler updating the given request
// queue and policy state. wifiOnly is the daemon-wide configuration flag
// restricting all fetching to wifi.
func NewNetworkPolicyHandler(
	q *queue.Queue,
	policy *netpolicy.State,
	orchestrator *backfill.Orchestrator,
	wifiOnly bool,
) *NetworkPolicyHandler {
	return &NetworkPolicyHandler{
		queue:    q,
		policy:   policy,
		backfill: orchestrator,
		wifiOnly: wifiOnly,
	}
}

// ServeHTTP is required by the http.Handler's interface
func (nph NetworkPolicyHandler) ServeHTTP(
	writer http.ResponseWriter,
	req *http.Request,
) {
	var args struct {
		Allowed *bool `json:"allowed"`
		Wifi    *bool `json:"wifi"`
	}

	if err := json.NewDecoder(req.Body).Decode(&args); err != nil {
		webutils.JSONError(
			writer,
			"malformed request body: %s",
			http.StatusBadRequest,
			err,
		)
		return
	}
	if args.Allowed == nil && args.Wifi == nil {
		webutils.JSONError(
			writer,
			"at least one of allowed and wifi is required",
			http.StatusBadRequest,
		)
		return
	}

	if args.Wifi != nil {
		nph.policy.SetWifi(*args.Wifi)
	}
	if args.Allowed != nil {
		nph.policy.SetAllowed(*args.Allowed)
		nph.queue.OnNetworkPolicyChanged(*args.Allowed)
	}

	wifiRestricted := nph.wifiOnly || nph.backfill.ActiveWifiOnly()
	if !nph.policy.FetchAllowed(wifiRestricted) {
		nph.queue.CancelAll(nil)
	}

	writer.WriteHeader(http.StatusNoContent)
}
