package webserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/vankolev/coverd/src/backfill"
	"github.com/vankolev/coverd/src/webserver/webutils"
)

// BackfillHandler controls the bulk artwork backfill. POST starts a run,
// GET reports its progress and DELETE cancels it.
type BackfillHandler struct {
	orchestrator *backfill.Orchestrator
}

// NewBackfillHandler returns a handler around the given orchestrator.
func NewBackfillHandler(orchestrator *backfill.Orchestrator) *BackfillHandler {
	return &BackfillHandler{orchestrator: orchestrator}
}

type backfillArgs struct {
	Albums   bool `json:"albums"`
	Artists  bool `json:"artists"`
	WifiOnly bool `json:"wifi_only"`
}

type backfillStatus struct {
	State     string `json:"state"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
}

// ServeHTTP is required by the http.Handler's interface
func (bh BackfillHandler) ServeHTTP(
	writer http.ResponseWriter,
	req *http.Request,
) {
	switch req.Method {
	case http.MethodPost:
		bh.start(writer, req)
	case http.MethodDelete:
		bh.orchestrator.Cancel()
		writer.WriteHeader(http.StatusNoContent)
	default:
		bh.status(writer)
	}
}

func (bh BackfillHandler) start(writer http.ResponseWriter, req *http.Request) {
	args := backfillArgs{
		Albums:  true,
		Artists: true,
	}

	dec := json.NewDecoder(req.Body)
	if err := dec.Decode(&args); err != nil && !errors.Is(err, io.EOF) {
		webutils.JSONError(
			writer,
			"malformed request body: %s",
			http.StatusBadRequest,
			err,
		)
		return
	}

	err := bh.orchestrator.Start(args.Albums, args.Artists, args.WifiOnly)
	if errors.Is(err, backfill.ErrAlreadyRunning) {
		webutils.JSONError(writer, "%s", http.StatusConflict, err)
		return
	}
	if err != nil {
		webutils.JSONError(writer, "%s", http.StatusInternalServerError, err)
		return
	}

	writer.WriteHeader(http.StatusAccepted)
}

func (bh BackfillHandler) status(writer http.ResponseWriter) {
	state, progress := bh.orchestrator.Status()

	writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(writer).Encode(backfillStatus{
		State:     state.String(),
		Completed: progress.Completed,
		Total:     progress.Total,
	})
}
