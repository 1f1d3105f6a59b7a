// Copyright (c) 2026 Eventhub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ingest

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/riverqueue/river"

	"github.com/taibuivan/eventhub/internal/core/event"
	"github.com/taibuivan/eventhub/internal/core/ingest/externalid"
	"github.com/taibuivan/eventhub/internal/platform/apperr"
	"github.com/taibuivan/eventhub/internal/platform/ctxutil"
	requestutil "github.com/taibuivan/eventhub/internal/platform/request"
	"github.com/taibuivan/eventhub/internal/platform/respond"
)

// uniqueWindow suppresses identical submissions while one is still pending.
const uniqueWindow = 10 * time.Minute

// Handler accepts observations from scraper collaborators.
type Handler struct {
	enqueuer Enqueuer
}

// NewHandler constructs a new ingest [Handler].
func NewHandler(enqueuer Enqueuer) *Handler {
	return &Handler{enqueuer: enqueuer}
}

// Routes returns the ingest router, mounted at /api/v1/ingest.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Post("/", handler.enqueue)
	return router
}

// enqueueResponse acknowledges an accepted observation.
type enqueueResponse struct {
	JobID     int64 `json:"job_id"`
	Duplicate bool  `json:"duplicate"`
}

/*
POST /api/v1/ingest.

Description: The external id is treated as a stable base id and rewritten to
the convention for the event kind (date suffix added for multi-date and
showtime events, stripped for the rest). The observation is then validated up
front so that bad input is rejected to the scraper instead of being cancelled
later in the queue.

Request:
  - Body: Args

Response:
  - 202: enqueueResponse
  - 400: VALIDATION_ERROR / MISSING_REQUIRED_FIELD
*/
func (handler *Handler) enqueue(writer http.ResponseWriter, request *http.Request) {
	var args Args
	if err := requestutil.DecodeJSON(writer, request, &args); err != nil {
		respond.Error(writer, request, err)
		return
	}
	normalizeExternalID(&args.Event)
	if err := args.Check(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.enqueuer.Insert(request.Context(), args, &river.InsertOpts{
		UniqueOpts: river.UniqueOpts{ByArgs: true, ByPeriod: uniqueWindow},
	})
	if err != nil {
		respond.Error(writer, request, apperr.Internal(err))
		return
	}

	ctxutil.GetLogger(request.Context()).InfoContext(request.Context(), "ingest_job_enqueued",
		slog.Int64("job_id", result.Job.ID),
		slog.String("source_id", args.SourceID),
		slog.String("external_id", args.Event.ExternalID),
		slog.Bool("duplicate", result.UniqueSkippedAsDuplicate),
	)

	respond.JSON(writer, http.StatusAccepted, respond.SuccessEnvelope{Data: enqueueResponse{
		JobID:     result.Job.ID,
		Duplicate: result.UniqueSkippedAsDuplicate,
	}})
}

// normalizeExternalID rewrites a non-empty id with a known kind to its
// compliant form. Anything else is left for Check to report.
func normalizeExternalID(data *event.EventData) {
	if strings.TrimSpace(data.ExternalID) == "" || data.StartAt.IsZero() {
		return
	}
	kind, err := event.ParseKind(string(data.Kind))
	if err != nil {
		return
	}
	data.ExternalID = externalid.Build(data.ExternalID, kind, data.StartAt)
}
