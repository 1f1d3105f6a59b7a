// Copyright (c) 2026 Eventhub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxkey defines typed context keys used by middleware, handlers and workers.
//
// An unexported key type keeps these values from colliding with keys set by
// third-party packages on the same [context.Context].
package ctxkey

// key is the private type behind every context key.
type key string

const (
	// KeyRequestID is the context key for the X-Request-ID correlation value.
	KeyRequestID key = "request_id"

	// KeyLogger is the context key for the per-request or per-job [*log/slog.Logger].
	KeyLogger key = "logger"

	// KeySourceID is the context key for the scraper source an ingestion runs for.
	KeySourceID key = "source_id"
)
