// Copyright (c) 2026 Eventhub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package telemetry carries structured operational signals from the ingestion core
to whoever monitors it.

The core only knows the [Emitter] interface. In production the [Bus] publishes
every signal on an in-process watermill channel and a [Recorder] subscriber turns
them into Prometheus counters; tests plug in a [Collector].

Signals:

  - city_name_rejected: a scraper supplied a postcode, address or number as a city.
  - lock_timeout: a fingerprint lock could not be acquired in time.
  - duplicate_detected: an observation was merged into an existing event.
  - ingest_failed: any other ingestion failure, tagged with its category.
*/
package telemetry

import (
	"context"
	"sync"
	"time"
)

// Kind names a signal.
type Kind string

const (
	KindCityNameRejected  Kind = "city_name_rejected"
	KindLockTimeout       Kind = "lock_timeout"
	KindDuplicateDetected Kind = "duplicate_detected"
	KindIngestFailed      Kind = "ingest_failed"
)

// Signal is one structured observability record.
type Signal struct {
	Kind        Kind      `json:"kind"`
	Source      string    `json:"source,omitempty"`
	Value       string    `json:"value,omitempty"`
	Country     string    `json:"country,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	Layer       string    `json:"layer,omitempty"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	EventID     string    `json:"event_id,omitempty"`
	Category    string    `json:"category,omitempty"`
	At          time.Time `json:"at"`
}

// Emitter accepts signals. Implementations must be safe for concurrent use and
// must never block the ingestion path for long.
type Emitter interface {
	Emit(ctx context.Context, signal Signal)
}

// Nop discards every signal.
type Nop struct{}

// Emit implements [Emitter].
func (Nop) Emit(context.Context, Signal) {}

// Collector keeps signals in memory.
type Collector struct {
	mu      sync.Mutex
	signals []Signal
}

// Emit implements [Emitter].
func (c *Collector) Emit(_ context.Context, signal Signal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.signals = append(c.signals, signal)
}

// Signals returns a copy of everything collected so far.
func (c *Collector) Signals() []Signal {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Signal, len(c.signals))
	copy(out, c.signals)
	return out
}

// Count returns how many signals of kind were collected.
func (c *Collector) Count(kind Kind) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, s := range c.signals {
		if s.Kind == kind {
			n++
		}
	}
	return n
}
