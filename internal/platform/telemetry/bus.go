// Copyright (c) 2026 Eventhub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	json "github.com/goccy/go-json"

	"github.com/taibuivan/eventhub/internal/platform/constants"
	"github.com/taibuivan/eventhub/internal/platform/metrics"
)

// outputBuffer is the per-subscriber channel depth.
const outputBuffer = 1024

// # Bus

// Bus publishes signals on an in-process watermill channel.
type Bus struct {
	pubsub *gochannel.GoChannel
	logger *slog.Logger
}

// NewBus creates a signal bus.
func NewBus(logger *slog.Logger) *Bus {
	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: outputBuffer,
	}, watermill.NewSlogLogger(logger))

	return &Bus{pubsub: pubsub, logger: logger}
}

// Emit implements [Emitter]. Publishing failures are logged, never returned:
// losing a signal must not fail an ingestion.
func (bus *Bus) Emit(ctx context.Context, signal Signal) {
	if signal.At.IsZero() {
		signal.At = time.Now().UTC()
	}

	payload, err := json.Marshal(signal)
	if err != nil {
		bus.logger.ErrorContext(ctx, "signal_marshal_failed", slog.String("kind", string(signal.Kind)), slog.Any("error", err))
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("kind", string(signal.Kind))

	if err := bus.pubsub.Publish(constants.TopicSignals, msg); err != nil {
		bus.logger.ErrorContext(ctx, "signal_publish_failed", slog.String("kind", string(signal.Kind)), slog.Any("error", err))
	}
}

// Subscribe returns the signal stream. The channel closes when ctx is done.
func (bus *Bus) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	return bus.pubsub.Subscribe(ctx, constants.TopicSignals)
}

// Close shuts the underlying channel down.
func (bus *Bus) Close() error {
	return bus.pubsub.Close()
}

// # Recorder

// Recorder consumes the bus and records every signal as metrics.
//
// It implements suture.Service so the supervisor restarts it if it ever returns.
type Recorder struct {
	bus    *Bus
	logger *slog.Logger
}

// NewRecorder creates a recorder for bus.
func NewRecorder(bus *Bus, logger *slog.Logger) *Recorder {
	return &Recorder{bus: bus, logger: logger}
}

// Serve subscribes and records until ctx is cancelled.
func (recorder *Recorder) Serve(ctx context.Context) error {
	messages, err := recorder.bus.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("telemetry: subscribe: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}

			var signal Signal
			if err := json.Unmarshal(msg.Payload, &signal); err != nil {
				recorder.logger.Warn("signal_decode_failed", slog.String("message_id", msg.UUID), slog.Any("error", err))
				msg.Ack()
				continue
			}

			recorder.Record(signal)
			msg.Ack()
		}
	}
}

// String names the service in supervisor logs.
func (recorder *Recorder) String() string { return "signal-recorder" }

// Record updates the counters for one signal.
func (recorder *Recorder) Record(signal Signal) {
	switch signal.Kind {
	case KindCityNameRejected:
		metrics.CityNameRejections.WithLabelValues(signal.Country, signal.Reason, signal.Layer).Inc()
	case KindLockTimeout:
		metrics.LockTimeouts.Inc()
	case KindDuplicateDetected:
		metrics.DuplicatesDetected.WithLabelValues(signal.Source).Inc()
	case KindIngestFailed:
		metrics.IngestErrors.WithLabelValues(signal.Category).Inc()
	default:
		recorder.logger.Warn("signal_unknown_kind", slog.String("kind", string(signal.Kind)))
		return
	}

	recorder.logger.Debug("signal_recorded",
		slog.String("kind", string(signal.Kind)),
		slog.String("source", signal.Source),
		slog.String("value", signal.Value),
	)
}
