// Package events handles event emission for record lifecycle changes
package events

import (
	"context"
	"encoding/json"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/bramble/pkg/kafka"
	"github.com/Ramsey-B/bramble/pkg/tracing"
)

// Emitter publishes record lifecycle events after successful mutations.
// A nil Emitter is valid and emits nothing, so handlers never have to branch
// on whether the producer is configured.
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitCreated emits a <recordType>.created event carrying the record body
func (e *Emitter) EmitCreated(ctx context.Context, recordType string, recordID int64, contactID int64, record any) {
	e.emit(ctx, recordType+".created", recordType, recordID, contactID, record)
}

// EmitUpdated emits a <recordType>.updated event carrying the record body
func (e *Emitter) EmitUpdated(ctx context.Context, recordType string, recordID int64, contactID int64, record any) {
	e.emit(ctx, recordType+".updated", recordType, recordID, contactID, record)
}

// EmitDeleted emits a <recordType>.deleted event with no body
func (e *Emitter) EmitDeleted(ctx context.Context, recordType string, recordID int64) {
	e.emit(ctx, recordType+".deleted", recordType, recordID, 0, nil)
}

// emit publishes best-effort: a failed publish is logged, never surfaced to
// the caller, so event delivery cannot fail a committed mutation.
func (e *Emitter) emit(ctx context.Context, eventType string, recordType string, recordID int64, contactID int64, record any) {
	if e == nil || e.producer == nil {
		return
	}

	ctx, span := tracing.StartSpan(ctx, "events.Emitter.emit")
	defer span.End()

	var data json.RawMessage
	if record != nil {
		encoded, err := json.Marshal(record)
		if err != nil {
			e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"event_type": eventType,
			}).Error("Failed to encode record event body")
			return
		}
		data = encoded
	}

	event := &kafka.RecordEvent{
		EventID:    uuid.New().String(),
		EventType:  eventType,
		RecordType: recordType,
		RecordID:   recordID,
		ContactID:  contactID,
		Data:       data,
	}

	if err := e.producer.PublishRecordEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"event_type": eventType,
			"record_id":  recordID,
		}).Error("Failed to emit record event")
	}
}
