package events

import (
	"encoding/json"
	"time"
)

// Envelope is the canonical event shape carried through outbox tables and
// the message bus. Audit consumers rely on entity_type/entity_id plus the
// before/after fields embedded in Data.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	SourceService string          `json:"source_service"`
	OccurredAt    time.Time       `json:"occurred_at_utc"`
	EntityType    string          `json:"entity_type"`
	EntityID      string          `json:"entity_id"`
	SchemaVersion int             `json:"schema_version"`
	PartitionKey  string          `json:"partition_key"`
	Data          json.RawMessage `json:"data"`
}
