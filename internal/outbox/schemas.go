package outbox

import "github.com/densign01/baby-tracker/internal/events"

const activityLoggedSchema = `{
  "type": "object",
  "title": "ActivityLogged",
  "properties": {
    "record_id": {"type": "string"},
    "subject_id": {"type": "string"},
    "kind": {"type": "string"},
    "occurred_at": {"type": "string", "format": "date-time"},
    "recorded_by": {"type": "string"},
    "in_progress": {"type": "boolean"}
  },
  "required": ["record_id", "subject_id", "kind", "occurred_at", "recorded_by"],
  "additionalProperties": false
}`

const activityClosedSchema = `{
  "type": "object",
  "title": "ActivityClosed",
  "properties": {
    "record_id": {"type": "string"},
    "subject_id": {"type": "string"},
    "occurred_at": {"type": "string", "format": "date-time"},
    "previous_occurred_at": {"type": "string", "format": "date-time"},
    "duration_ms": {"type": "integer", "minimum": 0}
  },
  "required": ["record_id", "subject_id", "occurred_at", "previous_occurred_at", "duration_ms"],
  "additionalProperties": false
}`

const activityDeletedSchema = `{
  "type": "object",
  "title": "ActivityDeleted",
  "properties": {
    "record_id": {"type": "string"},
    "subject_id": {"type": "string"},
    "kind": {"type": "string"},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["record_id", "subject_id", "kind", "occurred_at"],
  "additionalProperties": false
}`

// SchemaCatalogEntry maps event type to schema definition.
type SchemaCatalogEntry struct {
	Schema string
}

var schemaCatalog = map[string]SchemaCatalogEntry{
	events.TypeActivityLogged:  {Schema: activityLoggedSchema},
	events.TypeActivityClosed:  {Schema: activityClosedSchema},
	events.TypeActivityDeleted: {Schema: activityDeletedSchema},
}
