package events

import "time"

const (
	TypeTriageCompleted = "TRIAGE_COMPLETED"
	TypeIncidentCreated = "INCIDENT_CREATED"
	TypeCallbackCreated = "CALLBACK_CREATED"
)

// NewTriageCompletedEvent is emitted after every processed turn,
// successful or degraded.
func NewTriageCompletedEvent(conversationId, priority, category, team, status string, kbHits int) Event {
	return BaseEvent{
		Type: TypeTriageCompleted,
		Data: map[string]interface{}{
			"conversation_id": conversationId,
			"priority":        priority,
			"category":        category,
			"team":            team,
			"status":          status,
			"kb_hits_count":   kbHits,
		},
		OccurredAt: time.Now(),
	}
}

// NewIncidentCreatedEvent is emitted when a turn actually logged an
// Ivanti incident.
func NewIncidentCreatedEvent(conversationId, incidentNumber, priority, team string) Event {
	return BaseEvent{
		Type: TypeIncidentCreated,
		Data: map[string]interface{}{
			"conversation_id": conversationId,
			"incident_number": incidentNumber,
			"priority":        priority,
			"team":            team,
		},
		OccurredAt: time.Now(),
	}
}

// NewCallbackCreatedEvent is emitted when a turn enqueued a NICE
// callback.
func NewCallbackCreatedEvent(conversationId, contactId, priority string) Event {
	return BaseEvent{
		Type: TypeCallbackCreated,
		Data: map[string]interface{}{
			"conversation_id": conversationId,
			"contact_id":      contactId,
			"priority":        priority,
		},
		OccurredAt: time.Now(),
	}
}
