package events

import (
	"encoding/json"
	"time"
)

// EventPayload is the interface all typed payloads implement.
type EventPayload interface {
	EventType() EventType
}

// =============================================================================
// TASK EVENTS
// =============================================================================

// TaskSource distinguishes manual entry from voice-driven creation.
type TaskSource string

const (
	TaskSourceManual TaskSource = "manual"
	TaskSourceVoice  TaskSource = "voice"
)

type TaskCreatedPayload struct {
	TaskID  string     `json:"task_id"`
	Title   string     `json:"title"`
	DueDate time.Time  `json:"due_date"`
	Label   string     `json:"label,omitempty"`
	Via     TaskSource `json:"via"`
}

func (TaskCreatedPayload) EventType() EventType { return EventTaskCreated }

type TaskToggledPayload struct {
	TaskID   string `json:"task_id"`
	Complete bool   `json:"complete"`
}

func (TaskToggledPayload) EventType() EventType { return EventTaskToggled }

type TaskDeletedPayload struct {
	TaskID string `json:"task_id"`
}

func (TaskDeletedPayload) EventType() EventType { return EventTaskDeleted }

// =============================================================================
// VOICE CAPTURE EVENTS
// =============================================================================

type VoiceStartedPayload struct {
	Locale string `json:"locale"`
}

func (VoiceStartedPayload) EventType() EventType { return EventVoiceStarted }

type VoicePartialPayload struct {
	Transcript string `json:"transcript"`
}

func (VoicePartialPayload) EventType() EventType { return EventVoicePartial }

type VoiceStoppedPayload struct {
	Transcript string `json:"transcript"`
}

func (VoiceStoppedPayload) EventType() EventType { return EventVoiceStopped }

type VoiceErrorPayload struct {
	Error string `json:"error"`
}

func (VoiceErrorPayload) EventType() EventType { return EventVoiceError }

// =============================================================================
// EXTRACTION EVENTS
// =============================================================================

type ExtractCompletedPayload struct {
	Transcript string        `json:"transcript"`
	Drafts     int           `json:"drafts"`
	Created    int           `json:"created"`
	Duration   time.Duration `json:"duration,omitempty"`
}

func (ExtractCompletedPayload) EventType() EventType { return EventExtractCompleted }

type ExtractFailedPayload struct {
	Transcript string `json:"transcript"`
	Error      string `json:"error"`
}

func (ExtractFailedPayload) EventType() EventType { return EventExtractFailed }

// =============================================================================
// TYPED EVENT CONSTRUCTORS
// =============================================================================

func NewTypedEvent(source EventSource, payload EventPayload) Event {
	return Event{
		ID:        generateEventID(),
		Type:      payload.EventType(),
		Timestamp: time.Now(),
		Source:    source,
		Payload:   toMap(payload),
	}
}

func toMap(v any) map[string]any {
	var result map[string]any
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil
	}
	return result
}

// =============================================================================
// TYPED PAYLOAD EXTRACTORS
// =============================================================================

func ExtractPayload[T EventPayload](e Event) (T, bool) {
	var result T
	data, err := json.Marshal(e.Payload)
	if err != nil {
		return result, false
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, false
	}
	return result, true
}

func GetTaskCreatedPayload(e Event) (TaskCreatedPayload, bool) {
	return ExtractPayload[TaskCreatedPayload](e)
}

func GetVoicePartialPayload(e Event) (VoicePartialPayload, bool) {
	return ExtractPayload[VoicePartialPayload](e)
}

func GetVoiceErrorPayload(e Event) (VoiceErrorPayload, bool) {
	return ExtractPayload[VoiceErrorPayload](e)
}

func GetExtractCompletedPayload(e Event) (ExtractCompletedPayload, bool) {
	return ExtractPayload[ExtractCompletedPayload](e)
}
