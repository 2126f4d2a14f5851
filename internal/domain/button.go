package domain

import "time"

const (
	ButtonPressed   = "PRESSED"
	ButtonReleased  = "RELEASED"
	ButtonLongPress = "LONG_PRESS"

	EventCrisisAcknowledged = "crisis_acknowledged"
	EventAssistanceRequest  = "assistance_request"
	EventMedicationCheck    = "medication_check"

	// LongPressMs presses at or above this duration count as long presses
	LongPressMs = 1000
)

// ButtonEvent care-call button event
type ButtonEvent struct {
	Time            time.Time `json:"time" db:"time"`
	DeviceID        string    `json:"device_id" db:"device_id"`
	ButtonState     *string   `json:"button_state" db:"button_state" validate:"required,oneof=PRESSED RELEASED LONG_PRESS"`
	EventType       *string   `json:"event_type" db:"event_type" validate:"required,oneof=crisis_acknowledged assistance_request medication_check"`
	PressDurationMs *int      `json:"press_duration_ms" db:"press_duration_ms" validate:"omitempty,gte=0"`
	RawPayload      JSON      `json:"raw_payload" db:"raw_payload" validate:"omitempty,jsonobject"`

	// computed on read
	Priority    int  `json:"priority" db:"-"`
	IsLongPress bool `json:"is_long_press" db:"-"`
}

func (r ButtonEvent) Identity() Identity { return Identity{Time: r.Time, Key: r.DeviceID} }

func (r *ButtonEvent) Decorate() {
	r.Priority = 0
	if r.EventType != nil {
		r.Priority = EventPriority(*r.EventType)
	}
	r.IsLongPress = r.PressDurationMs != nil && *r.PressDurationMs >= LongPressMs
}

type ButtonPatch struct {
	ButtonState     *string `json:"button_state" db:"button_state" validate:"omitempty,oneof=PRESSED RELEASED LONG_PRESS"`
	EventType       *string `json:"event_type" db:"event_type" validate:"omitempty,oneof=crisis_acknowledged assistance_request medication_check"`
	PressDurationMs *int    `json:"press_duration_ms" db:"press_duration_ms" validate:"omitempty,gte=0"`
	RawPayload      JSON    `json:"raw_payload" db:"raw_payload" validate:"omitempty,jsonobject"`
}

// EventPriority crisis=3, assistance=2, medication=1, anything else 0
func EventPriority(eventType string) int {
	switch eventType {
	case EventCrisisAcknowledged:
		return 3
	case EventAssistanceRequest:
		return 2
	case EventMedicationCheck:
		return 1
	default:
		return 0
	}
}
