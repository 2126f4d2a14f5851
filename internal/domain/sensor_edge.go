package domain

import "time"

// Edge records are produced by on-device processing and carry a confidence
// score and the processing latency in milliseconds.

type EdgeFlameEvent struct {
	Time           time.Time `json:"time" db:"time"`
	DeviceID       string    `json:"device_id" db:"device_id"`
	FlameDetected  *bool     `json:"flame_detected" db:"flame_detected" validate:"required"`
	Confidence     *float64  `json:"confidence" db:"confidence" validate:"omitempty,between=0..1"`
	AlertLevel     *string   `json:"alert_level" db:"alert_level" validate:"omitempty,oneof=low medium high"`
	ProcessingTime *float64  `json:"processing_time" db:"processing_time" validate:"omitempty,gte=0"`
	RawPayload     JSON      `json:"raw_payload" db:"raw_payload" validate:"omitempty,jsonobject"`
}

func (r EdgeFlameEvent) Identity() Identity { return Identity{Time: r.Time, Key: r.DeviceID} }

type EdgeFlamePatch struct {
	FlameDetected  *bool    `json:"flame_detected" db:"flame_detected"`
	Confidence     *float64 `json:"confidence" db:"confidence" validate:"omitempty,between=0..1"`
	AlertLevel     *string  `json:"alert_level" db:"alert_level" validate:"omitempty,oneof=low medium high"`
	ProcessingTime *float64 `json:"processing_time" db:"processing_time" validate:"omitempty,gte=0"`
	RawPayload     JSON     `json:"raw_payload" db:"raw_payload" validate:"omitempty,jsonobject"`
}

type EdgePIREvent struct {
	Time            time.Time `json:"time" db:"time"`
	DeviceID        string    `json:"device_id" db:"device_id"`
	MotionDetected  *bool     `json:"motion_detected" db:"motion_detected" validate:"required"`
	Confidence      *float64  `json:"confidence" db:"confidence" validate:"omitempty,between=0..1"`
	MotionDirection *string   `json:"motion_direction" db:"motion_direction" validate:"omitempty,max=32"`
	MotionSpeed     *float64  `json:"motion_speed" db:"motion_speed" validate:"omitempty,gte=0"`
	ProcessingTime  *float64  `json:"processing_time" db:"processing_time" validate:"omitempty,gte=0"`
	RawPayload      JSON      `json:"raw_payload" db:"raw_payload" validate:"omitempty,jsonobject"`
}

func (r EdgePIREvent) Identity() Identity { return Identity{Time: r.Time, Key: r.DeviceID} }

type EdgePIRPatch struct {
	MotionDetected  *bool    `json:"motion_detected" db:"motion_detected"`
	Confidence      *float64 `json:"confidence" db:"confidence" validate:"omitempty,between=0..1"`
	MotionDirection *string  `json:"motion_direction" db:"motion_direction" validate:"omitempty,max=32"`
	MotionSpeed     *float64 `json:"motion_speed" db:"motion_speed" validate:"omitempty,gte=0"`
	ProcessingTime  *float64 `json:"processing_time" db:"processing_time" validate:"omitempty,gte=0"`
	RawPayload      JSON     `json:"raw_payload" db:"raw_payload" validate:"omitempty,jsonobject"`
}

type EdgeReedEvent struct {
	Time                  time.Time `json:"time" db:"time"`
	DeviceID              string    `json:"device_id" db:"device_id"`
	SwitchState           *bool     `json:"switch_state" db:"switch_state" validate:"required"`
	Confidence            *float64  `json:"confidence" db:"confidence" validate:"omitempty,between=0..1"`
	MagneticFieldDetected *bool     `json:"magnetic_field_detected" db:"magnetic_field_detected"`
	MagneticStrength      *float64  `json:"magnetic_strength" db:"magnetic_strength"`
	ProcessingTime        *float64  `json:"processing_time" db:"processing_time" validate:"omitempty,gte=0"`
	RawPayload            JSON      `json:"raw_payload" db:"raw_payload" validate:"omitempty,jsonobject"`
}

func (r EdgeReedEvent) Identity() Identity { return Identity{Time: r.Time, Key: r.DeviceID} }

type EdgeReedPatch struct {
	SwitchState           *bool    `json:"switch_state" db:"switch_state"`
	Confidence            *float64 `json:"confidence" db:"confidence" validate:"omitempty,between=0..1"`
	MagneticFieldDetected *bool    `json:"magnetic_field_detected" db:"magnetic_field_detected"`
	MagneticStrength      *float64 `json:"magnetic_strength" db:"magnetic_strength"`
	ProcessingTime        *float64 `json:"processing_time" db:"processing_time" validate:"omitempty,gte=0"`
	RawPayload            JSON     `json:"raw_payload" db:"raw_payload" validate:"omitempty,jsonobject"`
}

type EdgeTiltEvent struct {
	Time           time.Time `json:"time" db:"time"`
	DeviceID       string    `json:"device_id" db:"device_id"`
	TiltDetected   *bool     `json:"tilt_detected" db:"tilt_detected" validate:"required"`
	Confidence     *float64  `json:"confidence" db:"confidence" validate:"omitempty,between=0..1"`
	TiltAngle      *float64  `json:"tilt_angle" db:"tilt_angle" validate:"omitempty,between=0..90"`
	TiltDirection  *string   `json:"tilt_direction" db:"tilt_direction" validate:"omitempty,max=32"`
	ProcessingTime *float64  `json:"processing_time" db:"processing_time" validate:"omitempty,gte=0"`
	RawPayload     JSON      `json:"raw_payload" db:"raw_payload" validate:"omitempty,jsonobject"`
}

func (r EdgeTiltEvent) Identity() Identity { return Identity{Time: r.Time, Key: r.DeviceID} }

type EdgeTiltPatch struct {
	TiltDetected   *bool    `json:"tilt_detected" db:"tilt_detected"`
	Confidence     *float64 `json:"confidence" db:"confidence" validate:"omitempty,between=0..1"`
	TiltAngle      *float64 `json:"tilt_angle" db:"tilt_angle" validate:"omitempty,between=0..90"`
	TiltDirection  *string  `json:"tilt_direction" db:"tilt_direction" validate:"omitempty,max=32"`
	ProcessingTime *float64 `json:"processing_time" db:"processing_time" validate:"omitempty,gte=0"`
	RawPayload     JSON     `json:"raw_payload" db:"raw_payload" validate:"omitempty,jsonobject"`
}
