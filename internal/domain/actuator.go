package domain

import "time"

// BuzzerLog buzzer command log entry
type BuzzerLog struct {
	Time       time.Time `json:"time" db:"time"`
	DeviceID   string    `json:"device_id" db:"device_id"`
	BuzzerType *string   `json:"buzzer_type" db:"buzzer_type" validate:"required,oneof=piezo magnetic mechanical digital"`
	State      *string   `json:"state" db:"state" validate:"required,oneof=on off pulse tone"`
	FreqHz     *int      `json:"freq_hz" db:"freq_hz" validate:"omitempty,between=20..20000"`
	DurationMs *int      `json:"duration_ms" db:"duration_ms" validate:"omitempty,between=0..60000"`
	Reason     *string   `json:"reason" db:"reason" validate:"omitempty,max=255"`
	RawPayload JSON      `json:"raw_payload" db:"raw_payload" validate:"omitempty,jsonobject"`
}

func (r BuzzerLog) Identity() Identity { return Identity{Time: r.Time, Key: r.DeviceID} }

type BuzzerPatch struct {
	BuzzerType *string `json:"buzzer_type" db:"buzzer_type" validate:"omitempty,oneof=piezo magnetic mechanical digital"`
	State      *string `json:"state" db:"state" validate:"omitempty,oneof=on off pulse tone"`
	FreqHz     *int    `json:"freq_hz" db:"freq_hz" validate:"omitempty,between=20..20000"`
	DurationMs *int    `json:"duration_ms" db:"duration_ms" validate:"omitempty,between=0..60000"`
	Reason     *string `json:"reason" db:"reason" validate:"omitempty,max=255"`
	RawPayload JSON    `json:"raw_payload" db:"raw_payload" validate:"omitempty,jsonobject"`
}

// IRTXLog infrared transmitter command log entry
type IRTXLog struct {
	Time       time.Time `json:"time" db:"time"`
	DeviceID   string    `json:"device_id" db:"device_id"`
	Protocol   *string   `json:"protocol" db:"protocol" validate:"omitempty,max=32"`
	AddressHex *string   `json:"address_hex" db:"address_hex" validate:"omitempty,hexstr"`
	CommandHex *string   `json:"command_hex" db:"command_hex" validate:"required,hexstr"`
	RepeatCnt  *int      `json:"repeat_cnt" db:"repeat_cnt" validate:"omitempty,between=1..100"`
	RawPayload JSON      `json:"raw_payload" db:"raw_payload" validate:"omitempty,jsonobject"`
}

func (r IRTXLog) Identity() Identity { return Identity{Time: r.Time, Key: r.DeviceID} }

type IRTXPatch struct {
	Protocol   *string `json:"protocol" db:"protocol" validate:"omitempty,max=32"`
	AddressHex *string `json:"address_hex" db:"address_hex" validate:"omitempty,hexstr"`
	CommandHex *string `json:"command_hex" db:"command_hex" validate:"omitempty,hexstr"`
	RepeatCnt  *int    `json:"repeat_cnt" db:"repeat_cnt" validate:"omitempty,between=1..100"`
	RawPayload JSON    `json:"raw_payload" db:"raw_payload" validate:"omitempty,jsonobject"`
}

// RelayLog relay switching log entry
type RelayLog struct {
	Time       time.Time `json:"time" db:"time"`
	DeviceID   string    `json:"device_id" db:"device_id"`
	Channel    *int      `json:"channel" db:"channel" validate:"required,between=1..16"`
	State      *string   `json:"state" db:"state" validate:"required,oneof=on off toggle pulse"`
	Reason     *string   `json:"reason" db:"reason" validate:"omitempty,max=255"`
	RawPayload JSON      `json:"raw_payload" db:"raw_payload" validate:"omitempty,jsonobject"`
}

func (r RelayLog) Identity() Identity { return Identity{Time: r.Time, Key: r.DeviceID} }

type RelayPatch struct {
	Channel    *int    `json:"channel" db:"channel" validate:"omitempty,between=1..16"`
	State      *string `json:"state" db:"state" validate:"omitempty,oneof=on off toggle pulse"`
	Reason     *string `json:"reason" db:"reason" validate:"omitempty,max=255"`
	RawPayload JSON    `json:"raw_payload" db:"raw_payload" validate:"omitempty,jsonobject"`
}

// ServoLog servo positioning log entry
type ServoLog struct {
	Time       time.Time `json:"time" db:"time"`
	DeviceID   string    `json:"device_id" db:"device_id"`
	Channel    *int      `json:"channel" db:"channel" validate:"required,between=1..16"`
	AngleDeg   *float64  `json:"angle_deg" db:"angle_deg" validate:"omitempty,between=0..180"`
	PWMUs      *int      `json:"pwm_us" db:"pwm_us" validate:"omitempty,between=500..2500"`
	Reason     *string   `json:"reason" db:"reason" validate:"omitempty,max=255"`
	RawPayload JSON      `json:"raw_payload" db:"raw_payload" validate:"omitempty,jsonobject"`
}

func (r ServoLog) Identity() Identity { return Identity{Time: r.Time, Key: r.DeviceID} }

type ServoPatch struct {
	Channel    *int     `json:"channel" db:"channel" validate:"omitempty,between=1..16"`
	AngleDeg   *float64 `json:"angle_deg" db:"angle_deg" validate:"omitempty,between=0..180"`
	PWMUs      *int     `json:"pwm_us" db:"pwm_us" validate:"omitempty,between=500..2500"`
	Reason     *string  `json:"reason" db:"reason" validate:"omitempty,max=255"`
	RawPayload JSON     `json:"raw_payload" db:"raw_payload" validate:"omitempty,jsonobject"`
}
