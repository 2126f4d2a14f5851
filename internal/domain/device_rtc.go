package domain

import "time"

// MaxDriftMs drift beyond one day is treated as a broken clock
const MaxDriftMs = 86_400_000

// RTCStatus device real-time-clock sync sample
type RTCStatus struct {
	Time       time.Time `json:"time" db:"time"`
	DeviceID   string    `json:"device_id" db:"device_id"`
	RTCEpochS  *int64    `json:"rtc_epoch_s" db:"rtc_epoch_s" validate:"omitempty,gte=0"`
	DriftMs    *int64    `json:"drift_ms" db:"drift_ms" validate:"omitempty,between=-86400000..86400000"`
	SyncSource *string   `json:"sync_source" db:"sync_source" validate:"omitempty,max=32"`
	RawPayload JSON      `json:"raw_payload" db:"raw_payload" validate:"omitempty,jsonobject"`
}

func (r RTCStatus) Identity() Identity { return Identity{Time: r.Time, Key: r.DeviceID} }

type RTCPatch struct {
	RTCEpochS  *int64  `json:"rtc_epoch_s" db:"rtc_epoch_s" validate:"omitempty,gte=0"`
	DriftMs    *int64  `json:"drift_ms" db:"drift_ms" validate:"omitempty,between=-86400000..86400000"`
	SyncSource *string `json:"sync_source" db:"sync_source" validate:"omitempty,max=32"`
	RawPayload JSON    `json:"raw_payload" db:"raw_payload" validate:"omitempty,jsonobject"`
}
