package domain

import "time"

// OnlineWindow a device that reported within this window counts as online
const OnlineWindow = 10 * time.Minute

// Device devices 表
type Device struct {
	DeviceID      string    `json:"device_id" db:"device_id"`
	UserID        *string   `json:"user_id" db:"user_id"`
	LocationLabel *string   `json:"location_label" db:"location_label"`
	InstalledAt   time.Time `json:"installed_at" db:"installed_at"`
}

// IsAssigned reports whether the device belongs to a user
func (d Device) IsAssigned() bool { return d.UserID != nil && *d.UserID != "" }

type DeviceCreateInput struct {
	DeviceID      string     `json:"device_id" validate:"required,nonblank,max=64"`
	UserID        *string    `json:"user_id" validate:"omitempty,uuid"`
	LocationLabel *string    `json:"location_label" validate:"omitempty,nonblank,max=200"`
	InstalledAt   *time.Time `json:"installed_at"`
}

type DeviceUpdateInput struct {
	LocationLabel *string    `json:"location_label" db:"location_label" validate:"omitempty,nonblank,max=200"`
	InstalledAt   *time.Time `json:"installed_at" db:"installed_at"`
}

type DeviceAssignInput struct {
	UserID string `json:"user_id" validate:"required,uuid"`
}

// DeviceStatus assignment plus the newest reading time across all kinds
type DeviceStatus struct {
	DeviceID      string     `json:"device_id"`
	IsAssigned    bool       `json:"is_assigned"`
	UserID        *string    `json:"user_id"`
	LocationLabel *string    `json:"location_label"`
	InstalledAt   time.Time  `json:"installed_at"`
	LastSeen      *time.Time `json:"last_seen"`
	Online        bool       `json:"online"`
}

// NewDeviceStatus evaluates online-ness against now
func NewDeviceStatus(d Device, lastSeen *time.Time, now time.Time) DeviceStatus {
	return DeviceStatus{
		DeviceID:      d.DeviceID,
		IsAssigned:    d.IsAssigned(),
		UserID:        d.UserID,
		LocationLabel: d.LocationLabel,
		InstalledAt:   d.InstalledAt,
		LastSeen:      lastSeen,
		Online:        lastSeen != nil && now.Sub(*lastSeen) <= OnlineWindow,
	}
}
