package domain

import (
	"sort"
	"time"
)

// Kind slugs; each one is both the URL segment and the registry key
const (
	KindCDS            = "cds"
	KindDHT            = "dht"
	KindFlame          = "flame"
	KindIMU            = "imu"
	KindLoadCell       = "loadcell"
	KindMQ5            = "mq5"
	KindMQ7            = "mq7"
	KindRFID           = "rfid"
	KindSound          = "sound"
	KindTCRT5000       = "tcrt5000"
	KindUltrasonic     = "ultrasonic"
	KindTemperature    = "temperature"
	KindEdgeFlame      = "edge-flame"
	KindEdgePIR        = "edge-pir"
	KindEdgeReed       = "edge-reed"
	KindEdgeTilt       = "edge-tilt"
	KindActuatorBuzzer = "actuator-buzzer"
	KindActuatorIRTX   = "actuator-irtx"
	KindActuatorRelay  = "actuator-relay"
	KindActuatorServo  = "actuator-servo"
	KindDeviceRTC      = "device-rtc"
	KindButton         = "button"
	KindHomeState      = "home-state"
)

// Identity composite key of a time-series record
type Identity struct {
	Time time.Time
	Key  string // device_id, or user_id for home-state snapshots
}

// Record implemented by every time-series record kind
type Record interface {
	Identity() Identity
}

// Preparer is implemented by records that derive columns before insert
type Preparer interface {
	Prepare()
}

// Decorator is implemented by records that carry computed read-only fields
type Decorator interface {
	Decorate()
}

// FilterType how a list filter query parameter is parsed
type FilterType int

const (
	FilterString FilterType = iota
	FilterInt
	FilterBool
	FilterFloat
)

// Filter equality filter exposed on list endpoints; Param is both the query
// parameter and the column name
type Filter struct {
	Param string
	Type  FilterType
}

// StatsSpec columns aggregated by the statistics query
type StatsSpec struct {
	Numeric  []string // count/min/avg/max over non-null values
	Flags    []string // boolean columns, counted when true
	Groups   []string // categorical columns, grouped counts
	Distinct []string // COUNT(DISTINCT col)
}

// Kind descriptor of a record kind
type Kind struct {
	Slug      string
	Table     string
	KeyColumn string
	Filters   []Filter
	Stats     StatsSpec
}

// HasFilter reports whether param is a declared list filter
func (k *Kind) HasFilter(param string) (Filter, bool) {
	for _, f := range k.Filters {
		if f.Param == param {
			return f, true
		}
	}
	return Filter{}, false
}

var rawCommon = []string{"analog_value"}

var kinds = map[string]*Kind{
	KindCDS: {
		Slug: KindCDS, Table: "sensor_raw_cds", KeyColumn: "device_id",
		Stats: StatsSpec{Numeric: []string{"analog_value", "lux_value"}},
	},
	KindDHT: {
		Slug: KindDHT, Table: "sensor_raw_dht", KeyColumn: "device_id",
		Stats: StatsSpec{Numeric: []string{"temperature", "humidity", "heat_index"}},
	},
	KindFlame: {
		Slug: KindFlame, Table: "sensor_raw_flame", KeyColumn: "device_id",
		Filters: []Filter{{"flame_detected", FilterBool}},
		Stats:   StatsSpec{Numeric: rawCommon, Flags: []string{"flame_detected"}},
	},
	KindIMU: {
		Slug: KindIMU, Table: "sensor_raw_imu", KeyColumn: "device_id",
		Stats: StatsSpec{Numeric: []string{
			"accel_x", "accel_y", "accel_z",
			"gyro_x", "gyro_y", "gyro_z",
			"mag_x", "mag_y", "mag_z",
			"temperature",
		}},
	},
	KindLoadCell: {
		Slug: KindLoadCell, Table: "sensor_raw_loadcell", KeyColumn: "device_id",
		Filters: []Filter{{"calibrated", FilterBool}},
		Stats:   StatsSpec{Numeric: []string{"raw_value", "weight_kg"}, Flags: []string{"calibrated"}},
	},
	KindMQ5: {
		Slug: KindMQ5, Table: "sensor_raw_mq5", KeyColumn: "device_id",
		Filters: []Filter{{"gas_type", FilterString}},
		Stats:   StatsSpec{Numeric: []string{"analog_value", "ppm_value"}, Groups: []string{"gas_type"}},
	},
	KindMQ7: {
		Slug: KindMQ7, Table: "sensor_raw_mq7", KeyColumn: "device_id",
		Filters: []Filter{{"gas_type", FilterString}},
		Stats:   StatsSpec{Numeric: []string{"analog_value", "ppm_value"}, Groups: []string{"gas_type"}},
	},
	KindRFID: {
		Slug: KindRFID, Table: "sensor_raw_rfid", KeyColumn: "device_id",
		Filters: []Filter{{"card_id", FilterString}, {"card_type", FilterString}},
		Stats: StatsSpec{
			Flags:    []string{"read_success"},
			Groups:   []string{"card_type"},
			Distinct: []string{"card_id"},
		},
	},
	KindSound: {
		Slug: KindSound, Table: "sensor_raw_sound", KeyColumn: "device_id",
		Filters: []Filter{{"threshold_exceeded", FilterBool}},
		Stats:   StatsSpec{Numeric: []string{"analog_value", "db_value"}, Flags: []string{"threshold_exceeded"}},
	},
	KindTCRT5000: {
		Slug: KindTCRT5000, Table: "sensor_raw_tcrt5000", KeyColumn: "device_id",
		Filters: []Filter{{"object_detected", FilterBool}},
		Stats:   StatsSpec{Numeric: rawCommon, Flags: []string{"object_detected", "digital_value"}},
	},
	KindUltrasonic: {
		Slug: KindUltrasonic, Table: "sensor_raw_ultrasonic", KeyColumn: "device_id",
		Filters: []Filter{{"measurement_valid", FilterBool}},
		Stats:   StatsSpec{Numeric: []string{"distance_cm", "raw_value"}, Flags: []string{"measurement_valid"}},
	},
	KindTemperature: {
		Slug: KindTemperature, Table: "sensor_raw_temperature", KeyColumn: "device_id",
		Stats: StatsSpec{Numeric: []string{"temperature_celsius", "humidity_percent"}},
	},
	KindEdgeFlame: {
		Slug: KindEdgeFlame, Table: "sensor_edge_flame", KeyColumn: "device_id",
		Filters: []Filter{{"flame_detected", FilterBool}, {"alert_level", FilterString}},
		Stats: StatsSpec{
			Numeric: []string{"confidence", "processing_time"},
			Flags:   []string{"flame_detected"},
			Groups:  []string{"alert_level"},
		},
	},
	KindEdgePIR: {
		Slug: KindEdgePIR, Table: "sensor_edge_pir", KeyColumn: "device_id",
		Filters: []Filter{{"motion_detected", FilterBool}, {"motion_direction", FilterString}},
		Stats: StatsSpec{
			Numeric: []string{"confidence", "motion_speed", "processing_time"},
			Flags:   []string{"motion_detected"},
			Groups:  []string{"motion_direction"},
		},
	},
	KindEdgeReed: {
		Slug: KindEdgeReed, Table: "sensor_edge_reed", KeyColumn: "device_id",
		Filters: []Filter{{"switch_state", FilterBool}},
		Stats: StatsSpec{
			Numeric: []string{"confidence", "magnetic_strength", "processing_time"},
			Flags:   []string{"switch_state", "magnetic_field_detected"},
		},
	},
	KindEdgeTilt: {
		Slug: KindEdgeTilt, Table: "sensor_edge_tilt", KeyColumn: "device_id",
		Filters: []Filter{{"tilt_detected", FilterBool}, {"tilt_direction", FilterString}},
		Stats: StatsSpec{
			Numeric: []string{"confidence", "tilt_angle", "processing_time"},
			Flags:   []string{"tilt_detected"},
			Groups:  []string{"tilt_direction"},
		},
	},
	KindActuatorBuzzer: {
		Slug: KindActuatorBuzzer, Table: "actuator_log_buzzer", KeyColumn: "device_id",
		Filters: []Filter{{"buzzer_type", FilterString}, {"state", FilterString}},
		Stats: StatsSpec{
			Numeric: []string{"freq_hz", "duration_ms"},
			Groups:  []string{"state", "buzzer_type"},
		},
	},
	KindActuatorIRTX: {
		Slug: KindActuatorIRTX, Table: "actuator_log_ir_tx", KeyColumn: "device_id",
		Filters: []Filter{{"protocol", FilterString}, {"command_hex", FilterString}},
		Stats: StatsSpec{
			Numeric: []string{"repeat_cnt"},
			Groups:  []string{"protocol", "command_hex"},
		},
	},
	KindActuatorRelay: {
		Slug: KindActuatorRelay, Table: "actuator_log_relay", KeyColumn: "device_id",
		Filters: []Filter{{"channel", FilterInt}, {"state", FilterString}},
		Stats:   StatsSpec{Groups: []string{"state", "channel"}},
	},
	KindActuatorServo: {
		Slug: KindActuatorServo, Table: "actuator_log_servo", KeyColumn: "device_id",
		Filters: []Filter{{"channel", FilterInt}, {"angle_deg", FilterFloat}},
		Stats: StatsSpec{
			Numeric: []string{"angle_deg", "pwm_us"},
			Groups:  []string{"channel"},
		},
	},
	KindDeviceRTC: {
		Slug: KindDeviceRTC, Table: "device_rtc_status", KeyColumn: "device_id",
		Filters: []Filter{{"sync_source", FilterString}},
		Stats: StatsSpec{
			Numeric: []string{"drift_ms", "rtc_epoch_s"},
			Groups:  []string{"sync_source"},
		},
	},
	KindButton: {
		Slug: KindButton, Table: "sensor_event_button", KeyColumn: "device_id",
		Filters: []Filter{{"button_state", FilterString}, {"event_type", FilterString}},
		Stats: StatsSpec{
			Numeric: []string{"press_duration_ms"},
			Groups:  []string{"button_state", "event_type"},
		},
	},
	KindHomeState: {
		Slug: KindHomeState, Table: "home_state_snapshots", KeyColumn: "user_id",
		Filters: []Filter{{"alert_level", FilterString}, {"detected_activity", FilterString}},
		Stats: StatsSpec{
			Numeric: []string{"livingroom_mq7_co_ppm", "kitchen_mq5_gas_ppm", "bathroom_temp_celsius"},
			Groups:  []string{"alert_level", "detected_activity"},
		},
	},
}

// LookupKind returns the descriptor for a slug
func LookupKind(slug string) (*Kind, bool) {
	k, ok := kinds[slug]
	return k, ok
}

// MustKind returns the descriptor for a known slug and panics otherwise
func MustKind(slug string) *Kind {
	k, ok := kinds[slug]
	if !ok {
		panic("domain: unknown record kind " + slug)
	}
	return k
}

// KindSlugs all registered slugs, sorted
func KindSlugs() []string {
	out := make([]string, 0, len(kinds))
	for slug := range kinds {
		out = append(out, slug)
	}
	sort.Strings(out)
	return out
}

// DeviceKindSlugs slugs keyed by device_id
func DeviceKindSlugs() []string {
	var out []string
	for _, slug := range KindSlugs() {
		if kinds[slug].KeyColumn == "device_id" {
			out = append(out, slug)
		}
	}
	return out
}
