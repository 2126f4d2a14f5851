package domain

import "time"

// CDSReading light sensor (CdS photoresistor) reading
type CDSReading struct {
	Time        time.Time `json:"time" db:"time"`
	DeviceID    string    `json:"device_id" db:"device_id"`
	AnalogValue *int      `json:"analog_value" db:"analog_value" validate:"omitempty,between=0..1023"`
	LuxValue    *float64  `json:"lux_value" db:"lux_value" validate:"omitempty,gte=0"`
	RawPayload  JSON      `json:"raw_payload" db:"raw_payload" validate:"omitempty,jsonobject"`
}

func (r CDSReading) Identity() Identity { return Identity{Time: r.Time, Key: r.DeviceID} }

type CDSPatch struct {
	AnalogValue *int     `json:"analog_value" db:"analog_value" validate:"omitempty,between=0..1023"`
	LuxValue    *float64 `json:"lux_value" db:"lux_value" validate:"omitempty,gte=0"`
	RawPayload  JSON     `json:"raw_payload" db:"raw_payload" validate:"omitempty,jsonobject"`
}

// DHTReading temperature/humidity reading; heat_index is derived on create
// when the device did not send one
type DHTReading struct {
	Time        time.Time `json:"time" db:"time"`
	DeviceID    string    `json:"device_id" db:"device_id"`
	Temperature *float64  `json:"temperature" db:"temperature" validate:"omitempty,between=-40..80"`
	Humidity    *float64  `json:"humidity" db:"humidity" validate:"omitempty,between=0..100"`
	HeatIndex   *float64  `json:"heat_index" db:"heat_index"`
	RawPayload  JSON      `json:"raw_payload" db:"raw_payload" validate:"omitempty,jsonobject"`
}

func (r DHTReading) Identity() Identity { return Identity{Time: r.Time, Key: r.DeviceID} }

func (r *DHTReading) Prepare() {
	if r.HeatIndex == nil && r.Temperature != nil && r.Humidity != nil {
		hi := HeatIndexCelsius(*r.Temperature, r.Humidity)
		r.HeatIndex = &hi
	}
}

type DHTPatch struct {
	Temperature *float64 `json:"temperature" db:"temperature" validate:"omitempty,between=-40..80"`
	Humidity    *float64 `json:"humidity" db:"humidity" validate:"omitempty,between=0..100"`
	HeatIndex   *float64 `json:"heat_index" db:"heat_index"`
	RawPayload  JSON     `json:"raw_payload" db:"raw_payload" validate:"omitempty,jsonobject"`
}

// FlameRawReading analog flame sensor reading
type FlameRawReading struct {
	Time          time.Time `json:"time" db:"time"`
	DeviceID      string    `json:"device_id" db:"device_id"`
	AnalogValue   *int      `json:"analog_value" db:"analog_value" validate:"omitempty,between=0..1023"`
	FlameDetected *bool     `json:"flame_detected" db:"flame_detected"`
	RawPayload    JSON      `json:"raw_payload" db:"raw_payload" validate:"omitempty,jsonobject"`
}

func (r FlameRawReading) Identity() Identity { return Identity{Time: r.Time, Key: r.DeviceID} }

type FlameRawPatch struct {
	AnalogValue   *int  `json:"analog_value" db:"analog_value" validate:"omitempty,between=0..1023"`
	FlameDetected *bool `json:"flame_detected" db:"flame_detected"`
	RawPayload    JSON  `json:"raw_payload" db:"raw_payload" validate:"omitempty,jsonobject"`
}

// IMUReading 9-axis inertial reading plus die temperature
type IMUReading struct {
	Time        time.Time `json:"time" db:"time"`
	DeviceID    string    `json:"device_id" db:"device_id"`
	AccelX      *float64  `json:"accel_x" db:"accel_x"`
	AccelY      *float64  `json:"accel_y" db:"accel_y"`
	AccelZ      *float64  `json:"accel_z" db:"accel_z"`
	GyroX       *float64  `json:"gyro_x" db:"gyro_x"`
	GyroY       *float64  `json:"gyro_y" db:"gyro_y"`
	GyroZ       *float64  `json:"gyro_z" db:"gyro_z"`
	MagX        *float64  `json:"mag_x" db:"mag_x"`
	MagY        *float64  `json:"mag_y" db:"mag_y"`
	MagZ        *float64  `json:"mag_z" db:"mag_z"`
	Temperature *float64  `json:"temperature" db:"temperature"`
	RawPayload  JSON      `json:"raw_payload" db:"raw_payload" validate:"omitempty,jsonobject"`
}

func (r IMUReading) Identity() Identity { return Identity{Time: r.Time, Key: r.DeviceID} }

type IMUPatch struct {
	AccelX      *float64 `json:"accel_x" db:"accel_x"`
	AccelY      *float64 `json:"accel_y" db:"accel_y"`
	AccelZ      *float64 `json:"accel_z" db:"accel_z"`
	GyroX       *float64 `json:"gyro_x" db:"gyro_x"`
	GyroY       *float64 `json:"gyro_y" db:"gyro_y"`
	GyroZ       *float64 `json:"gyro_z" db:"gyro_z"`
	MagX        *float64 `json:"mag_x" db:"mag_x"`
	MagY        *float64 `json:"mag_y" db:"mag_y"`
	MagZ        *float64 `json:"mag_z" db:"mag_z"`
	Temperature *float64 `json:"temperature" db:"temperature"`
	RawPayload  JSON     `json:"raw_payload" db:"raw_payload" validate:"omitempty,jsonobject"`
}

// LoadCellReading weight sensor reading
type LoadCellReading struct {
	Time       time.Time `json:"time" db:"time"`
	DeviceID   string    `json:"device_id" db:"device_id"`
	RawValue   *int      `json:"raw_value" db:"raw_value"`
	WeightKg   *float64  `json:"weight_kg" db:"weight_kg" validate:"omitempty,gte=0"`
	Calibrated *bool     `json:"calibrated" db:"calibrated"`
	RawPayload JSON      `json:"raw_payload" db:"raw_payload" validate:"omitempty,jsonobject"`
}

func (r LoadCellReading) Identity() Identity { return Identity{Time: r.Time, Key: r.DeviceID} }

type LoadCellPatch struct {
	RawValue   *int     `json:"raw_value" db:"raw_value"`
	WeightKg   *float64 `json:"weight_kg" db:"weight_kg" validate:"omitempty,gte=0"`
	Calibrated *bool    `json:"calibrated" db:"calibrated"`
	RawPayload JSON     `json:"raw_payload" db:"raw_payload" validate:"omitempty,jsonobject"`
}

// GasReading MQ-series gas sensor reading (MQ5 LPG/natural gas, MQ7 CO)
type GasReading struct {
	Time        time.Time `json:"time" db:"time"`
	DeviceID    string    `json:"device_id" db:"device_id"`
	AnalogValue *int      `json:"analog_value" db:"analog_value" validate:"omitempty,between=0..1023"`
	PPMValue    *float64  `json:"ppm_value" db:"ppm_value" validate:"omitempty,gte=0"`
	GasType     *string   `json:"gas_type" db:"gas_type" validate:"omitempty,max=32"`
	RawPayload  JSON      `json:"raw_payload" db:"raw_payload" validate:"omitempty,jsonobject"`
}

func (r GasReading) Identity() Identity { return Identity{Time: r.Time, Key: r.DeviceID} }

type GasPatch struct {
	AnalogValue *int     `json:"analog_value" db:"analog_value" validate:"omitempty,between=0..1023"`
	PPMValue    *float64 `json:"ppm_value" db:"ppm_value" validate:"omitempty,gte=0"`
	GasType     *string  `json:"gas_type" db:"gas_type" validate:"omitempty,max=32"`
	RawPayload  JSON     `json:"raw_payload" db:"raw_payload" validate:"omitempty,jsonobject"`
}

// RFIDReading card read event
type RFIDReading struct {
	Time        time.Time `json:"time" db:"time"`
	DeviceID    string    `json:"device_id" db:"device_id"`
	CardID      *string   `json:"card_id" db:"card_id" validate:"omitempty,nonblank,max=64"`
	CardType    *string   `json:"card_type" db:"card_type" validate:"omitempty,max=32"`
	ReadSuccess *bool     `json:"read_success" db:"read_success"`
	RawPayload  JSON      `json:"raw_payload" db:"raw_payload" validate:"omitempty,jsonobject"`
}

func (r RFIDReading) Identity() Identity { return Identity{Time: r.Time, Key: r.DeviceID} }

type RFIDPatch struct {
	CardID      *string `json:"card_id" db:"card_id" validate:"omitempty,nonblank,max=64"`
	CardType    *string `json:"card_type" db:"card_type" validate:"omitempty,max=32"`
	ReadSuccess *bool   `json:"read_success" db:"read_success"`
	RawPayload  JSON    `json:"raw_payload" db:"raw_payload" validate:"omitempty,jsonobject"`
}

// SoundReading microphone level reading
type SoundReading struct {
	Time              time.Time `json:"time" db:"time"`
	DeviceID          string    `json:"device_id" db:"device_id"`
	AnalogValue       *int      `json:"analog_value" db:"analog_value" validate:"omitempty,between=0..1023"`
	DBValue           *float64  `json:"db_value" db:"db_value" validate:"omitempty,between=0..200"`
	ThresholdExceeded *bool     `json:"threshold_exceeded" db:"threshold_exceeded"`
	RawPayload        JSON      `json:"raw_payload" db:"raw_payload" validate:"omitempty,jsonobject"`
}

func (r SoundReading) Identity() Identity { return Identity{Time: r.Time, Key: r.DeviceID} }

type SoundPatch struct {
	AnalogValue       *int     `json:"analog_value" db:"analog_value" validate:"omitempty,between=0..1023"`
	DBValue           *float64 `json:"db_value" db:"db_value" validate:"omitempty,between=0..200"`
	ThresholdExceeded *bool    `json:"threshold_exceeded" db:"threshold_exceeded"`
	RawPayload        JSON     `json:"raw_payload" db:"raw_payload" validate:"omitempty,jsonobject"`
}

// TCRT5000Reading infrared reflective proximity reading
type TCRT5000Reading struct {
	Time           time.Time `json:"time" db:"time"`
	DeviceID       string    `json:"device_id" db:"device_id"`
	DigitalValue   *bool     `json:"digital_value" db:"digital_value"`
	AnalogValue    *int      `json:"analog_value" db:"analog_value" validate:"omitempty,between=0..1023"`
	ObjectDetected *bool     `json:"object_detected" db:"object_detected"`
	RawPayload     JSON      `json:"raw_payload" db:"raw_payload" validate:"omitempty,jsonobject"`
}

func (r TCRT5000Reading) Identity() Identity { return Identity{Time: r.Time, Key: r.DeviceID} }

type TCRT5000Patch struct {
	DigitalValue   *bool `json:"digital_value" db:"digital_value"`
	AnalogValue    *int  `json:"analog_value" db:"analog_value" validate:"omitempty,between=0..1023"`
	ObjectDetected *bool `json:"object_detected" db:"object_detected"`
	RawPayload     JSON  `json:"raw_payload" db:"raw_payload" validate:"omitempty,jsonobject"`
}

// UltrasonicReading distance measurement
type UltrasonicReading struct {
	Time             time.Time `json:"time" db:"time"`
	DeviceID         string    `json:"device_id" db:"device_id"`
	DistanceCm       *float64  `json:"distance_cm" db:"distance_cm" validate:"omitempty,between=0..1000"`
	RawValue         *int      `json:"raw_value" db:"raw_value" validate:"omitempty,between=0..65535"`
	MeasurementValid *bool     `json:"measurement_valid" db:"measurement_valid"`
	RawPayload       JSON      `json:"raw_payload" db:"raw_payload" validate:"omitempty,jsonobject"`
}

func (r UltrasonicReading) Identity() Identity { return Identity{Time: r.Time, Key: r.DeviceID} }

type UltrasonicPatch struct {
	DistanceCm       *float64 `json:"distance_cm" db:"distance_cm" validate:"omitempty,between=0..1000"`
	RawValue         *int     `json:"raw_value" db:"raw_value" validate:"omitempty,between=0..65535"`
	MeasurementValid *bool    `json:"measurement_valid" db:"measurement_valid"`
	RawPayload       JSON     `json:"raw_payload" db:"raw_payload" validate:"omitempty,jsonobject"`
}

// TemperatureReading room temperature/humidity reading
type TemperatureReading struct {
	Time               time.Time `json:"time" db:"time"`
	DeviceID           string    `json:"device_id" db:"device_id"`
	TemperatureCelsius *float64  `json:"temperature_celsius" db:"temperature_celsius" validate:"required,between=-50..100"`
	HumidityPercent    *float64  `json:"humidity_percent" db:"humidity_percent" validate:"omitempty,between=0..100"`
	RawPayload         JSON      `json:"raw_payload" db:"raw_payload" validate:"omitempty,jsonobject"`
}

func (r TemperatureReading) Identity() Identity { return Identity{Time: r.Time, Key: r.DeviceID} }

type TemperaturePatch struct {
	TemperatureCelsius *float64 `json:"temperature_celsius" db:"temperature_celsius" validate:"omitempty,between=-50..100"`
	HumidityPercent    *float64 `json:"humidity_percent" db:"humidity_percent" validate:"omitempty,between=0..100"`
	RawPayload         JSON     `json:"raw_payload" db:"raw_payload" validate:"omitempty,jsonobject"`
}
