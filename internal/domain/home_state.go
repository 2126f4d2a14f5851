package domain

import (
	"fmt"
	"time"
)

const (
	AlertNormal    = "Normal"
	AlertAttention = "Attention"
	AlertWarning   = "Warning"
	AlertEmergency = "Emergency"

	COAlertPPM       = 50.0
	GasAlertPPM      = 100.0
	BathroomAlertDeg = 40.0
)

// HomeStateSnapshot per-user aggregate of the home sensors at one instant.
// The alert level is decided upstream and stored as given.
type HomeStateSnapshot struct {
	Time   time.Time `json:"time" db:"time"`
	UserID string    `json:"user_id" db:"user_id" validate:"uuid"`

	EntrancePIRMotion     *bool    `json:"entrance_pir_motion" db:"entrance_pir_motion"`
	EntranceRFIDStatus    *string  `json:"entrance_rfid_status" db:"entrance_rfid_status" validate:"omitempty,max=32"`
	EntranceReedIsClosed  *bool    `json:"entrance_reed_is_closed" db:"entrance_reed_is_closed"`
	LivingroomPIR1Motion  *bool    `json:"livingroom_pir_1_motion" db:"livingroom_pir_1_motion"`
	LivingroomPIR2Motion  *bool    `json:"livingroom_pir_2_motion" db:"livingroom_pir_2_motion"`
	LivingroomSoundDB     *float64 `json:"livingroom_sound_db" db:"livingroom_sound_db" validate:"omitempty,between=0..200"`
	LivingroomMQ7COPPM    *float64 `json:"livingroom_mq7_co_ppm" db:"livingroom_mq7_co_ppm" validate:"omitempty,gte=0"`
	LivingroomButtonState *string  `json:"livingroom_button_state" db:"livingroom_button_state" validate:"omitempty,max=32"`
	KitchenPIRMotion      *bool    `json:"kitchen_pir_motion" db:"kitchen_pir_motion"`
	KitchenSoundDB        *float64 `json:"kitchen_sound_db" db:"kitchen_sound_db" validate:"omitempty,between=0..200"`
	KitchenMQ5GasPPM      *float64 `json:"kitchen_mq5_gas_ppm" db:"kitchen_mq5_gas_ppm" validate:"omitempty,gte=0"`
	KitchenLoadcell1Kg    *float64 `json:"kitchen_loadcell_1_kg" db:"kitchen_loadcell_1_kg" validate:"omitempty,gte=0"`
	KitchenLoadcell2Kg    *float64 `json:"kitchen_loadcell_2_kg" db:"kitchen_loadcell_2_kg" validate:"omitempty,gte=0"`
	KitchenButtonState    *string  `json:"kitchen_button_state" db:"kitchen_button_state" validate:"omitempty,max=32"`
	KitchenBuzzerIsOn     *bool    `json:"kitchen_buzzer_is_on" db:"kitchen_buzzer_is_on"`
	BedroomPIRMotion      *bool    `json:"bedroom_pir_motion" db:"bedroom_pir_motion"`
	BedroomSoundDB        *float64 `json:"bedroom_sound_db" db:"bedroom_sound_db" validate:"omitempty,between=0..200"`
	BedroomMQ7COPPM       *float64 `json:"bedroom_mq7_co_ppm" db:"bedroom_mq7_co_ppm" validate:"omitempty,gte=0"`
	BedroomLoadcellKg     *float64 `json:"bedroom_loadcell_kg" db:"bedroom_loadcell_kg" validate:"omitempty,gte=0"`
	BedroomButtonState    *string  `json:"bedroom_button_state" db:"bedroom_button_state" validate:"omitempty,max=32"`
	BathroomPIRMotion     *bool    `json:"bathroom_pir_motion" db:"bathroom_pir_motion"`
	BathroomSoundDB       *float64 `json:"bathroom_sound_db" db:"bathroom_sound_db" validate:"omitempty,between=0..200"`
	BathroomTempCelsius   *float64 `json:"bathroom_temp_celsius" db:"bathroom_temp_celsius" validate:"omitempty,between=-50..100"`
	BathroomButtonState   *string  `json:"bathroom_button_state" db:"bathroom_button_state" validate:"omitempty,max=32"`

	DetectedActivity *string `json:"detected_activity" db:"detected_activity" validate:"omitempty,max=64"`
	AlertLevel       *string `json:"alert_level" db:"alert_level" validate:"omitempty,oneof=Normal Attention Warning Emergency"`
	AlertReason      *string `json:"alert_reason" db:"alert_reason" validate:"omitempty,max=255"`
	ActionLog        JSON    `json:"action_log" db:"action_log" validate:"omitempty,jsonobject"`
	ExtraData        JSON    `json:"extra_data" db:"extra_data" validate:"omitempty,jsonobject"`
}

func (r HomeStateSnapshot) Identity() Identity { return Identity{Time: r.Time, Key: r.UserID} }

func (r *HomeStateSnapshot) Prepare() {
	if r.AlertLevel == nil {
		level := AlertNormal
		r.AlertLevel = &level
	}
}

// IsEmergency reports whether the snapshot is at Emergency level
func (r HomeStateSnapshot) IsEmergency() bool {
	return r.AlertLevel != nil && *r.AlertLevel == AlertEmergency
}

// MotionCount number of rooms reporting motion
func (r HomeStateSnapshot) MotionCount() int {
	n := 0
	for _, m := range []*bool{
		r.EntrancePIRMotion, r.LivingroomPIR1Motion, r.LivingroomPIR2Motion,
		r.KitchenPIRMotion, r.BedroomPIRMotion, r.BathroomPIRMotion,
	} {
		if m != nil && *m {
			n++
		}
	}
	return n
}

// EnvironmentalAlerts human-readable environmental hazards in the snapshot
func (r HomeStateSnapshot) EnvironmentalAlerts() []string {
	var alerts []string
	if r.LivingroomMQ7COPPM != nil && *r.LivingroomMQ7COPPM > COAlertPPM {
		alerts = append(alerts, fmt.Sprintf("living room CO high: %g ppm", *r.LivingroomMQ7COPPM))
	}
	if r.KitchenMQ5GasPPM != nil && *r.KitchenMQ5GasPPM > GasAlertPPM {
		alerts = append(alerts, fmt.Sprintf("kitchen gas high: %g ppm", *r.KitchenMQ5GasPPM))
	}
	if r.BedroomMQ7COPPM != nil && *r.BedroomMQ7COPPM > COAlertPPM {
		alerts = append(alerts, fmt.Sprintf("bedroom CO high: %g ppm", *r.BedroomMQ7COPPM))
	}
	if r.BathroomTempCelsius != nil && *r.BathroomTempCelsius > BathroomAlertDeg {
		alerts = append(alerts, fmt.Sprintf("bathroom temperature high: %g°C", *r.BathroomTempCelsius))
	}
	return alerts
}

type HomeStatePatch struct {
	EntrancePIRMotion     *bool    `json:"entrance_pir_motion" db:"entrance_pir_motion"`
	EntranceRFIDStatus    *string  `json:"entrance_rfid_status" db:"entrance_rfid_status" validate:"omitempty,max=32"`
	EntranceReedIsClosed  *bool    `json:"entrance_reed_is_closed" db:"entrance_reed_is_closed"`
	LivingroomPIR1Motion  *bool    `json:"livingroom_pir_1_motion" db:"livingroom_pir_1_motion"`
	LivingroomPIR2Motion  *bool    `json:"livingroom_pir_2_motion" db:"livingroom_pir_2_motion"`
	LivingroomSoundDB     *float64 `json:"livingroom_sound_db" db:"livingroom_sound_db" validate:"omitempty,between=0..200"`
	LivingroomMQ7COPPM    *float64 `json:"livingroom_mq7_co_ppm" db:"livingroom_mq7_co_ppm" validate:"omitempty,gte=0"`
	LivingroomButtonState *string  `json:"livingroom_button_state" db:"livingroom_button_state" validate:"omitempty,max=32"`
	KitchenPIRMotion      *bool    `json:"kitchen_pir_motion" db:"kitchen_pir_motion"`
	KitchenSoundDB        *float64 `json:"kitchen_sound_db" db:"kitchen_sound_db" validate:"omitempty,between=0..200"`
	KitchenMQ5GasPPM      *float64 `json:"kitchen_mq5_gas_ppm" db:"kitchen_mq5_gas_ppm" validate:"omitempty,gte=0"`
	KitchenLoadcell1Kg    *float64 `json:"kitchen_loadcell_1_kg" db:"kitchen_loadcell_1_kg" validate:"omitempty,gte=0"`
	KitchenLoadcell2Kg    *float64 `json:"kitchen_loadcell_2_kg" db:"kitchen_loadcell_2_kg" validate:"omitempty,gte=0"`
	KitchenButtonState    *string  `json:"kitchen_button_state" db:"kitchen_button_state" validate:"omitempty,max=32"`
	KitchenBuzzerIsOn     *bool    `json:"kitchen_buzzer_is_on" db:"kitchen_buzzer_is_on"`
	BedroomPIRMotion      *bool    `json:"bedroom_pir_motion" db:"bedroom_pir_motion"`
	BedroomSoundDB        *float64 `json:"bedroom_sound_db" db:"bedroom_sound_db" validate:"omitempty,between=0..200"`
	BedroomMQ7COPPM       *float64 `json:"bedroom_mq7_co_ppm" db:"bedroom_mq7_co_ppm" validate:"omitempty,gte=0"`
	BedroomLoadcellKg     *float64 `json:"bedroom_loadcell_kg" db:"bedroom_loadcell_kg" validate:"omitempty,gte=0"`
	BedroomButtonState    *string  `json:"bedroom_button_state" db:"bedroom_button_state" validate:"omitempty,max=32"`
	BathroomPIRMotion     *bool    `json:"bathroom_pir_motion" db:"bathroom_pir_motion"`
	BathroomSoundDB       *float64 `json:"bathroom_sound_db" db:"bathroom_sound_db" validate:"omitempty,between=0..200"`
	BathroomTempCelsius   *float64 `json:"bathroom_temp_celsius" db:"bathroom_temp_celsius" validate:"omitempty,between=-50..100"`
	BathroomButtonState   *string  `json:"bathroom_button_state" db:"bathroom_button_state" validate:"omitempty,max=32"`

	DetectedActivity *string `json:"detected_activity" db:"detected_activity" validate:"omitempty,max=64"`
	AlertLevel       *string `json:"alert_level" db:"alert_level" validate:"omitempty,oneof=Normal Attention Warning Emergency"`
	AlertReason      *string `json:"alert_reason" db:"alert_reason" validate:"omitempty,max=255"`
	ActionLog        JSON    `json:"action_log" db:"action_log" validate:"omitempty,jsonobject"`
	ExtraData        JSON    `json:"extra_data" db:"extra_data" validate:"omitempty,jsonobject"`
}

// AlertLevelInput body of PUT /home-state/{user_id}/{timestamp}/alert-level
type AlertLevelInput struct {
	AlertLevel string  `json:"alert_level" validate:"required,oneof=Normal Attention Warning Emergency"`
	Reason     *string `json:"reason" validate:"omitempty,max=255"`
}
