package domain

import "math"

// CelsiusToFahrenheit F = C*9/5 + 32
func CelsiusToFahrenheit(c float64) float64 { return c*9/5 + 32 }

// CelsiusToKelvin K = C + 273.15
func CelsiusToKelvin(c float64) float64 { return c + 273.15 }

const (
	FreezingCelsius    = 0.0
	ExtremeHeatCelsius = 50.0
)

// IsExtremeTemperature at or below freezing, or at or above 50°C
func IsExtremeTemperature(c float64) bool { return c <= FreezingCelsius || c >= ExtremeHeatCelsius }

// IsComfortableTemperature 18..26°C inclusive
func IsComfortableTemperature(c float64) bool { return c >= 18 && c <= 26 }

// IsHumidityComfortable 30..70% inclusive; unknown humidity is not comfortable
func IsHumidityComfortable(h *float64) bool {
	return h != nil && *h >= 30 && *h <= 70
}

// HeatIndexCelsius Steadman approximation with the Rothfusz refinement once
// the simple index passes 80. Below 27°C the reading itself is returned.
// The coefficients are applied to the Celsius input unchanged.
func HeatIndexCelsius(t float64, humidity *float64) float64 {
	if t < 27 || humidity == nil {
		return round1(t)
	}
	h := *humidity
	hi := 0.5 * (t + 61.0 + ((t - 68.0) * 1.2) + (h * 0.094))
	if hi > 80 {
		hi = -42.379 + 2.04901523*t + 10.14333127*h -
			0.22475541*t*h - 6.83783e-3*t*t - 5.481717e-2*h*h +
			1.22874e-3*t*t*h + 8.5282e-4*t*h*h - 1.99e-6*t*t*h*h
	}
	return round1(hi)
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

// TemperatureDerived computed view of one temperature reading
type TemperatureDerived struct {
	TemperatureReading
	Fahrenheit            float64  `json:"temperature_fahrenheit"`
	Kelvin                float64  `json:"temperature_kelvin"`
	IsExtreme             bool     `json:"is_extreme"`
	IsComfortable         bool     `json:"is_comfortable"`
	IsHumidityComfortable bool     `json:"is_humidity_comfortable"`
	HeatIndex             *float64 `json:"heat_index"`
}

// DeriveTemperature builds the derived view; heat index needs humidity
func DeriveTemperature(r TemperatureReading) TemperatureDerived {
	c := 0.0
	if r.TemperatureCelsius != nil {
		c = *r.TemperatureCelsius
	}
	d := TemperatureDerived{
		TemperatureReading:    r,
		Fahrenheit:            CelsiusToFahrenheit(c),
		Kelvin:                CelsiusToKelvin(c),
		IsExtreme:             IsExtremeTemperature(c),
		IsComfortable:         IsComfortableTemperature(c),
		IsHumidityComfortable: IsHumidityComfortable(r.HumidityPercent),
	}
	if r.HumidityPercent != nil {
		hi := HeatIndexCelsius(c, r.HumidityPercent)
		d.HeatIndex = &hi
	}
	return d
}
