package weather

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrUnparsableResponse is returned when the body is not JSON or a required
// numeric field is missing.
var ErrUnparsableResponse = errors.New("unparsable weather response")

type forecastPayload struct {
	Current *struct {
		Temperature   *float64        `json:"temperature_2m"`
		WeatherCode   *float64        `json:"weather_code"`
		Precipitation json.RawMessage `json:"precipitation"`
		Rain          json.RawMessage `json:"rain"`
		Snowfall      json.RawMessage `json:"snowfall"`
	} `json:"current"`
	Daily *struct {
		Max []*float64 `json:"temperature_2m_max"`
		Min []*float64 `json:"temperature_2m_min"`
	} `json:"daily"`
}

// Extract parses a forecast body. Temperatures are rounded half away from
// zero; optional precipitation fields count as zero when absent.
func Extract(body []byte) (Reading, error) {
	var p forecastPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return Reading{}, fmt.Errorf("%w: %v", ErrUnparsableResponse, err)
	}
	if p.Current == nil || p.Current.Temperature == nil || p.Current.WeatherCode == nil {
		return Reading{}, fmt.Errorf("%w: missing current fields", ErrUnparsableResponse)
	}
	if p.Daily == nil || len(p.Daily.Max) == 0 || len(p.Daily.Min) == 0 ||
		p.Daily.Max[0] == nil || p.Daily.Min[0] == nil {
		return Reading{}, fmt.Errorf("%w: missing daily fields", ErrUnparsableResponse)
	}

	precip := optional(p.Current.Precipitation)
	rain := optional(p.Current.Rain)
	snow := optional(p.Current.Snowfall)

	return Reading{
		TemperatureC: round(*p.Current.Temperature),
		HighC:        round(*p.Daily.Max[0]),
		LowC:         round(*p.Daily.Min[0]),
		Condition:    Classify(int(*p.Current.WeatherCode), precip, rain, snow),
	}, nil
}

// Classify picks the display label. Measured precipitation wins over the
// coarse weather code.
func Classify(code int, precipitation, rain, snowfall float64) Condition {
	switch {
	case snowfall > 0:
		return ConditionSnowing
	case rain > 0 || precipitation > 0:
		return ConditionRaining
	default:
		return conditionForCode(code)
	}
}

// conditionForCode maps WMO weather codes as used by Open-Meteo.
func conditionForCode(code int) Condition {
	switch {
	case code == 0:
		return ConditionClear
	case code >= 1 && code <= 3:
		return ConditionCloudy
	case code == 45 || code == 48:
		return ConditionFog
	case (code >= 51 && code <= 57) || (code >= 61 && code <= 67) || (code >= 80 && code <= 82):
		return ConditionRain
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return ConditionSnow
	case code >= 95 && code <= 99:
		return ConditionStorm
	default:
		return ConditionGeneric
	}
}

func optional(raw json.RawMessage) float64 {
	var v float64
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil {
		return 0
	}
	return v
}

func round(v float64) int {
	return int(math.Round(v))
}
