package providers

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/i474232898/stopboard/internal/weather"
)

// DefaultOpenMeteoURL is the public forecast endpoint.
const DefaultOpenMeteoURL = "https://api.open-meteo.com/v1/forecast"

// OpenMeteo builds forecast requests for Open-Meteo.
type OpenMeteo struct {
	name    string
	baseURL string
}

// NewOpenMeteo returns a provider rooted at baseURL, or the public endpoint
// when baseURL is empty.
func NewOpenMeteo(baseURL string) *OpenMeteo {
	if baseURL == "" {
		baseURL = DefaultOpenMeteoURL
	}
	return &OpenMeteo{name: "openmeteo", baseURL: strings.TrimRight(baseURL, "?")}
}

func (p *OpenMeteo) Name() string {
	return p.name
}

// URL requests current conditions plus today's high and low in Celsius, in
// the location's own timezone.
func (p *OpenMeteo) URL(loc weather.Location) string {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(loc.Latitude, 'f', 4, 64))
	values.Set("longitude", strconv.FormatFloat(loc.Longitude, 'f', 4, 64))
	values.Set("current", "temperature_2m,weather_code,precipitation,rain,snowfall")
	values.Set("daily", "temperature_2m_max,temperature_2m_min")
	values.Set("temperature_unit", "celsius")
	values.Set("timezone", "auto")

	return p.baseURL + "?" + values.Encode()
}
