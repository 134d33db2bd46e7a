package weather

// Condition is the short label shown next to the temperature.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "Clear"
	ConditionCloudy  Condition = "Cloudy"
	ConditionFog     Condition = "Fog"
	ConditionRain    Condition = "Rain"
	ConditionSnow    Condition = "Snow"
	ConditionStorm   Condition = "Storm"
	ConditionRaining Condition = "Raining"
	ConditionSnowing Condition = "Snowing"

	// ConditionGeneric covers unmapped codes and the in-flight placeholder.
	ConditionGeneric Condition = "Weather"
	ConditionNoWiFi  Condition = "No WiFi"
	ConditionNoData  Condition = "No data"
)

// BufferSize is the receive buffer for one forecast response.
const BufferSize = 4 << 10

// Location is the point the forecast is requested for.
type Location struct {
	Latitude  float64 `json:"latitude" yaml:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" yaml:"longitude" validate:"gte=-180,lte=180"`
}

// Reading is one parsed forecast response.
type Reading struct {
	TemperatureC int
	HighC        int
	LowC         int
	Condition    Condition
}

// Snapshot is the immutable weather state handed to the display.
type Snapshot struct {
	TemperatureC int       `json:"temperatureC"`
	HighC        int       `json:"highC"`
	LowC         int       `json:"lowC"`
	Condition    Condition `json:"condition"`
	HasData      bool      `json:"hasData"`
	IsFetching   bool      `json:"isFetching"`
	Version      uint32    `json:"version"`
}

func (s Snapshot) GetVersion() uint32 { return s.Version }

func (s Snapshot) WithVersion(v uint32) Snapshot {
	s.Version = v
	return s
}

// Seed is the snapshot published at process start.
func Seed() Snapshot {
	return Snapshot{Condition: ConditionUnknown, Version: 1}
}

// SnapshotOf turns a successful reading into a displayable snapshot.
func SnapshotOf(r Reading) Snapshot {
	return Snapshot{
		TemperatureC: r.TemperatureC,
		HighC:        r.HighC,
		LowC:         r.LowC,
		Condition:    r.Condition,
		HasData:      true,
	}
}
