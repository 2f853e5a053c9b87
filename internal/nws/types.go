package nws

// GeoJSON response shapes for the api.weather.gov endpoints this client uses.
// Only the fields the tools read are mapped; the API returns much more.

// AlertCollection is the /alerts/active/area/{state} response.
type AlertCollection struct {
	Title    string         `json:"title"`
	Updated  string         `json:"updated"`
	Features []AlertFeature `json:"features"`
}

// AlertFeature is one active alert.
type AlertFeature struct {
	ID         string          `json:"id"`
	Properties AlertProperties `json:"properties"`
}

// AlertProperties carries the alert fields shown to users.
type AlertProperties struct {
	Event       string `json:"event"`
	AreaDesc    string `json:"areaDesc"`
	Severity    string `json:"severity"`
	Urgency     string `json:"urgency"`
	Headline    string `json:"headline"`
	Description string `json:"description"`
	Instruction string `json:"instruction"`
	Effective   string `json:"effective"`
	Ends        string `json:"ends"`
}

// Point is the /points/{lat},{lon} response. It maps a coordinate to the
// NWS grid and carries the URLs for the gridpoint forecast products.
type Point struct {
	Properties PointProperties `json:"properties"`
}

// PointProperties holds the forecast URLs and grid identity for a point.
type PointProperties struct {
	GridID           string           `json:"gridId"`
	GridX            int              `json:"gridX"`
	GridY            int              `json:"gridY"`
	Forecast         string           `json:"forecast"`
	ForecastHourly   string           `json:"forecastHourly"`
	RelativeLocation RelativeLocation `json:"relativeLocation"`
}

// RelativeLocation names the nearest city for a gridpoint.
type RelativeLocation struct {
	Properties struct {
		City  string `json:"city"`
		State string `json:"state"`
	} `json:"properties"`
}

// Forecast is a gridpoint forecast response (periodic or hourly).
type Forecast struct {
	Properties ForecastProperties `json:"properties"`
}

// ForecastProperties holds the forecast periods.
type ForecastProperties struct {
	Updated string   `json:"updated"`
	Periods []Period `json:"periods"`
}

// Period is one forecast window (e.g. "Tonight", or a single hour).
type Period struct {
	Number           int    `json:"number"`
	Name             string `json:"name"`
	StartTime        string `json:"startTime"`
	EndTime          string `json:"endTime"`
	IsDaytime        bool   `json:"isDaytime"`
	Temperature      int    `json:"temperature"`
	TemperatureUnit  string `json:"temperatureUnit"`
	WindSpeed        string `json:"windSpeed"`
	WindDirection    string `json:"windDirection"`
	ShortForecast    string `json:"shortForecast"`
	DetailedForecast string `json:"detailedForecast"`
}
