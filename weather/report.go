package weather

import (
	"encoding/json"
)

// Report is the normalized current-weather payload returned by GetWeather.
type Report struct {
	Weather     Summary     `json:"weather"`
	Temperature Temperature `json:"temperature"`
	Visibility  int         `json:"visibility"`
	Wind        Wind        `json:"wind"`
	Datetime    int64       `json:"datetime"`
	Sys         Sys         `json:"sys"`
	Timezone    int         `json:"timezone"`
	Name        string      `json:"name"`
}

// Summary is the primary weather condition.
type Summary struct {
	Main        string `json:"main"`
	Description string `json:"description"`
}

// Temperature values are in the provider's default unit (Kelvin).
type Temperature struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
}

type Wind struct {
	Speed float64 `json:"speed"`
	Deg   int     `json:"deg,omitempty"`
	Gust  float64 `json:"gust,omitempty"`
}

type Sys struct {
	Type    int    `json:"type,omitempty"`
	ID      int    `json:"id,omitempty"`
	Country string `json:"country,omitempty"`
	Sunrise int64  `json:"sunrise"`
	Sunset  int64  `json:"sunset"`
}

// apiResponse mirrors the fields read from the remote body; everything else is ignored.
type apiResponse struct {
	Weather    []Summary   `json:"weather"`
	Main       Temperature `json:"main"`
	Visibility int         `json:"visibility"`
	Wind       Wind        `json:"wind"`
	Dt         int64       `json:"dt"`
	Sys        Sys         `json:"sys"`
	Timezone   int         `json:"timezone"`
	Name       string      `json:"name"`
}

// ParseReport decodes an OpenWeatherMap current-weather body into a Report.
// An undecodable body or an empty weather list is a MissingField error.
func ParseReport(body []byte) (Report, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Report{}, newMissingFieldError("body", err)
	}
	return resp.normalize()
}

func (r apiResponse) normalize() (Report, error) {
	if len(r.Weather) == 0 {
		return Report{}, newMissingFieldError("weather", nil)
	}
	return Report{
		Weather:     r.Weather[0],
		Temperature: r.Main,
		Visibility:  r.Visibility,
		Wind:        r.Wind,
		Datetime:    r.Dt,
		Sys:         r.Sys,
		Timezone:    r.Timezone,
		Name:        r.Name,
	}, nil
}
