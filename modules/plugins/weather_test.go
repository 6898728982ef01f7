package plugins

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Jeffail/gabs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const weatherResponse = `{
	"id": 2643743,
	"name": "London",
	"sys": {"country": "GB"},
	"weather": [{"description": "light rain", "icon": "10d"}],
	"main": {"temp": 11.5, "feels_like": 10.2, "humidity": 81},
	"wind": {"speed": 4.1}
}`

func TestParseWeather(t *testing.T) {
	result, err := gabs.ParseJSON([]byte(weatherResponse))
	require.NoError(t, err)

	report, err := ParseWeather(result)
	require.NoError(t, err)
	assert.Equal(t, WeatherReport{
		CityID:      2643743,
		City:        "London",
		Country:     "GB",
		Description: "light rain",
		Icon:        "10d",
		Temperature: 11.5,
		FeelsLike:   10.2,
		Humidity:    81,
		WindSpeed:   4.1,
	}, report)
}

func TestParseWeatherWithoutCity(t *testing.T) {
	result, err := gabs.ParseJSON([]byte(`{"cod": "404"}`))
	require.NoError(t, err)

	_, err = ParseWeather(result)
	assert.Equal(t, errWeatherCityNotFound, err)
}

func TestFetchWeather(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.URL.Query().Get("appid"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))

		if r.URL.Query().Get("q") != "London" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(weatherResponse))
	}))
	defer server.Close()

	report, err := FetchWeather(context.Background(), server.URL, "secret", " London ")
	require.NoError(t, err)
	assert.Equal(t, "London", report.City)

	_, err = FetchWeather(context.Background(), server.URL, "secret", "Atlantis")
	assert.Equal(t, errWeatherCityNotFound, err)
}

func TestCelsiusToFahrenheit(t *testing.T) {
	assert.InDelta(t, 212.0, celsiusToFahrenheit(100), 0.001)
	assert.InDelta(t, -40.0, celsiusToFahrenheit(-40), 0.001)
}
