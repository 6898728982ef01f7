package plugins

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Jeffail/gabs"
	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"github.com/pretend-bot/pretend/helpers"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type Weather struct{}

const (
	openWeatherHexColor  string = "#eb6e4b"
	openWeatherIconURL   string = "https://openweathermap.org/img/wn/%s@2x.png"
	openWeatherCityURL   string = "https://openweathermap.org/city/%d"
	openWeatherRequestTO        = 15 * time.Second
)

var openWeatherEndpoint = "https://api.openweathermap.org/data/2.5/weather"

var errWeatherCityNotFound = errors.New("city not found")

// WeatherReport is the current weather of a city
type WeatherReport struct {
	CityID      int
	City        string
	Country     string
	Description string
	Icon        string
	Temperature float64
	FeelsLike   float64
	Humidity    float64
	WindSpeed   float64
}

func (w *Weather) Commands() []string {
	return []string{
		"weather",
		"w",
	}
}

func (w *Weather) Init(session *discordgo.Session) {

}

func (w *Weather) Action(command string, content string, msg *discordgo.Message, session *discordgo.Session) {
	if content == "" {
		helpers.SendWarn(msg, helpers.GetText("bot.arguments.too-few"))
		return
	}

	apiKey := helpers.ConfigString("weather.api_key", "")
	if apiKey == "" {
		helpers.SendWarn(msg, helpers.GetText("plugins.weather.not-configured"))
		return
	}

	session.ChannelTyping(msg.ChannelID)

	ctx, cancel := context.WithTimeout(context.Background(), openWeatherRequestTO)
	defer cancel()

	report, err := FetchWeather(ctx, openWeatherEndpoint, apiKey, content)
	if err == errWeatherCityNotFound {
		helpers.SendWarn(msg, helpers.GetText("plugins.weather.address-not-found"))
		return
	}
	helpers.Relax(err)

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("%s, %s", report.City, report.Country),
		Description: cases.Title(language.English).String(report.Description),
		Color:       helpers.GetDiscordColorFromHex(openWeatherHexColor),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Temperature", Value: fmt.Sprintf("%.1f °C / %.1f °F", report.Temperature, celsiusToFahrenheit(report.Temperature)), Inline: true},
			{Name: "Feels like", Value: fmt.Sprintf("%.1f °C / %.1f °F", report.FeelsLike, celsiusToFahrenheit(report.FeelsLike)), Inline: true},
			{Name: "Humidity", Value: fmt.Sprintf("%.0f%%", report.Humidity), Inline: true},
			{Name: "Wind", Value: fmt.Sprintf("%.1f m/s", report.WindSpeed), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: helpers.GetText("plugins.weather.embed-footer")},
	}
	if report.CityID > 0 {
		embed.URL = fmt.Sprintf(openWeatherCityURL, report.CityID)
	}
	if report.Icon != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: fmt.Sprintf(openWeatherIconURL, report.Icon)}
	}

	_, err = helpers.SendEmbed(msg.ChannelID, embed)
	helpers.RelaxEmbed(err, msg.ChannelID, msg.ID)
}

// FetchWeather requests the current weather of $city from an OpenWeatherMap compatible $endpoint
func FetchWeather(ctx context.Context, endpoint, apiKey, city string) (report WeatherReport, err error) {
	query := url.Values{}
	query.Set("q", strings.TrimSpace(city))
	query.Set("appid", apiKey)
	query.Set("units", "metric")

	result, err := helpers.GetJSON(ctx, endpoint+"?"+query.Encode(), nil)
	if err == helpers.ErrNotFound {
		return report, errWeatherCityNotFound
	}
	if err != nil {
		return report, errors.Wrap(err, "requesting weather failed")
	}

	return ParseWeather(result)
}

// ParseWeather reads a current weather response
func ParseWeather(result *gabs.Container) (report WeatherReport, err error) {
	city, ok := result.Path("name").Data().(string)
	if !ok || city == "" {
		return report, errWeatherCityNotFound
	}
	report.City = city
	report.Country, _ = result.Path("sys.country").Data().(string)
	if id, ok := result.Path("id").Data().(float64); ok {
		report.CityID = int(id)
	}

	conditions, err := result.Path("weather").Children()
	if err == nil && len(conditions) > 0 {
		report.Description, _ = conditions[0].Path("description").Data().(string)
		report.Icon, _ = conditions[0].Path("icon").Data().(string)
	}

	report.Temperature, _ = result.Path("main.temp").Data().(float64)
	report.FeelsLike, _ = result.Path("main.feels_like").Data().(float64)
	report.Humidity, _ = result.Path("main.humidity").Data().(float64)
	report.WindSpeed, _ = result.Path("wind.speed").Data().(float64)

	return report, nil
}

func celsiusToFahrenheit(celsius float64) float64 {
	return celsius*9/5 + 32
}
