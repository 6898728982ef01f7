package helpers

import (
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Jeffail/gabs"
	"github.com/joho/godotenv"
)

var (
	// config Saves the bot-config
	config      *gabs.Container
	configMutex sync.RWMutex

	// environment variables that win over the json file, mostly secrets
	configEnvOverrides = map[string]string{
		"DISCORD_TOKEN":       "discord.token",
		"DATABASE_URL":        "postgres.dsn",
		"REDIS_ADDRESS":       "redis.address",
		"REDIS_PASSWORD":      "redis.password",
		"LASTFM_API_KEY":      "lastfm.api_key",
		"LASTFM_API_SECRET":   "lastfm.api_secret",
		"OPENAI_API_KEY":      "openai.api_key",
		"SENTRY_DSN":          "sentry",
		"OPENWEATHER_API_KEY": "weather.api_key",
	}
)

// LoadConfig loads the config from $path into $config
// A .env file next to the binary is read first, its values end up in the environment
func LoadConfig(path string) {
	// .env is optional
	_ = godotenv.Load()

	json, err := gabs.ParseJSONFile(path)
	if err != nil {
		panic(err)
	}

	applyEnvOverrides(json, os.LookupEnv)

	SetConfig(json)
}

// SetConfig replaces the active config, used by LoadConfig and tests
func SetConfig(c *gabs.Container) {
	configMutex.Lock()
	config = c
	configMutex.Unlock()
}

// GetConfig is a config getter
func GetConfig() *gabs.Container {
	configMutex.RLock()
	defer configMutex.RUnlock()

	if config == nil {
		return gabs.New()
	}

	return config
}

func applyEnvOverrides(json *gabs.Container, lookup func(string) (string, bool)) {
	for env, path := range configEnvOverrides {
		value, ok := lookup(env)
		if !ok || value == "" {
			continue
		}
		json.SetP(value, path)
	}
}

// ConfigString returns the string at $path or $fallback if the key is missing, empty or not a string
func ConfigString(path, fallback string) string {
	value, ok := GetConfig().Path(path).Data().(string)
	if !ok || value == "" {
		return fallback
	}
	return value
}

// ConfigInt returns the number at $path or $fallback, json numbers arrive as float64
func ConfigInt(path string, fallback int) int {
	switch value := GetConfig().Path(path).Data().(type) {
	case float64:
		return int(value)
	case int:
		return value
	}
	return fallback
}

func ConfigBool(path string, fallback bool) bool {
	value, ok := GetConfig().Path(path).Data().(bool)
	if !ok {
		return fallback
	}
	return value
}

// ConfigDuration parses values like "30s" or "2m"
func ConfigDuration(path string, fallback time.Duration) time.Duration {
	value, ok := GetConfig().Path(path).Data().(string)
	if !ok {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func ConfigStringSlice(path string) (values []string) {
	children, err := GetConfig().Path(path).Children()
	if err != nil {
		return values
	}
	for _, child := range children {
		if value, ok := child.Data().(string); ok && strings.TrimSpace(value) != "" {
			values = append(values, value)
		}
	}
	return values
}

// ConfigKeys returns the sorted keys of the object at $path
func ConfigKeys(path string) (keys []string) {
	children, err := GetConfig().Path(path).ChildrenMap()
	if err != nil {
		return keys
	}
	for key := range children {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
